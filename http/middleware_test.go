package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stremer/stremerd"
	"github.com/stremer/stremerd/credentials"
	stremerhttp "github.com/stremer/stremerd/http"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_DisabledPassesEverything(t *testing.T) {
	creds := credentials.NewStaticStore(false, "", "")
	handler := stremerhttp.AuthMiddleware(creds, stremerhttp.NewTokenStore(), false)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_HeaderToken(t *testing.T) {
	creds := credentials.NewStaticStore(true, "admin", "secret")
	tokens := stremerhttp.NewTokenStore()
	handler := stremerhttp.AuthMiddleware(creds, tokens, false)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := tokens.Issue()

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Case-insensitive scheme.
	req = httptest.NewRequest(http.MethodGet, "/files", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	creds := credentials.NewStaticStore(true, "admin", "secret")
	tokens := stremerhttp.NewTokenStore()
	token := tokens.Issue()

	strict := stremerhttp.AuthMiddleware(creds, tokens, false)(okHandler())
	lax := stremerhttp.AuthMiddleware(creds, tokens, true)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/stream?token="+token, nil)

	rec := httptest.NewRecorder()
	strict.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	lax.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream?token="+token, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTelemetryMiddleware_TracksActiveRequests(t *testing.T) {
	registry := stremerd.NewRegistry()

	var during int64
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = registry.ActiveRequests()
		w.WriteHeader(http.StatusNoContent)
	})
	handler := stremerhttp.TelemetryMiddleware(registry)(inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, int64(1), during)
	assert.Equal(t, int64(0), registry.ActiveRequests())
}
