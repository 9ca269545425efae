package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/stremer/stremerd"
	"github.com/stremer/stremerd/credentials"
	"github.com/stremer/stremerd/metrics"
)

// bearerToken extracts the token from an Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// AuthMiddleware enforces bearer authentication. When the credential store
// reports auth disabled, every request passes. allowQuery additionally
// accepts a ?token= query parameter, needed by embedded media players that
// cannot set custom headers.
func AuthMiddleware(creds credentials.Store, tokens *TokenStore, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !creds.IsAuthEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" && allowQuery {
				token = r.URL.Query().Get("token")
			}

			if !tokens.Matches(token) {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status for telemetry.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// TelemetryMiddleware maintains the live request count (guaranteed
// decrement on every exit path) and per-route request counters.
func TelemetryMiddleware(registry *stremerd.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			registry.RequestStarted()
			metrics.RequestStarted()
			defer func() {
				registry.RequestFinished()
				metrics.RequestFinished()
			}()

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			metrics.RecordRequest(r.Method, r.URL.Path, strconv.Itoa(status))
		})
	}
}
