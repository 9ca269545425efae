package http_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stremer/stremerd"
	"github.com/stremer/stremerd/credentials"
	"github.com/stremer/stremerd/filesystem"
	stremerhttp "github.com/stremer/stremerd/http"
)

type fixture struct {
	handler *stremerhttp.Handler
	mux     http.Handler
	dir     string
}

func newFixture(t *testing.T, creds credentials.Store) *fixture {
	t.Helper()

	dir := t.TempDir()
	osDir, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = osDir.Close() })

	router := stremerd.NewDirectRouter(filesystem.NewStore(osDir))
	if creds == nil {
		creds = credentials.NewStaticStore(false, "", "")
	}

	h := stremerhttp.NewHandler(&stremerhttp.HandlerConfig{}, router, nil, creds, stremerd.NewRegistry())
	return &fixture{handler: h, mux: h.Router(), dir: dir}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (f *fixture) postJSON(path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return f.do(req)
}

func (f *fixture) write(t *testing.T, rel string, content []byte) {
	t.Helper()
	full := filepath.Join(f.dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, content, 0o644))
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestPing(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/ping")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, stremerhttp.ServerName, body["server"])
}

func TestLogin_JSON(t *testing.T) {
	f := newFixture(t, credentials.NewStaticStore(true, "admin", "secret"))

	rec := f.postJSON("/auth/login", map[string]string{"username": "admin", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON[map[string]string](t, rec)
	assert.NotEmpty(t, body["token"])
	assert.True(t, f.handler.Tokens().Matches(body["token"]))
}

func TestLogin_Form(t *testing.T) {
	f := newFixture(t, credentials.NewStaticStore(true, "admin", "secret"))

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader("username=admin&password=secret"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeJSON[map[string]string](t, rec)["token"])
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t, credentials.NewStaticStore(true, "admin", "secret"))

	rec := f.postJSON("/auth/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_MissingUsername(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.postJSON("/auth/login", map[string]string{"password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_ReplacesPreviousToken(t *testing.T) {
	f := newFixture(t, credentials.NewStaticStore(true, "admin", "secret"))

	first := decodeJSON[map[string]string](t,
		f.postJSON("/auth/login", map[string]string{"username": "admin", "password": "secret"}))["token"]
	second := decodeJSON[map[string]string](t,
		f.postJSON("/auth/login", map[string]string{"username": "admin", "password": "secret"}))["token"]

	assert.NotEqual(t, first, second)
	assert.False(t, f.handler.Tokens().Matches(first))
	assert.True(t, f.handler.Tokens().Matches(second))
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	f := newFixture(t, credentials.NewStaticStore(true, "admin", "secret"))

	rec := f.get("/files?path=")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/files?path=", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)

	token := f.handler.Tokens().Issue()
	req = httptest.NewRequest(http.MethodGet, "/files?path=", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, f.do(req).Code)
}

func TestStreamAcceptsQueryToken(t *testing.T) {
	f := newFixture(t, credentials.NewStaticStore(true, "admin", "secret"))
	f.write(t, "a.txt", []byte("hello"))
	token := f.handler.Tokens().Issue()

	rec := f.get("/stream?path=a.txt&token=" + token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Query tokens are not honored elsewhere.
	rec = f.get("/files?path=&token=" + token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFiles_NDJSON(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, "docs/a.txt", []byte("aa"))
	f.write(t, "docs/b.txt", []byte("bbb"))

	rec := f.get("/files?path=docs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	items := map[string]stremerd.FileItem{}
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		var item stremerd.FileItem
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &item))
		items[item.Name] = item
	}
	require.Len(t, items, 2)
	a := items["a.txt"]
	assert.Equal(t, stremerd.KindFile, a.Kind)
	assert.Equal(t, "docs/a.txt", a.VirtualPath)
	require.NotNil(t, a.Size)
	assert.Equal(t, int64(2), *a.Size)
}

func TestFiles_Pagination(t *testing.T) {
	f := newFixture(t, nil)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		f.write(t, "docs/"+name, []byte("x"))
	}

	rec := f.get("/files?path=docs&offset=1&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestFiles_NotFound(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, "docs/a.txt", []byte("x"))

	rec := f.get("/files?path=docs/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeJSON[stremerhttp.ErrorResponse](t, rec)
	assert.Equal(t, "not_found", body.Error)
}

func TestFiles_Unconfigured(t *testing.T) {
	router := stremerd.NewScopedRouter()
	h := stremerhttp.NewHandler(&stremerhttp.HandlerConfig{}, router, nil,
		credentials.NewStaticStore(false, "", ""), stremerd.NewRegistry())
	mux := h.Router()

	for _, path := range []string{"/files?path=", "/search?q=x"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)

		body := decodeJSON[map[string]any](t, rec)
		assert.Equal(t, "No storage configured", body["error"], path)
		assert.Empty(t, body["items"], path)
	}

	// Mutations have no empty-result shape to offer; they answer 503.
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/file?path=x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUpload(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodPut, "/file?path=music/song.mp3",
		bytes.NewReader([]byte("audio-bytes")))
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "saved", decodeJSON[stremerhttp.StatusResponse](t, rec).Status)

	got, err := os.ReadFile(filepath.Join(f.dir, "music", "song.mp3"))
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), got)
}

func TestUpload_MissingPath(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodPut, "/file", strings.NewReader("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, "junk.txt", []byte("x"))

	rec := f.do(httptest.NewRequest(http.MethodDelete, "/file?path=junk.txt", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deleted", decodeJSON[stremerhttp.StatusResponse](t, rec).Status)

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/file?path=junk.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCopy(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, "src.txt", []byte("payload"))

	rec := f.postJSON("/copy", map[string]string{"src": "src.txt", "dst": "dup.txt"})
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := os.ReadFile(filepath.Join(f.dir, "dup.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestRename(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, "old.txt", []byte("x"))

	rec := f.postJSON("/rename", map[string]string{"path": "old.txt", "newName": "new.txt"})
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := os.Stat(filepath.Join(f.dir, "new.txt"))
	assert.NoError(t, err)
}

func TestRename_Conflict(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, "a.txt", []byte("a"))
	f.write(t, "b.txt", []byte("b"))

	rec := f.postJSON("/rename", map[string]string{"path": "a.txt", "newName": "b.txt"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "already_exists", decodeJSON[stremerhttp.ErrorResponse](t, rec).Error)
}

func TestMkdirAndCreateFile(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.postJSON("/mkdir", map[string]string{"path": "", "name": "photos"})
	require.Equal(t, http.StatusOK, rec.Code)
	info, err := os.Stat(filepath.Join(f.dir, "photos"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	rec = f.postJSON("/createFile", map[string]string{"path": "photos", "name": "note.txt"})
	require.Equal(t, http.StatusOK, rec.Code)
	info, err = os.Stat(filepath.Join(f.dir, "photos", "note.txt"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())

	rec = f.postJSON("/mkdir", map[string]string{"path": "", "name": "photos"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClients(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/clients")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON[map[string]any](t, rec)
	assert.NotNil(t, body["clients"])

	f.postJSON("/auth/login", map[string]string{"username": "laptop", "password": ""})

	rec = f.get("/clients")
	body = decodeJSON[map[string]any](t, rec)
	clients, ok := body["clients"].([]any)
	require.True(t, ok)
	require.Len(t, clients, 1)
}
