package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/stremer/stremerd/metrics"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin accepts JSON or form-encoded credentials. A successful login
// (or any login while auth is disabled) issues the process-wide token,
// overwriting the previous one, and upserts the client record keyed by the
// resolved remote address.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := parseLogin(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "bad_request", "Missing username or password")
		return
	}

	if h.creds.IsAuthEnabled() {
		if req.Username != h.creds.Username() || req.Password != h.creds.Password() {
			metrics.RecordLogin(false)
			WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
			return
		}
	}

	token := h.tokens.Issue()
	h.registry.UpsertClient(req.Username, remoteAddr(r))
	metrics.RecordLogin(true)

	_ = WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

func parseLogin(r *http.Request) (loginRequest, bool) {
	var req loginRequest

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return loginRequest{}, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return loginRequest{}, false
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	}

	if req.Username == "" {
		return loginRequest{}, false
	}
	return req, true
}

func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
