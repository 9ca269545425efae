package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/stremer/stremerd"
	"github.com/stremer/stremerd/metrics"
	"github.com/stremer/stremerd/probe"
)

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// handleFiles streams a directory listing as NDJSON, one FileItem per line,
// flushing after each so a client can render incrementally. An unconfigured
// storage router is a normal state and answers 200 with a human-readable
// error field rather than a failure status.
func (h *Handler) handleFiles(w http.ResponseWriter, r *http.Request) {
	if !h.router.IsConfigured() {
		_ = WriteJSON(w, http.StatusOK, map[string]any{
			"items": []stremerd.FileItem{},
			"error": "No storage configured",
		})
		return
	}

	path := r.URL.Query().Get("path")
	offset := max(0, queryInt(r, "offset", 0))
	limit := max(0, queryInt(r, "limit", 0))

	seq, err := h.router.List(r.Context(), path, offset, limit)
	if err != nil {
		HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	for item := range seq {
		if err := enc.Encode(item); err != nil {
			// Client went away; the sequence stops with us.
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// handleUpload streams the request body straight into the backend in fixed
// chunks. A mid-transfer failure aborts the request; the backend's atomic
// write discards the partial payload.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "bad_request", "Missing path")
		return
	}

	mime := r.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = probe.MimeByName(path)
	}

	counted := &countingReader{r: r.Body}
	if err := h.router.WriteStream(r.Context(), path, counted, mime); err != nil {
		HandleError(w, err)
		return
	}

	metrics.AddUploadedBytes(counted.n)
	_ = WriteJSON(w, http.StatusOK, StatusResponse{Status: "saved"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "bad_request", "Missing path")
		return
	}

	if err := h.router.Delete(r.Context(), path); err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

type copyRequest struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

func (h *Handler) handleCopy(w http.ResponseWriter, r *http.Request) {
	var req copyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Src == "" || req.Dst == "" {
		WriteError(w, http.StatusBadRequest, "bad_request", "Missing src or dst")
		return
	}

	if err := h.router.Copy(r.Context(), req.Src, req.Dst); err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, StatusResponse{Status: "copied"})
}

type renameRequest struct {
	Path    string `json:"path"`
	NewName string `json:"newName"`
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" || req.NewName == "" {
		WriteError(w, http.StatusBadRequest, "bad_request", "Missing path or newName")
		return
	}

	if err := h.router.Rename(r.Context(), req.Path, req.NewName); err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, StatusResponse{Status: "renamed"})
}

type createRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Mime string `json:"mime,omitempty"`
}

func (h *Handler) handleMkdir(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		WriteError(w, http.StatusBadRequest, "bad_request", "Missing path or name")
		return
	}

	if err := h.router.Mkdir(r.Context(), req.Path, req.Name); err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, StatusResponse{Status: "created"})
}

func (h *Handler) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		WriteError(w, http.StatusBadRequest, "bad_request", "Missing path or name")
		return
	}

	mime := req.Mime
	if mime == "" {
		mime = probe.MimeByName(req.Name)
	}

	if err := h.router.CreateFile(r.Context(), req.Path, req.Name, mime); err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, StatusResponse{Status: "created"})
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
