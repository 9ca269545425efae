package http

import (
	"net/http"
	"strconv"

	"github.com/stremer/stremerd"
	"github.com/stremer/stremerd/probe"
)

// metaResponse is the best-effort metadata envelope. Fields the probe could
// not determine are null, never an error.
type metaResponse struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Mime         string `json:"mime"`
	Size         *int64 `json:"size"`
	LastModified *int64 `json:"lastModified"`
	Width        *int   `json:"width,omitempty"`
	Height       *int   `json:"height,omitempty"`
	DurationMs   *int64 `json:"durationMs,omitempty"`
	ItemCount    *int   `json:"itemCount,omitempty"`
}

// handleMeta shapes a metadata response around the stat result and whatever
// the media probe can add. Probe failures degrade to partial metadata.
func (h *Handler) handleMeta(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	item, err := h.router.Stat(r.Context(), path)
	if err != nil {
		HandleError(w, err)
		return
	}

	resp := metaResponse{
		Name:         item.Name,
		Type:         string(item.Kind),
		Size:         item.Size,
		LastModified: item.LastModified,
	}

	if item.Kind == stremerd.KindDir {
		count := 0
		if seq, err := h.router.List(r.Context(), path, 0, 0); err == nil {
			for range seq {
				count++
			}
		}
		resp.ItemCount = &count
		_ = WriteJSON(w, http.StatusOK, resp)
		return
	}

	resp.Mime = probe.MimeByName(item.Name)

	if src, err := h.router.OpenRead(r.Context(), path); err == nil {
		info := h.prober.Probe(item.Name, src)
		_ = src.Close()
		resp.Width = info.Width
		resp.Height = info.Height
		resp.DurationMs = info.DurationMs
	}

	_ = WriteJSON(w, http.StatusOK, resp)
}

// handleThumb always answers with a JPEG: a downscaled rendition when the
// source decodes, a labeled placeholder tile otherwise.
func (h *Handler) handleThumb(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	item, err := h.router.Stat(r.Context(), path)
	if err != nil {
		HandleError(w, err)
		return
	}
	if item.Kind != stremerd.KindFile {
		WriteError(w, http.StatusUnsupportedMediaType, "unsupported", "Thumbnails are only available for files")
		return
	}

	width := queryInt(r, "w", 256)
	height := queryInt(r, "h", 256)

	var data []byte
	if src, err := h.router.OpenRead(r.Context(), path); err == nil {
		data = h.thumbs.Thumbnail(item.Name, src, width, height)
		_ = src.Close()
	} else {
		data = h.thumbs.Placeholder(item.Name, width, height)
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=604800")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
