package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/stremer/stremerd/camera"
	"github.com/stremer/stremerd/metrics"
)

const (
	frameWait = 1200 * time.Millisecond
	// maxFrameMisses consecutive empty waits end a camera stream.
	maxFrameMisses = 3

	streamBoundary = "frame"
)

func parseCameraParams(r *http.Request) (camera.Params, error) {
	lens, err := camera.ParseLens(r.URL.Query().Get("lens"))
	if err != nil {
		return camera.Params{}, err
	}

	return camera.Params{
		Lens:         lens,
		ExposureBias: queryInt(r, "brightness", 0),
		Sharpness:    queryInt(r, "sharpness", 50),
	}, nil
}

// cameraGate answers the shared preconditions: the runtime toggle (403 when
// off) and engine presence (503 when no capture device exists).
func (h *Handler) cameraGate(w http.ResponseWriter) bool {
	if !h.cameraEnabled.Load() {
		WriteError(w, http.StatusForbidden, "forbidden", "Camera is disabled")
		return false
	}
	if h.engine == nil {
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "No capture device")
		return false
	}
	return true
}

// handleSnapshot starts the capture engine if needed and returns the next
// single frame. The session is left running for subsequent requests.
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !h.cameraGate(w) {
		return
	}

	params, err := parseCameraParams(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if err := h.engine.Start(r.Context(), params); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "Camera could not be opened")
		return
	}

	frame, ok := h.engine.NextFrame(frameWait)
	if !ok {
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "No frame available")
		return
	}

	metrics.RecordCameraFrame()
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(frame)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame)
}

// handleCameraStream writes a multipart/x-mixed-replace feed of JPEG parts
// until the client disconnects or three consecutive frame waits come back
// empty. Either way the capture engine is stopped on exit.
func (h *Handler) handleCameraStream(w http.ResponseWriter, r *http.Request) {
	if !h.cameraGate(w) {
		return
	}

	params, err := parseCameraParams(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if err := h.engine.Start(r.Context(), params); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "Camera could not be opened")
		return
	}
	defer h.engine.Stop()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)

	misses := 0
	for {
		if r.Context().Err() != nil {
			return
		}

		frame, ok := h.engine.NextFrame(frameWait)
		if !ok {
			misses++
			if misses >= maxFrameMisses {
				return
			}
			continue
		}
		misses = 0

		if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", streamBoundary, len(frame)); err != nil {
			return
		}
		if _, err := w.Write(frame); err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
			return
		}

		metrics.RecordCameraFrame()
		if flusher != nil {
			flusher.Flush()
		}
	}
}
