package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stremer/stremerd"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusResponse is the body returned by mutation endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError maps a storage or capture failure onto the HTTP taxonomy. The
// lower layers never throw across their boundary, so everything arriving
// here is a sentinel or an internal fault.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stremerd.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
	case errors.Is(err, stremerd.ErrInvalidPath):
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
	case errors.Is(err, stremerd.ErrExists):
		WriteError(w, http.StatusBadRequest, "already_exists", "Name already exists")
	case errors.Is(err, stremerd.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing token")
	case errors.Is(err, stremerd.ErrNotConfigured):
		WriteError(w, http.StatusServiceUnavailable, "not_configured", "No storage configured")
	default:
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
