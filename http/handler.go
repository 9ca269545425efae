// Package http is the protocol layer: routing, bearer authentication,
// request parsing, and response framing over the storage router and the
// capture engine. Results stream back incrementally; nothing here buffers a
// whole directory or file in memory.
package http

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/stremer/stremerd"
	"github.com/stremer/stremerd/camera"
	"github.com/stremer/stremerd/credentials"
	"github.com/stremer/stremerd/metrics"
	"github.com/stremer/stremerd/probe"
)

// ServerName identifies this server in the /ping response.
const ServerName = "stremerd"

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS          CORSConfig
	CameraEnabled bool
}

// Handler provides the HTTP handlers of the serving engine.
type Handler struct {
	router   *stremerd.Router
	engine   *camera.Engine
	creds    credentials.Store
	tokens   *TokenStore
	registry *stremerd.Registry
	prober   probe.Prober
	thumbs   *probe.Thumbnailer
	cors     CORSConfig

	cameraEnabled atomic.Bool
}

// NewHandler wires the protocol layer over its collaborators. engine may be
// nil when no capture device exists; camera endpoints then answer 503.
func NewHandler(cfg *HandlerConfig, router *stremerd.Router, engine *camera.Engine,
	creds credentials.Store, registry *stremerd.Registry) *Handler {
	h := &Handler{
		router:   router,
		engine:   engine,
		creds:    creds,
		tokens:   NewTokenStore(),
		registry: registry,
		prober:   probe.ImageProber{},
		thumbs:   probe.NewThumbnailer(),
		cors:     cfg.CORS,
	}
	h.cameraEnabled.Store(cfg.CameraEnabled)
	return h
}

// SetCameraEnabled flips the runtime camera toggle.
func (h *Handler) SetCameraEnabled(on bool) {
	h.cameraEnabled.Store(on)
}

// Tokens exposes the token store, used by tests and by hosts that need to
// pre-seed a token.
func (h *Handler) Tokens() *TokenStore {
	return h.tokens
}

// Router builds the route tree. Three auth tiers: public endpoints, the
// stream endpoint (header-or-query token), and everything else (header
// only).
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.cors.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.cors.AllowedOrigins,
			AllowedMethods:   h.cors.AllowedMethods,
			AllowedHeaders:   h.cors.AllowedHeaders,
			ExposedHeaders:   h.cors.ExposedHeaders,
			AllowCredentials: h.cors.AllowCredentials,
			MaxAge:           h.cors.MaxAge,
		}))
	}

	r.Use(TelemetryMiddleware(h.registry))

	r.Get("/ping", h.handlePing)
	r.Post("/auth/login", h.handleLogin)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.creds, h.tokens, true))
		r.Get("/stream", h.handleStream)
		r.Head("/stream", h.handleStream)
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.creds, h.tokens, false))

		r.Get("/files", h.handleFiles)
		r.Put("/file", h.handleUpload)
		r.Delete("/file", h.handleDelete)
		r.Post("/copy", h.handleCopy)
		r.Post("/rename", h.handleRename)
		r.Post("/mkdir", h.handleMkdir)
		r.Post("/createFile", h.handleCreateFile)

		r.Get("/search", h.handleSearch)
		r.Get("/meta", h.handleMeta)
		r.Get("/thumb", h.handleThumb)

		r.Get("/camera/snapshot", h.handleSnapshot)
		r.Get("/camera/stream", h.handleCameraStream)

		r.Get("/clients", h.handleClients)
	})

	return r
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{
		"server": ServerName,
		"status": "ok",
	})
}

// handleClients reports the recent-login registry for the control surface.
func (h *Handler) handleClients(w http.ResponseWriter, r *http.Request) {
	clients := h.registry.Clients()
	if clients == nil {
		clients = []stremerd.ClientRecord{}
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"clients":        clients,
		"activeRequests": h.registry.ActiveRequests(),
	})
}
