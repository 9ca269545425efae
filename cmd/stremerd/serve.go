package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stremer/stremerd"
	"github.com/stremer/stremerd/camera"
	"github.com/stremer/stremerd/config"
	"github.com/stremer/stremerd/credentials"
	"github.com/stremer/stremerd/database"
	"github.com/stremer/stremerd/filesystem"
	stremerhttp "github.com/stremer/stremerd/http"
	"github.com/stremer/stremerd/scoped"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the Stremerd HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
	serveCmd.Flags().Bool("camera", false, "enable the camera endpoints")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("camera.enabled", serveCmd.Flags().Lookup("camera"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var configFiles []string
	if f, _ := cmd.Flags().GetString("config"); f != "" {
		configFiles = []string{f}
	}
	cfg, err := config.Load(configFiles, cmd.Flags())
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)

	db, err := database.Open(ctx, cfg.Storage.Database)
	if err != nil {
		return fmt.Errorf("open media index: %w", err)
	}
	defer func() { _ = db.Close() }()

	router, err := buildRouter(ctx, cfg, db)
	if err != nil {
		return err
	}

	engine := buildEngine(cfg)

	creds := credentials.NewStaticStore(cfg.Auth.Enabled, cfg.Auth.Username, cfg.Auth.Password)
	registry := stremerd.NewRegistry()

	handlerConfig := stremerhttp.HandlerConfig{
		CORS:          cfg.CORS,
		CameraEnabled: cfg.Camera.Enabled,
	}
	handler := stremerhttp.NewHandler(&handlerConfig, router, engine, creds, registry)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     handler.Router(),
		ReadTimeout: 30 * time.Second,
		// No write timeout: media and camera streams are long-lived.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		if engine != nil {
			engine.Stop()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr,
		"storage_configured", router.IsConfigured(),
		"camera_enabled", cfg.Camera.Enabled)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// buildRouter selects the storage variant once for the process lifetime:
// direct-path when a base path is configured, else the permission-tree
// backend over the persisted roots.
func buildRouter(ctx context.Context, cfg *config.Config, db *database.DB) (*stremerd.Router, error) {
	if basePath := cfg.Storage.BasePath; basePath != "" {
		if err := os.MkdirAll(basePath, 0o750); err != nil {
			return nil, fmt.Errorf("create base directory: %w", err)
		}
		root, err := os.OpenRoot(basePath)
		if err != nil {
			return nil, fmt.Errorf("open base directory: %w", err)
		}
		slog.Info("using direct-path backend", "base", basePath)
		return stremerd.NewDirectRouter(filesystem.NewStore(root)), nil
	}

	router := stremerd.NewScopedRouter()

	roots, err := db.ListRoots(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore storage roots: %w", err)
	}

	for _, r := range roots {
		osRoot, err := os.OpenRoot(r.Path)
		if err != nil {
			slog.Warn("skipping unreachable storage root", "name", r.Name, "path", r.Path, "err", err)
			continue
		}
		store := scoped.NewStore(osRoot, db.Index(r.Name))
		used := router.AddRoot(r.Name, filepath.Base(filepath.Dir(r.Path)), store)
		slog.Info("restored storage root", "name", used, "path", r.Path)
	}

	return router, nil
}

// buildEngine assembles the capture devices from configuration. Returns nil
// when no capture command is configured; camera endpoints then answer 503.
func buildEngine(cfg *config.Config) *camera.Engine {
	tiers := []camera.SharpnessTier{camera.SharpnessOff, camera.SharpnessFast, camera.SharpnessHighQuality}

	var devices []camera.Device
	if cmd := cfg.Camera.BackCommand; len(cmd) > 0 {
		devices = append(devices, camera.NewPipeDevice(camera.Capabilities{
			Lens:           camera.LensBack,
			ExposureMin:    cfg.Camera.ExposureMin,
			ExposureMax:    cfg.Camera.ExposureMax,
			SharpnessTiers: tiers,
		}, cmd))
	}
	if cmd := cfg.Camera.FrontCommand; len(cmd) > 0 {
		devices = append(devices, camera.NewPipeDevice(camera.Capabilities{
			Lens:           camera.LensFront,
			ExposureMin:    cfg.Camera.ExposureMin,
			ExposureMax:    cfg.Camera.ExposureMax,
			SharpnessTiers: tiers,
		}, cmd))
	}

	if len(devices) == 0 {
		return nil
	}
	return camera.NewEngine(devices...)
}
