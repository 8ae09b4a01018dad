// Package main is the entry point for the desk planner service.
// It arranges flat and curved virtual monitors above a virtual desk and
// serves their derived geometry, label textures and a top-view drawing.
//
// 12-Factor App compliance:
//   - III. Config: Configuration via environment variables
//   - VII. Port Binding: Self-contained HTTP server
//   - IX. Disposability: Graceful shutdown
//   - XI. Logs: Structured logging to stdout
//
// Usage:
//
//	go run ./cmd/desk-planner
//
// Environment Variables:
//
//	DESK_ENVIRONMENT      - Deployment environment (development, staging, production)
//	DESK_SERVER_PORT      - HTTP server port (default: 8080)
//	DESK_LOG_LEVEL        - Minimum log level (default: info)
//	DESK_GEOMETRY_UNIT_SCALE - Scene units per inch of diagonal (default: 25.4)
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hapkiduki/desk-planner/internal/application/port"
	"github.com/hapkiduki/desk-planner/internal/application/service"
	"github.com/hapkiduki/desk-planner/internal/domain/geometry"
	"github.com/hapkiduki/desk-planner/internal/domain/repository"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/config"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/logging"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/persistance/memory"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/render"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/scene"
	"github.com/hapkiduki/desk-planner/internal/interfaces/http/handler"
	"github.com/hapkiduki/desk-planner/internal/interfaces/http/middleware"
	"github.com/hapkiduki/desk-planner/pkg/logger"
)

// version is set at build time via ldflags
var version = "dev"

// startTime tracks when the server started for uptime calculations
var startTime = time.Now()

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "desk-planner: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCfg := logger.DefaultConfig()
	if cfg.Log.Level != "" {
		logCfg.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	logCfg.Development = cfg.App.Environment == "development"

	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting desk planner",
		"version", version,
		"environment", cfg.App.Environment,
	)

	// Create context that listens for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logAdapter := logging.New(log)

	repo := memory.NewMonitorRepository()
	sceneGraph := scene.NewMemory()
	svc, err := newLayoutService(cfg, repo, sceneGraph, logging.New(log.Named("layout")))
	if err != nil {
		return err
	}

	r := newRouter(cfg, svc, repo, sceneGraph, logAdapter)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		return err
	}
	log.Info("Server shutdown complete")
	return nil
}

// newLayoutService builds the geometry core and its adapters from config.
func newLayoutService(cfg *config.Config, repo repository.MonitorRepository, sceneGraph port.SceneRenderer, log port.Logger) (*service.LayoutService, error) {
	labels, err := render.NewLabelRenderer(render.LabelOptions{
		Width:    cfg.Render.LabelWidth,
		FontSize: cfg.Render.LabelFontSize,
	})
	if err != nil {
		return nil, err
	}

	layoutOpts := render.DefaultLayoutOptions()
	layoutOpts.Scale = cfg.Render.LayoutScale
	layoutOpts.DeskWidth = cfg.Desk.Width
	layoutOpts.DeskDepth = cfg.Desk.Depth
	layoutOpts.DeskFront = cfg.Desk.Front

	return service.NewLayoutService(service.Dependencies{
		Repository: repo,
		Deriver: geometry.NewDeriver(geometry.Options{
			UnitScale:     cfg.Geometry.UnitScale,
			BodyThickness: cfg.Geometry.BodyThickness,
			ScreenGap:     cfg.Geometry.ScreenGap,
		}),
		Placement: geometry.PlacementPolicy{
			DeskTop:        cfg.Desk.TopHeight,
			StandClearance: cfg.Desk.StandClearance,
			SpawnDistance:  cfg.Desk.SpawnDistance,
			SpawnSpacing:   cfg.Desk.SpawnSpacing,
		},
		Scene:       sceneGraph,
		Labels:      labels,
		Layout:      render.NewLayoutSVG(layoutOpts),
		Logger:      log,
		MaxMonitors: cfg.Desk.MaxMonitors,
	}), nil
}

// newRouter assembles the middleware stack and routes.
func newRouter(cfg *config.Config, svc *service.LayoutService, repo repository.MonitorRepository, sceneGraph *scene.Memory, log port.Logger) http.Handler {
	r := chi.NewRouter()

	// Order matters! Middleware is executed in the order added.
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-API-Version", "Location"},
		MaxAge:         300,
	}))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.APIVersion(version))
	r.Use(middleware.MaxBodySize(cfg.Server.MaxRequestSize))
	r.Use(middleware.ContentTypeJSON)

	r.Method(http.MethodGet, "/health", handler.NewHealthHandler(version, startTime, map[string]handler.HealthCheck{
		"repository": func(ctx context.Context) (string, error) {
			n, err := repo.Count(ctx)
			return fmt.Sprintf("%d monitors", n), err
		},
		"scene": func(context.Context) (string, error) {
			return fmt.Sprintf("%d nodes", sceneGraph.Len()), nil
		},
	}))

	r.Mount("/api/v1", handler.NewMonitorHandler(svc, log, version).Routes())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "The requested resource was not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The requested method is not allowed for this resource")
	})
	return r
}
