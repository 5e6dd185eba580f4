// Package app assembles the scanner server: configuration, logging, metrics,
// the websocket hub, the scan service and the HTTP router, with graceful
// startup and shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"optscan/internal/config"
	apierrors "optscan/internal/errors"
	"optscan/internal/infrastructure"
	custommw "optscan/internal/middleware"
	"optscan/internal/services"
	handlers "optscan/internal/transport/http"
	"optscan/internal/websocket"
	"optscan/pkg/contracts"
)

// Version is the version string reported by the API.
var Version = contracts.Version

// Application is the assembled scanner server.
type Application struct {
	cfg    *config.Config
	logger *slog.Logger

	metrics     *infrastructure.Metrics
	hub         *websocket.Hub
	scanService *services.ScanService

	router chi.Router
	server *http.Server
}

// NewApplication wires the application from configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	metrics := infrastructure.NewMetrics()
	hub := websocket.NewHub(logger)

	scanService := services.
		NewScanService(cfg.PipelineConfig(), cfg.Ingestion.StaleAfter, logger).
		WithObserver(hub).
		WithRecorder(metrics)

	a := &Application{
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		hub:         hub,
		scanService: scanService,
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

// Router exposes the assembled router, mainly for tests.
func (a *Application) Router() chi.Router {
	return a.router
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware first; nothing here wraps the ResponseWriter, so the
	// websocket upgrade stays hijackable.
	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	errorHandler := apierrors.NewErrorHandler(a.logger, a.cfg.Logging.Development)

	// Set before any subrouter is mounted so they inherit the problem+json
	// fallbacks.
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	wsHandler := handlers.NewWebSocketHandler(
		a.hub,
		a.cfg.Security.AllowedOrigins,
		a.cfg.WebSocket.ReadBufferSize,
		a.cfg.WebSocket.WriteBufferSize,
		a.logger,
		errorHandler,
	)
	r.Get("/ws", wsHandler.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(custommw.StructuredLogger(a.logger))
		r.Use(custommw.Recoverer(a.logger))
		r.Use(custommw.RequestMetrics(a.metrics))
		r.Use(custommw.SecurityHeaders)
		r.Use(custommw.Compress(5))

		if a.cfg.Security.EnableCORS {
			r.Use(custommw.CORS(custommw.CORSConfig{
				AllowedOrigins: a.cfg.Security.AllowedOrigins,
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
				MaxAge:         300,
			}))
		}

		if a.cfg.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.cfg.Security.RateLimit.RPS,
				a.cfg.Security.RateLimit.Burst,
				a.logger,
			).Handler)
		}

		validation := custommw.NewValidationMiddleware(a.logger, errorHandler)
		r.Use(validation.ValidateRequest)

		a.setupAPIRoutes(r, errorHandler)
	})

	// Outside the middleware group so Prometheus scrapes bypass the rate
	// limiter and request logging.
	r.Handle("/metrics", a.metrics.Handler())

	a.router = r
}

// setupAPIRoutes configures the API endpoints.
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	paths, err := config.GetPaths()
	if err != nil {
		// Path resolution already succeeded during config load; a failure
		// here leaves downloads writing next to the merged table.
		a.logger.Warn("path resolution failed, using merged table directory for reports",
			slog.String("error", err.Error()))
		reportsDir := filepath.Dir(a.cfg.Ingestion.MergedFile)
		paths.GainsCSV = filepath.Join(reportsDir, "gains.csv")
		paths.GainsXLSX = filepath.Join(reportsDir, "gains.xlsx")
	}

	r.Route("/api", func(r chi.Router) {
		healthHandler := handlers.NewHealthHandler(a.scanService, Version, a.logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		dataHandler := handlers.NewDataHandler(a.scanService, a.logger, errorHandler)
		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/gains", dataHandler.GetGains)
			r.Get("/instruments", dataHandler.GetInstruments)
			r.Get("/underlying", dataHandler.GetUnderlying)
		})

		downloadHandler := handlers.NewDownloadHandler(
			a.scanService, paths.GainsCSV, paths.GainsXLSX, a.logger, errorHandler)
		r.Mount("/download", downloadHandler.Routes())

		operationsHandler := handlers.NewOperationsHandler(
			a.scanService, a.cfg.Server.MergeTimeout, a.logger, errorHandler)
		r.Mount("/operations", operationsHandler.Routes())
	})

	if paths.WebDir != "" {
		if _, err := os.Stat(paths.WebDir); err == nil {
			r.Handle("/*", http.FileServer(http.Dir(paths.WebDir)))
		}
	}
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:        a.router,
		ReadTimeout:    a.cfg.Server.ReadTimeout,
		WriteTimeout:   a.cfg.Server.WriteTimeout,
		IdleTimeout:    a.cfg.Server.IdleTimeout,
		MaxHeaderBytes: a.cfg.Server.MaxHeaderBytes,
	}
}

// Start runs the server until the context is cancelled or the listener fails.
func (a *Application) Start(ctx context.Context) error {
	a.hub.Start()

	a.logger.Info("server starting",
		slog.String("addr", a.server.Addr),
		slog.String("version", Version),
		slog.String("source_dir", a.cfg.Ingestion.SourceDir),
		slog.String("merged_file", a.cfg.Ingestion.MergedFile))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.hub.Stop()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		return a.Stop()
	}
}

// Stop gracefully stops the server, the hub and the log file.
func (a *Application) Stop() error {
	a.logger.Info("server shutting down",
		slog.Duration("timeout", a.cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(ctx)
	a.hub.Stop()
	infrastructure.CloseLogFile()

	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Start(ctx)
}
