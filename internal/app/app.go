// Package app assembles the service: configuration, logging, the validation
// pipeline, the HTTP router, and graceful shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"csvcert/internal/config"
	"csvcert/internal/engine"
	apierrors "csvcert/internal/errors"
	"csvcert/internal/infrastructure"
	"csvcert/internal/middleware"
	"csvcert/internal/regulation"
	"csvcert/internal/services"
	"csvcert/internal/store"
	handlers "csvcert/internal/transport/http"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Application is the composed service.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
	Router *chi.Mux
	Server *http.Server

	store       *store.Store
	service     *services.ValidationService
	closeLogger func() error
}

// New loads configuration from configPath (may be empty) and wires every
// component.
func New(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, closeLogger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port),
		slog.String("upload_dir", cfg.Upload.TempDir))

	uploadStore, err := store.New(cfg.Upload.TempDir, cfg.Upload.RetentionTTL, logger)
	if err != nil {
		closeLogger()
		return nil, fmt.Errorf("initialize upload store: %w", err)
	}

	eng := engine.New(
		engine.WithWorkers(cfg.Validation.Workers),
		engine.WithSequentialThreshold(cfg.Validation.SequentialThreshold),
	)
	service := services.NewValidationService(cfg, regulation.NewRegistry(), eng, uploadStore, logger)

	a := &Application{
		Config:      cfg,
		Logger:      logger,
		store:       uploadStore,
		service:     service,
		closeLogger: closeLogger,
	}
	a.setupRouter()

	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	return a, nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)
	validation := middleware.NewValidationMiddleware(a.Logger, errorHandler)

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(a.Logger))
	r.Use(middleware.Recoverer(a.Logger, errorHandler))
	r.Use(middleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
		}))
	}
	if a.Config.Security.RateLimit.Enabled {
		r.Use(middleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
			errorHandler,
		).Handler)
	}
	r.Use(middleware.Timeout(a.Config.Server.RequestTimeout))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	validationHandler := handlers.NewValidationHandler(
		a.service, validation, a.Logger, errorHandler, a.Config.Upload.MaxFileSize)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", handlers.NewHealthHandler(Version).Routes())
		r.Mount("/", validationHandler.Routes())
	})

	a.Router = r
}

// Start begins serving and launches the upload sweeper. It does not block.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) {
	a.store.StartSweeper(ctx, a.Config.Upload.SweepInterval)

	go func() {
		a.Logger.InfoContext(ctx, "http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
}

// Stop drains in-flight requests and closes the logger.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.Logger.InfoContext(ctx, "shutdown complete")
	if a.closeLogger != nil {
		return a.closeLogger()
	}
	return nil
}

// Run serves until an interrupt or fatal server error, then shuts down
// gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.Start(ctx, cancel)

	select {
	case sig := <-sigChan:
		a.Logger.Info("received signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
