package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"radiomics/internal/config"
	"radiomics/internal/dataprocessing"
	apierrors "radiomics/internal/errors"
	"radiomics/internal/exporter"
	"radiomics/internal/files"
	"radiomics/internal/infrastructure"
	customMiddleware "radiomics/internal/middleware"
	"radiomics/internal/reshape"
	"radiomics/internal/services"
	handlers "radiomics/internal/transport/http"
	"radiomics/internal/validation"
	"radiomics/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.TransformMetrics
	Store            *files.Store
	TransformService *services.TransformService
	HealthService    *services.HealthService
	ErrorHandler     *apierrors.ErrorHandler
}

// NewApplication loads configuration and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return NewApplicationWithConfig(cfg, logger)
}

// NewApplicationWithConfig wires every component from cfg.
func NewApplicationWithConfig(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("address", cfg.Server.Address()))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := app.initializeServices(); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// VocabularyFromConfig overlays the configured label lists on the default
// vocabulary. Empty lists keep the default order.
func VocabularyFromConfig(cfg config.VocabularyConfig) reshape.Vocabulary {
	v := reshape.DefaultVocabulary()
	if len(cfg.Timepoints) > 0 {
		v.Timepoints = cfg.Timepoints
	}
	if len(cfg.Objects) > 0 {
		v.Objects = cfg.Objects
	}
	if len(cfg.Series) > 0 {
		v.Series = cfg.Series
	}
	return v
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	reshaper, err := reshape.New(VocabularyFromConfig(a.Config.Vocabulary))
	if err != nil {
		return fmt.Errorf("invalid vocabulary: %w", err)
	}

	store, err := files.NewStore(
		a.Config.Storage.DownloadsDir,
		a.Config.Storage.TTL,
		[]string{exporter.FormatCSV.Extension(), exporter.FormatXLSX.Extension()},
		a.Logger,
	)
	if err != nil {
		return err
	}
	a.Store = store

	metrics, err := infrastructure.NewTransformMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	a.Metrics = metrics

	a.TransformService = services.NewTransformService(
		reshaper,
		validation.NewUploadValidator(a.Config.Upload.MaxBytes, a.Config.Upload.Extensions, a.Logger),
		dataprocessing.NewSummarizer(a.Logger, dataprocessing.SummarizerConfig{MaxColumns: a.Config.Export.StatColumns}),
		store,
		services.TransformConfig{
			SheetName:     a.Config.Upload.SheetName,
			MaxConcurrent: a.Config.Processing.MaxConcurrent,
			Timeout:       a.Config.Processing.Timeout,
			PreviewRows:   a.Config.Export.PreviewRows,
			Export: exporter.Options{
				CSV:  exporter.CSVOptions{BOMPrefix: a.Config.Export.CSVBOM},
				XLSX: exporter.XLSXOptions{SheetName: a.Config.Export.SheetName},
			},
		},
		a.OTelProviders.Tracer,
		metrics,
		a.Logger,
	)

	a.HealthService = services.NewHealthService(store.Dir(), a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	if rl := a.Config.Security.RateLimit; rl.Enabled {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
	}
	r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r)
	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	transformHandler := handlers.NewTransformHandler(a.TransformService, a.Config.Upload.MaxBytes, a.Logger, a.ErrorHandler)
	downloadHandler := handlers.NewDownloadHandler(a.Store, a.Logger, a.ErrorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		r.Get("/vocabulary", transformHandler.Vocabulary)
		r.With(customMiddleware.ContentTypeValidator("multipart/form-data")).
			Mount("/transform", transformHandler.Routes())
		r.Mount("/downloads", downloadHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:              a.Config.Server.Address(),
		Handler:           a.Router,
		ReadTimeout:       a.Config.Server.ReadTimeout,
		ReadHeaderTimeout: a.Config.Server.ReadTimeout,
		WriteTimeout:      a.Config.Server.WriteTimeout,
		IdleTimeout:       a.Config.Server.IdleTimeout,
		MaxHeaderBytes:    a.Config.Server.MaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Serve runs the janitor and serves HTTP on ln until ctx is cancelled, then
// shuts down gracefully.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		a.Store.RunJanitor(ctx, a.Config.Storage.JanitorInterval)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.Server.Serve(ln)
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", ln.Addr().String()),
		slog.String("downloads_dir", a.Store.Dir()))

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		} else {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
		}
	}

	cancel()
	<-janitorDone
	if stopErr := a.Stop(context.Background()); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until SIGINT or SIGTERM
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	start := time.Now()
	err = a.Serve(ctx, ln)
	a.Logger.Info("Application stopped", slog.Duration("uptime", time.Since(start)))
	return errors.Join(err, infrastructure.CloseLogFile())
}
