package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dealpulse/internal/config"
	"dealpulse/internal/dataprocessing"
	apierrors "dealpulse/internal/errors"
	"dealpulse/internal/exporter"
	"dealpulse/internal/infrastructure"
	customMiddleware "dealpulse/internal/middleware"
	"dealpulse/internal/services"
	handlers "dealpulse/internal/transport/http"
	"dealpulse/internal/validation"
	ws "dealpulse/internal/websocket"
	"dealpulse/internal/workbook"
	"dealpulse/pkg/contracts"
	"dealpulse/pkg/contracts/domain"
	"dealpulse/pkg/contracts/events"
)

const AppName = "DealPulse - MedTech Deal Dashboard"

// Application is the main dependency container.
type Application struct {
	Config       *config.Config
	Router       *chi.Mux
	Server       *http.Server
	Store        *workbook.Store
	WebSocketHub *ws.Hub
	Metrics      *infrastructure.Metrics
	DealService  *services.DealService
	UploadSvc    *services.UploadService
	HealthSvc    *services.HealthService
	Logger       *slog.Logger
}

// NewApplication loads configuration and wires every component.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewApplicationWithConfig(cfg)
}

// NewApplicationWithConfig wires the application around an existing config,
// which tests use to point at temporary directories.
func NewApplicationWithConfig(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", cfg.Server.Port))

	metrics := infrastructure.NewMetrics()

	loader := workbook.NewLoader(logger)
	store := workbook.NewStore(logger, loader, workbook.StoreConfig{
		Path:       cfg.Data.WorkbookFile,
		BackupsDir: cfg.Data.BackupsDir,
	})

	// A missing workbook is not fatal. The service starts degraded and an
	// upload can bootstrap the dataset.
	if err := store.Load(); err != nil {
		logger.Warn("workbook not loaded at startup",
			slog.String("path", cfg.Data.WorkbookFile),
			slog.String("error", err.Error()))
	}

	fileValidator := validation.NewFileValidator(logger)

	summarizer := dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig())
	dealService := services.NewDealService(logger, store, summarizer)
	uploadService := services.NewUploadService(logger, store, loader, fileValidator, services.UploadConfig{
		Password:      cfg.Security.UploadPassword,
		MaxUploadSize: cfg.Data.MaxUploadSize,
	})
	healthService := services.NewHealthService(logger, store, cfg.Data.WorkbookFile)

	hub := ws.NewHub(logger)
	hub.SetClientCounter(metrics)

	app := &Application{
		Config:       cfg,
		Store:        store,
		WebSocketHub: hub,
		Metrics:      metrics,
		DealService:  dealService,
		UploadSvc:    uploadService,
		HealthSvc:    healthService,
		Logger:       logger,
	}

	app.publishDatasetMetrics()
	app.Router = app.setupRouter()
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// setupRouter builds the chi middleware chain and mounts every handler.
func (a *Application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(a.Metrics.Middleware)
	r.Use(apierrors.NewErrorMiddleware(errorHandler, a.Logger).Handler)
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.StripSlashes)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
		}))
	}
	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	dealHandler := handlers.NewDealHandler(a.DealService, a.Logger, errorHandler)
	exportHandler := handlers.NewExportHandler(a.DealService,
		exporter.NewCSVWriter(a.Logger, a.Config.Data.ExportsDir),
		a.Logger, errorHandler)
	uploadHandler := handlers.NewUploadHandler(a.UploadSvc, a.Metrics,
		a.Config.Data.MaxUploadSize, a.Logger, errorHandler)
	healthHandler := handlers.NewHealthHandler(a.HealthSvc, a.Logger)

	validationMw := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Compress(5))
		r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))
		r.Use(validationMw.ValidateRequest)

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)
		r.Get("/summary", dealHandler.GetAllSummaries)
		r.Get("/filters", dealHandler.GetFilters)

		r.Mount("/deals", dealHandler.Routes())
		r.Mount("/export", exportHandler.Routes())
		r.Route("/upload", func(r chi.Router) {
			r.Use(customMiddleware.ContentTypeValidator("multipart/form-data"))
			r.Mount("/", uploadHandler.Routes())
		})
	})

	r.Handle("/metrics", a.Metrics.Handler())

	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(a.WebSocketHub, w, r)
	})

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	return r
}

// watchStore forwards workbook change notifications to websocket clients
// and refreshes the dataset gauges.
func (a *Application) watchStore(ctx context.Context) {
	changes := a.Store.Subscribe()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				a.publishDatasetMetrics()
				ds := a.Store.Snapshot()
				a.WebSocketHub.BroadcastDatasetUpdated(events.DatasetUpdate{
					TotalRows: ds.TotalRows(),
					Source:    "upload",
				})
				a.Logger.Info("dataset update broadcast",
					slog.Int("total_rows", ds.TotalRows()))
			}
		}
	}()
}

func (a *Application) publishDatasetMetrics() {
	ds := a.Store.Snapshot()
	for _, kind := range domain.DealKinds {
		a.Metrics.SetDatasetRows(string(kind), len(ds.Records(kind)))
	}
}

// Start launches the hub, the store watcher and the HTTP server.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	go a.WebSocketHub.Run()
	a.watchStore(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully shuts the application down.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Shutdown()
	infrastructure.CloseLogFile()

	a.Logger.InfoContext(ctx, "application stopped")
	return nil
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		a.Logger.Info("signal received", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
