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
	"github.com/robfig/cron/v3"

	"cmxcli/internal/config"
	apierrors "cmxcli/internal/errors"
	"cmxcli/internal/importer"
	"cmxcli/internal/infrastructure"
	customMiddleware "cmxcli/internal/middleware"
	"cmxcli/internal/newsletter"
	"cmxcli/internal/risk"
	"cmxcli/internal/services"
	"cmxcli/internal/snapshot"
	handlers "cmxcli/internal/transport/http"
	ws "cmxcli/internal/websocket"
)

const (
	// AppName is the application display name
	AppName = "CMX Pulse"
	// Version is the application version
	Version = "v1.0.0"
)

// Application wires configuration, services, transport, and the analysis
// scheduler together.
type Application struct {
	Config *config.Config
	Router *chi.Mux
	Server *http.Server

	Store         *snapshot.Store
	Engine        *risk.Engine
	Hub           *ws.Hub
	RiskService   *services.RiskService
	HealthService *services.HealthService
	Importer      *importer.Importer
	Newsletter    *newsletter.Generator

	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.Metrics

	scheduler *cron.Cron
	otelMW    *customMiddleware.OTelMiddleware
}

// NewApplication creates a fully wired application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	if err := app.setupScheduler(); err != nil {
		return nil, fmt.Errorf("failed to set up scheduler: %w", err)
	}

	return app, nil
}

// initializeServices builds the store, engine, hub, and service layer
func (a *Application) initializeServices() error {
	otelMW, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("create otel middleware: %w", err)
	}
	a.otelMW = otelMW
	a.Metrics = otelMW.Metrics()

	store, err := snapshot.NewStore(a.Config.Paths.DataDir, a.Logger)
	if err != nil {
		return fmt.Errorf("create snapshot store: %w", err)
	}
	a.Store = store

	engine, err := risk.NewEngine(a.Config.Risk.EngineConfig())
	if err != nil {
		return fmt.Errorf("create risk engine: %w", err)
	}
	a.Engine = engine

	a.Hub = ws.NewHub(a.Logger, a.Metrics)

	a.RiskService = services.NewRiskService(store, engine, a.Hub, a.Metrics, a.Logger)
	a.HealthService = services.NewHealthService(Version, a.Config.Paths, a.Hub, a.Logger)
	a.Importer = importer.New(store, a.Metrics, a.Logger)

	gen, err := newsletter.New(a.Config.Paths.ReportsDir, a.Logger)
	if err != nil {
		return fmt.Errorf("create newsletter generator: %w", err)
	}
	a.Newsletter = gen

	return nil
}

// setupRouter configures the chi router and all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that won't interfere with the websocket upgrade
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// WebSocket route outside the full middleware group
	wsHandler := ws.NewHandler(a.Hub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).
		Handle("/ws", wsHandler)

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Group(func(r chi.Router) {
		r.Use(a.otelMW.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(errorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r, errorHandler)

		// Dashboard page
		r.Get("/", handlers.ServeDashboard(a.Config.Paths.WebDir))
	})

	// Prometheus endpoint outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures the API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)

			validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)
			riskHandler := handlers.NewRiskHandler(a.RiskService, a.Logger, errorHandler, validation)
			r.Mount("/risk", riskHandler.Routes())

			inventoryHandler := handlers.NewInventoryHandler(a.RiskService, a.Logger, errorHandler)
			r.Mount("/inventory", inventoryHandler.Routes())
		})

		// Import and refresh can outlive the standard request timeout
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(5*time.Minute, a.Logger))

			opsHandler := handlers.NewOperationsHandler(
				a.RiskService, a.Importer, a.Config.Paths.ImportDir, a.Logger, errorHandler)
			r.Mount("/operations", opsHandler.Routes())
		})
	})
}

// createServer builds the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// setupScheduler registers the daily analysis cycle with cron
func (a *Application) setupScheduler() error {
	a.scheduler = cron.New()

	_, err := a.scheduler.AddFunc(a.Config.Schedule.RefreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := a.RunAnalysisCycle(ctx); err != nil {
			a.Logger.Error("scheduled analysis cycle failed",
				slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", a.Config.Schedule.RefreshSpec, err)
	}

	return nil
}

// RunAnalysisCycle performs one full cycle: import report files, refresh all
// risk scores (which broadcasts to connected clients), and write the daily
// digest.
func (a *Application) RunAnalysisCycle(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "analysis cycle starting")

	result, err := a.Importer.ImportDir(ctx, a.Config.Paths.ImportDir)
	if err != nil {
		return fmt.Errorf("analysis cycle import: %w", err)
	}

	rows, err := a.RiskService.RefreshAll(ctx)
	if err != nil {
		return fmt.Errorf("analysis cycle refresh: %w", err)
	}

	inventory := make(map[snapshot.Metal]snapshot.InventorySnapshot)
	for _, row := range rows {
		inv, err := a.Store.LatestInventory(ctx, row.Metal)
		if err != nil {
			continue
		}
		inventory[row.Metal] = inv
	}

	if _, err := a.Newsletter.Generate(rows[0].Date, rows, inventory); err != nil {
		a.Logger.WarnContext(ctx, "digest generation failed",
			slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "analysis cycle complete",
		slog.Int("files_processed", result.FilesProcessed),
		slog.Int("metals_scored", len(rows)))
	return nil
}

// Start starts background services and the HTTP server
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("data_dir", a.Config.Paths.DataDir))

	a.Hub.Start()
	a.scheduler.Start()

	if a.Config.Schedule.ImportOnStart {
		go func() {
			cycleCtx, cycleCancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cycleCancel()
			if err := a.RunAnalysisCycle(cycleCtx); err != nil {
				a.Logger.WarnContext(cycleCtx, "startup analysis cycle failed",
					slog.String("error", err.Error()))
			}
		}()
	}

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

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	// Let an in-flight scheduled cycle finish
	<-a.scheduler.Stop().Done()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Hub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry",
				slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "error closing log file",
			slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
