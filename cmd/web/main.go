package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/schema"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	loadTimeout   = 2 * time.Minute
	cacheControl  = "no-cache"
)

// dashboardHandler renders the page shell with the filter options of the
// dataset currently loaded.
func dashboardHandler(analytics *services.Analytics, display config.DisplayConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		page := templates.NewPage(
			analytics.Dataset().Source,
			analytics.Options(),
			models.GroupByMonth,
			display.TopN,
			display.USDRate,
			display.ShowUSD,
		)

		w.Header().Set("Cache-Control", cacheControl)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Dashboard(page).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newLoader(cfg config.DataConfig, logger *slog.Logger) (*ingest.Loader, error) {
	lc := ingest.Config{
		Sheet:         cfg.SheetName,
		StrictNumbers: cfg.StrictNumbers,
		CacheDir:      cfg.CacheDir,
		Logger:        logger,
	}
	if cfg.SchemaFile != "" {
		profile, err := schema.LoadProfile(cfg.SchemaFile)
		if err != nil {
			return nil, err
		}
		lc.Profile = &profile
	}
	return ingest.NewLoader(lc), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	loader, err := newLoader(cfg.Data, logger)
	if err != nil {
		logger.Error("failed to load schema profile", "file", cfg.Data.SchemaFile, "error", err)
		os.Exit(1)
	}

	analytics := services.NewAnalytics(loader)
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	start := time.Now()
	if err := analytics.LoadFromFile(ctx, cfg.Data.SourceFile); err != nil {
		logger.Error("failed to load sales data", "file", cfg.Data.SourceFile, "error", err)
		os.Exit(1)
	}
	logger.Info("sales data loaded",
		"file", cfg.Data.SourceFile,
		"records", analytics.Dataset().Len(),
		"duration", time.Since(start),
	)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics, cfg.Display),
	}

	srv := server.NewServer(analytics, cfg.Display, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server.ShutdownTimeout)

	gracefulServer.RegisterReloadHook(func(ctx context.Context) error {
		if err := analytics.Reload(ctx); err != nil {
			return err
		}
		logger.Info("sales data reloaded", "records", analytics.Dataset().Len())
		return nil
	})
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service", "stats", analytics.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
