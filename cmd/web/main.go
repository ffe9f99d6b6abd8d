package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"bizops-dashboard/internal/config"
	"bizops-dashboard/internal/llm"
	"bizops-dashboard/internal/middleware"
	"bizops-dashboard/internal/observability"
	"bizops-dashboard/internal/server"
	"bizops-dashboard/internal/services"
	"bizops-dashboard/internal/store"
	"bizops-dashboard/internal/ui/templates"
)

const (
	appVersion    = "1.0.0"
	pageTitle     = "Tariff Impact Dashboard"
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

// dashboardPage renders the page shell. Everything data-driven is patched in
// over SSE once the page loads.
func dashboardPage(page templates.PageData) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(page).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

type app struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// newApp wires the services, routes and middleware around an already loaded
// store and text provider.
func newApp(cfg *config.Config, data *store.Store, provider llm.Provider, logger *slog.Logger) (*app, error) {
	metrics := observability.NewMetrics()

	dashboard, err := services.NewDashboard(data, cfg.Scenario.Country, metrics, logger)
	if err != nil {
		return nil, err
	}
	advisor := services.NewAdvisor(provider, data, cfg.LLM.Timeout, metrics, logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardPage(templates.PageData{
			Title:          pageTitle,
			BusinessUnits:  dashboard.BusinessUnits(),
			DefaultCountry: dashboard.DefaultCountry(),
			Provider:       provider.Name(),
		}),
	}

	srv := server.NewServer(dashboard, advisor, metrics, logger, templateHandlers)
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.Metrics(metrics, srv.Route),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return &app{
		handler:     middlewareChain(srv),
		rateLimiter: rateLimiter,
	}, nil
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
		"version", appVersion,
		"server", cfg.Server,
		"datasets", cfg.Datasets,
		"llm", cfg.LLM.String(),
	)

	ctx := context.Background()

	data, err := store.Load(ctx, cfg.Datasets, logger)
	if err != nil {
		logger.Error("failed to load datasets", "error", err)
		os.Exit(1)
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM)
	if err != nil {
		logger.Error("failed to create text provider", "provider", cfg.LLM.Provider, "error", err)
		os.Exit(1)
	}

	a, err := newApp(cfg, data, provider, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	go a.rateLimiter.Run(sweepCtx)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook("rate-limiter", func(ctx context.Context) error {
		stopSweep()
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
