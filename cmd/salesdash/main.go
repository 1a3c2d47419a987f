package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/odyssey-erp/sales-dashboard/internal/app"
	"github.com/odyssey-erp/sales-dashboard/internal/dashboard"
	dashboardhttp "github.com/odyssey-erp/sales-dashboard/internal/dashboard/http"
	"github.com/odyssey-erp/sales-dashboard/internal/dashboard/ui"
	"github.com/odyssey-erp/sales-dashboard/internal/observability"
	"github.com/odyssey-erp/sales-dashboard/internal/platform/cache"
	"github.com/odyssey-erp/sales-dashboard/internal/salesapi"
	"github.com/odyssey-erp/sales-dashboard/internal/shared"
	"github.com/odyssey-erp/sales-dashboard/internal/view"
)

const sessionCookie = "salesdash_session"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		_ = redisClient.Close()
	}()

	sessionManager := shared.NewSessionManager(redisClient, sessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	client := salesapi.NewClient(cfg.SalesAPIURL,
		salesapi.WithTimeout(cfg.SalesAPITimeout),
		salesapi.WithObserver(metrics),
		salesapi.WithLogger(logger),
	)

	registry := dashboard.NewRegistry(ctx, client, dashboard.RegistryConfig{
		Defaults:  salesapi.DateRange{Start: cfg.DashboardDefaultStart, End: cfg.DashboardDefaultEnd},
		IdleTTL:   cfg.DashboardViewIdleTTL,
		Logger:    logger,
		ViewCount: metrics.SetActiveViews,
	})
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		registry.Run(ctx, cfg.DashboardSweepInterval)
	}()

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	handler := dashboardhttp.NewHandler(logger, registry, templates, ui.SVGRenderers(), csrfManager, dashboardhttp.Options{
		SettleTimeout:  cfg.DashboardSettleTimeout,
		RefreshSeconds: cfg.DashboardRefreshSeconds,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		DashboardHandler: handler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("sales_api", client.BaseURL()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	<-janitorDone
}
