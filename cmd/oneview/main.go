package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/oneview-energy/oneview/internal/app"
	intelhttp "github.com/oneview-energy/oneview/internal/intelligence/http"

	"github.com/oneview-energy/oneview/internal/intelligence"
	"github.com/oneview-energy/oneview/internal/observability"
	"github.com/oneview-energy/oneview/internal/pdf"
	"github.com/oneview-energy/oneview/internal/platform/cache"
	"github.com/oneview-energy/oneview/internal/session"
	"github.com/oneview-energy/oneview/internal/upstream"
	"github.com/oneview-energy/oneview/jobs"
)

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
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	registry := intelligence.NewRegistry()
	sessions := session.NewManager(redisClient, cfg.SessionTTL, cfg.IsProduction())

	source := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamToken, cfg.UpstreamTimeout)
	store := upstream.NewStore()
	fetcher := upstream.NewFetcher(source, store, logger)
	orch := intelligence.NewOrchestrator(registry, source, logger, metrics)

	pdfExporter := &pdf.Exporter{Endpoint: cfg.GotenbergURL}

	asynqClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	exports := jobs.NewExportService(asynqClient, redisClient, cfg.ExportDir, cfg.ExportTTL)

	handler := intelhttp.NewHandler(logger, registry, sessions, source, fetcher, orch, pdfExporter, exports, metrics)

	router := app.NewRouter(app.RouterConfig{
		Middleware: app.MiddlewareConfig{
			Logger:  logger,
			Config:  cfg,
			Metrics: metrics,
		},
		Intelligence: handler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("oneview listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}
