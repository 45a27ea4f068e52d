package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/oneview-energy/oneview/internal/app"
	"github.com/oneview-energy/oneview/internal/intelligence"
	"github.com/oneview-energy/oneview/internal/observability"
	"github.com/oneview-energy/oneview/internal/platform/cache"
	"github.com/oneview-energy/oneview/internal/session"
	"github.com/oneview-energy/oneview/internal/upstream"
	"github.com/oneview-energy/oneview/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	asynqClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	exports := jobs.NewExportService(asynqClient, redisClient, cfg.ExportDir, cfg.ExportTTL)

	exportWorker := jobs.NewExportWorker(exports, sessions, registry, source, fetcher, logger, metrics)
	warmupWorker := jobs.NewWarmupWorker(registry, source, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskExportWorkbook, Handler: exportWorker.Handle},
			{Type: jobs.TaskSnapshotWarmup, Handler: warmupWorker.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 4 * * *", Task: jobs.NewSnapshotWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("oneview worker starting")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down cleanly")
}
