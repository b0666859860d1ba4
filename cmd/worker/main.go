package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bsm/redislock"
	"github.com/hibiken/asynq"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/app"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/dashboard"
	jobmetrics "github.com/Tech-Craft-Resources/orbit-engine/internal/jobs"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/cache"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/db"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
	"github.com/Tech-Craft-Resources/orbit-engine/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	metrics := jobmetrics.NewMetrics(nil)
	singleton := jobs.NewSingleton(redislock.New(redisClient), cfg.JobLockTTL)

	dashboardRepo := dashboard.NewRepository(pool)
	dashboardService := dashboard.NewService(dashboardRepo, dashboard.NewCache(redisClient, cfg.DashboardCacheTTL), logger)

	lowStockJob := jobs.NewLowStockScanJob(dashboardRepo, singleton, logger, metrics)
	warmupJob := jobs.NewDashboardWarmupJob(dashboardService, singleton, logger, metrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), singleton, logger, metrics)

	schedule := []struct {
		spec    string
		task    string
		payload jobs.ScheduledPayload
	}{
		{spec: cfg.LowStockScanCron, task: jobs.TaskLowStockScan},
		{spec: cfg.DashboardWarmupCron, task: jobs.TaskDashboardWarmup},
		{spec: cfg.IdempotencyCleanupCron, task: jobs.TaskIdempotencyCleanup, payload: jobs.ScheduledPayload{RetentionHours: cfg.IdempotencyRetentionHours}},
	}
	cron := make([]jobs.CronRegistration, 0, len(schedule))
	for _, entry := range schedule {
		task, err := jobs.NewTask(entry.task, entry.payload)
		if err != nil {
			logger.Error("build task", slog.String("task", entry.task), slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: entry.spec, Task: task, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: lowStockJob.Handle},
			{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
