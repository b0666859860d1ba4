package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/Tech-Craft-Resources/orbit-engine/internal/jobs"
)

// IdempotencyCleaner prunes idempotency keys older than the retention.
type IdempotencyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// IdempotencyCleanupJob keeps the idempotency_keys table bounded.
type IdempotencyCleanupJob struct {
	Store     IdempotencyCleaner
	Singleton *Singleton
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(store IdempotencyCleaner, singleton *Singleton, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Store: store, Singleton: singleton, Logger: logger, Metrics: metrics}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	payload, err := decodePayload(t)
	if err != nil {
		return err
	}
	retention := DefaultIdempotencyRetention
	if payload.RetentionHours > 0 {
		retention = time.Duration(payload.RetentionHours) * time.Hour
	}
	logger := jobLogger(j.Logger, TaskIdempotencyCleanup)
	err = j.Singleton.Run(ctx, TaskIdempotencyCleanup, func(ctx context.Context) error {
		tracker := jobMetrics(j.Metrics).Track(TaskIdempotencyCleanup)
		if err := j.Store.Cleanup(ctx, retention); err != nil {
			logger.Error("idempotency cleanup failed", slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("pruned idempotency keys", slog.Duration("retention", retention))
		return tracker.End(nil)
	})
	if errors.Is(err, ErrSkipped) {
		logger.Info("idempotency cleanup skipped")
		return nil
	}
	return err
}
