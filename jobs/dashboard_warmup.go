package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/Tech-Craft-Resources/orbit-engine/internal/jobs"
)

// DashboardWarmer rebuilds cached dashboards and reports how many it built.
type DashboardWarmer interface {
	Warm(ctx context.Context) (int, error)
}

// DashboardWarmupJob pre-populates dashboard caches for active organizations.
type DashboardWarmupJob struct {
	Dashboards DashboardWarmer
	Singleton  *Singleton
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	Timeout    time.Duration
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(warmer DashboardWarmer, singleton *Singleton, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{Dashboards: warmer, Singleton: singleton, Logger: logger, Metrics: metrics, Timeout: 2 * time.Minute}
}

// Handle processes TaskDashboardWarmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboards == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	if _, err := decodePayload(t); err != nil {
		return err
	}
	logger := jobLogger(j.Logger, TaskDashboardWarmup)
	err := j.Singleton.Run(ctx, TaskDashboardWarmup, func(ctx context.Context) error {
		tracker := jobMetrics(j.Metrics).Track(TaskDashboardWarmup)
		if j.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, j.Timeout)
			defer cancel()
		}
		start := time.Now()
		warmed, err := j.Dashboards.Warm(ctx)
		if err != nil {
			logger.Error("dashboard warmup failed", slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("completed dashboard warmup", slog.Int("organizations", warmed), slog.Duration("duration", time.Since(start)))
		return tracker.End(nil)
	})
	if errors.Is(err, ErrSkipped) {
		logger.Info("dashboard warmup skipped")
		return nil
	}
	return err
}
