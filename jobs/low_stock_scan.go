package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/Tech-Craft-Resources/orbit-engine/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// LowStockSource counts low-stock products per organization.
type LowStockSource interface {
	OrganizationIDs(ctx context.Context) ([]uuid.UUID, error)
	LowStockCount(ctx context.Context, orgID uuid.UUID) (int, error)
}

// LowStockScanJob publishes the number of low-stock products of every
// active organization as a gauge and logs organizations above zero.
type LowStockScanJob struct {
	Source    LowStockSource
	Singleton *Singleton
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(source LowStockSource, singleton *Singleton, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Source: source, Singleton: singleton, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLowStockScan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Source == nil {
		return errors.New("low stock scan: handler not configured")
	}
	if _, err := decodePayload(t); err != nil {
		return err
	}
	logger := jobLogger(j.Logger, TaskLowStockScan)
	err := j.Singleton.Run(ctx, TaskLowStockScan, func(ctx context.Context) error {
		tracker := jobMetrics(j.Metrics).Track(TaskLowStockScan)
		return tracker.End(j.scan(ctx, logger))
	})
	if errors.Is(err, ErrSkipped) {
		logger.Info("low stock scan skipped")
		return nil
	}
	return err
}

func (j *LowStockScanJob) scan(ctx context.Context, logger *slog.Logger) error {
	start := time.Now()
	orgs, err := j.Source.OrganizationIDs(ctx)
	if err != nil {
		logger.Error("load organizations", slog.Any("error", err))
		return err
	}
	total := 0
	for _, orgID := range orgs {
		count, err := j.Source.LowStockCount(ctx, orgID)
		if err != nil {
			logger.Error("count low stock", slog.String("organization_id", orgID.String()), slog.Any("error", err))
			return err
		}
		jobMetrics(j.Metrics).SetLowStock(orgID.String(), count)
		if count > 0 {
			logger.Warn("products below minimum stock",
				slog.String("organization_id", orgID.String()),
				slog.Int("count", count))
		}
		total += count
	}
	logger.Info("completed low stock scan",
		slog.Int("organizations", len(orgs)),
		slog.Int("low_stock_products", total),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger != nil {
		return logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func jobMetrics(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}
