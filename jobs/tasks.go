package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan refreshes the per-organization low-stock gauge.
	TaskLowStockScan = "inventory:low_stock_scan"
	// TaskDashboardWarmup rebuilds cached dashboards of active organizations.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// DefaultIdempotencyRetention is how long processed keys are kept.
const DefaultIdempotencyRetention = 72 * time.Hour

// ScheduledPayload carries the scheduling metadata shared by every task.
type ScheduledPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	// RetentionHours only applies to TaskIdempotencyCleanup.
	RetentionHours int `json:"retention_hours,omitempty"`
}

// TaskTypes lists the task types the worker serves.
func TaskTypes() []string {
	return []string{TaskLowStockScan, TaskDashboardWarmup, TaskIdempotencyCleanup}
}

// NewTask constructs an Asynq task of a known type.
func NewTask(taskType string, payload ScheduledPayload) (*asynq.Task, error) {
	if !knownTask(taskType) {
		return nil, fmt.Errorf("jobs: unknown task type %q", taskType)
	}
	if payload.ScheduledFor.IsZero() {
		payload.ScheduledFor = time.Now().UTC()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault)), nil
}

func knownTask(taskType string) bool {
	for _, t := range TaskTypes() {
		if t == taskType {
			return true
		}
	}
	return false
}

func decodePayload(t *asynq.Task) (ScheduledPayload, error) {
	var payload ScheduledPayload
	if len(t.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return payload, nil
}
