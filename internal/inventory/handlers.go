package inventory

import (
	"context"
	"errors"
)

// MovementHook receives ledger events after commit, e.g. for cache
// invalidation and metrics.
type MovementHook interface {
	HandleMovementRecorded(ctx context.Context, evt MovementRecordedEvent) error
}

// Hooks fans an event out to several hooks and joins their errors.
type Hooks []MovementHook

// HandleMovementRecorded implements MovementHook.
func (h Hooks) HandleMovementRecorded(ctx context.Context, evt MovementRecordedEvent) error {
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.HandleMovementRecorded(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
