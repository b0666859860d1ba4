package app

import (
	"context"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/inventory"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/observability"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/sales"
)

// MetricsHooks feeds committed sale and ledger events into Prometheus.
type MetricsHooks struct {
	Metrics *observability.Metrics
}

// HandleMovementRecorded implements inventory.MovementHook.
func (h MetricsHooks) HandleMovementRecorded(_ context.Context, evt inventory.MovementRecordedEvent) error {
	h.Metrics.ObserveMovement(string(evt.Type), evt.Quantity)
	return nil
}

// HandleSaleEvent implements sales.EventHook.
func (h MetricsHooks) HandleSaleEvent(_ context.Context, evt sales.Event) error {
	h.Metrics.ObserveSale(string(evt.Type), evt.Total.InexactFloat64())
	return nil
}
