package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType names a committed sale transition.
type EventType string

const (
	EventSaleCreated   EventType = "sale:created"
	EventSaleCancelled EventType = "sale:cancelled"
)

// Event is published after a sale transition commits.
type Event struct {
	Type           EventType
	OrganizationID uuid.UUID
	SaleID         uuid.UUID
	InvoiceNumber  string
	Total          decimal.Decimal
	At             time.Time
}

// EventHook receives committed sale events.
type EventHook interface {
	HandleSaleEvent(ctx context.Context, evt Event) error
}

// EventHooks fans an event out to several hooks and joins their errors.
type EventHooks []EventHook

func (h EventHooks) HandleSaleEvent(ctx context.Context, evt Event) error {
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.HandleSaleEvent(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
