package inventory

import (
	"time"

	"github.com/google/uuid"
)

// MovementRecordedEvent is published after a ledger entry commits.
type MovementRecordedEvent struct {
	OrganizationID uuid.UUID
	ProductID      uuid.UUID
	Type           MovementType
	Quantity       int
	NewStock       int
	RecordedAt     time.Time
}

// EventsFromMovements converts committed movements into events.
func EventsFromMovements(movements []Movement) []MovementRecordedEvent {
	events := make([]MovementRecordedEvent, 0, len(movements))
	for _, m := range movements {
		events = append(events, MovementRecordedEvent{
			OrganizationID: m.OrganizationID,
			ProductID:      m.ProductID,
			Type:           m.Type,
			Quantity:       m.Quantity,
			NewStock:       m.NewStock,
			RecordedAt:     m.CreatedAt,
		})
	}
	return events
}
