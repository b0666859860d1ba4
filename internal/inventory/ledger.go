package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// Store is the transactional persistence the ledger writes through. All
// calls made for one Adjust must share the same database transaction.
type Store interface {
	LockStock(ctx context.Context, orgID, productID uuid.UUID) (Stock, error)
	SetStock(ctx context.Context, stock Stock) error
	InsertMovement(ctx context.Context, movement Movement) error
}

// Ledger is the single path through which stock quantities change.
type Ledger struct {
	clock func() time.Time
	newID func() uuid.UUID
}

// NewLedger builds a Ledger stamping entries in UTC.
func NewLedger() *Ledger {
	return &Ledger{
		clock: func() time.Time { return time.Now().UTC() },
		newID: uuid.New,
	}
}

// Adjust applies entry to stock, writes the product row and appends the
// movement. stock must have been read under lock in the same transaction;
// on success it holds the new quantity.
func (l *Ledger) Adjust(ctx context.Context, store Store, stock *Stock, entry Entry) (Movement, error) {
	if store == nil {
		return Movement{}, errStoreRequired
	}
	if stock == nil {
		return Movement{}, ErrProductNotFound
	}
	if !entry.Type.Valid() {
		return Movement{}, fmt.Errorf("%w: invalid movement type %q", shared.ErrInvalidState, entry.Type)
	}
	if entry.Delta == 0 {
		return Movement{}, ErrZeroQuantity
	}
	next := stock.Quantity + entry.Delta
	if next < 0 {
		return Movement{}, ErrNegativeStock
	}

	now := l.clock()
	updated := *stock
	updated.Quantity = next
	updated.UpdatedAt = now
	if err := store.SetStock(ctx, updated); err != nil {
		return Movement{}, fmt.Errorf("inventory: set stock: %w", err)
	}

	movement := Movement{
		ID:             l.newID(),
		OrganizationID: stock.OrganizationID,
		ProductID:      stock.ProductID,
		UserID:         entry.ActorID,
		Type:           entry.Type,
		Quantity:       entry.Delta,
		PreviousStock:  stock.Quantity,
		NewStock:       next,
		ReferenceID:    entry.ReferenceID,
		ReferenceType:  entry.ReferenceType,
		Reason:         entry.Reason,
		CreatedAt:      now,
	}
	if err := store.InsertMovement(ctx, movement); err != nil {
		return Movement{}, fmt.Errorf("inventory: insert movement: %w", err)
	}
	*stock = updated
	return movement, nil
}
