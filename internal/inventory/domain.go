package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// MovementType enumerates ledger entry causes.
type MovementType string

const (
	// MovementPurchase records stock received from a supplier.
	MovementPurchase MovementType = "purchase"
	// MovementAdjustment records a manual correction, positive or negative.
	MovementAdjustment MovementType = "adjustment"
	// MovementReturn records stock coming back, including sale cancellations.
	MovementReturn MovementType = "return"
	// MovementSale is written only by the sale engine.
	MovementSale MovementType = "sale"
)

// ReferenceSale tags movements caused by a sale or its cancellation.
const ReferenceSale = "sale"

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementPurchase, MovementAdjustment, MovementReturn, MovementSale:
		return true
	}
	return false
}

// ManualTypes lists movement types accepted through the public entry point.
func ManualTypes() []MovementType {
	return []MovementType{MovementAdjustment, MovementPurchase, MovementReturn}
}

// CheckManual rejects types that may not be recorded by hand.
func (t MovementType) CheckManual() error {
	for _, allowed := range ManualTypes() {
		if t == allowed {
			return nil
		}
	}
	if t == MovementSale {
		return fmt.Errorf("%w: movement type %q is recorded automatically by sales", shared.ErrInvalidState, t)
	}
	return fmt.Errorf("%w: invalid movement type %q, allowed types: adjustment, purchase, return", shared.ErrInvalidState, t)
}

// Movement is an immutable ledger entry.
type Movement struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID uuid.UUID    `json:"organization_id"`
	ProductID      uuid.UUID    `json:"product_id"`
	UserID         uuid.UUID    `json:"user_id"`
	Type           MovementType `json:"movement_type"`
	Quantity       int          `json:"quantity"`
	PreviousStock  int          `json:"previous_stock"`
	NewStock       int          `json:"new_stock"`
	ReferenceID    *uuid.UUID   `json:"reference_id,omitempty"`
	ReferenceType  *string      `json:"reference_type,omitempty"`
	Reason         *string      `json:"reason,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Stock is the ledger's view of a product row, read under lock.
type Stock struct {
	ProductID      uuid.UUID
	OrganizationID uuid.UUID
	Quantity       int
	UpdatedAt      time.Time
}

// Entry describes a single stock change handed to the ledger.
type Entry struct {
	Type          MovementType
	Delta         int
	ActorID       uuid.UUID
	ReferenceID   *uuid.UUID
	ReferenceType *string
	Reason        *string
}

// MovementRequest is the payload for a manual ledger entry.
type MovementRequest struct {
	ProductID     uuid.UUID    `json:"product_id" validate:"required"`
	Type          MovementType `json:"movement_type" validate:"required"`
	Quantity      int          `json:"quantity" validate:"required"`
	ReferenceID   *uuid.UUID   `json:"reference_id,omitempty"`
	ReferenceType *string      `json:"reference_type,omitempty" validate:"omitempty,max=50"`
	Reason        *string      `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// StockAdjustmentRequest is the payload for the product adjust-stock endpoint.
type StockAdjustmentRequest struct {
	Quantity int    `json:"quantity" validate:"required"`
	Reason   string `json:"reason" validate:"required,max=500"`
}

var (
	// ErrNegativeStock indicates the entry would leave stock below zero.
	ErrNegativeStock = fmt.Errorf("%w: stock quantity cannot be negative after this movement", shared.ErrInsufficientStock)
	// ErrZeroQuantity indicates an entry that would not move stock.
	ErrZeroQuantity = fmt.Errorf("%w: quantity must not be zero", shared.ErrValidation)
	// ErrMovementNotFound indicates a missing ledger entry.
	ErrMovementNotFound = fmt.Errorf("%w: movement", shared.ErrNotFound)
	// ErrProductNotFound indicates the product is absent or deleted.
	ErrProductNotFound = fmt.Errorf("%w: product", shared.ErrNotFound)
	errStoreRequired   = errors.New("inventory: store required")
)
