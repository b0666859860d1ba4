package customers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/db"
)

// PurchaseStats is the narrow write port the sale engine uses on customers.
// It is kept apart from the customer editor so no other caller can touch
// the statistics columns.
type PurchaseStats interface {
	// LockCustomer reads a live customer with a row lock.
	LockCustomer(ctx context.Context, orgID, id uuid.UUID) (Customer, error)
	// RecordPurchase counts one sale of amount made at at.
	RecordPurchase(ctx context.Context, orgID, id uuid.UUID, amount decimal.Decimal, at time.Time) error
	// RevertPurchase undoes one sale of amount, flooring both figures at zero.
	RevertPurchase(ctx context.Context, orgID, id uuid.UUID, amount decimal.Decimal, at time.Time) error
}

type statsStore struct {
	q db.Querier
}

// NewStatsStore binds PurchaseStats to q, normally the sale transaction.
func NewStatsStore(q db.Querier) PurchaseStats {
	return &statsStore{q: q}
}

func (s *statsStore) LockCustomer(ctx context.Context, orgID, id uuid.UUID) (Customer, error) {
	c, err := scanCustomer(s.q.QueryRow(ctx, `SELECT `+customerColumns+` FROM `+db.Customers.From()+`
WHERE `+db.Customers.Scope(1)+` AND c.id = $2 FOR UPDATE`, orgID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrCustomerNotFound
	}
	return c, err
}

func (s *statsStore) RecordPurchase(ctx context.Context, orgID, id uuid.UUID, amount decimal.Decimal, at time.Time) error {
	tag, err := s.q.Exec(ctx, `UPDATE customers SET purchases_count = purchases_count + 1,
total_purchases = total_purchases + $3, last_purchase_at = $4, updated_at = $4
WHERE organization_id = $1 AND id = $2`, orgID, id, amount, at)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// RevertPurchase also applies to customers deleted after the sale so their
// history stays consistent. A missing row is not an error.
func (s *statsStore) RevertPurchase(ctx context.Context, orgID, id uuid.UUID, amount decimal.Decimal, at time.Time) error {
	_, err := s.q.Exec(ctx, `UPDATE customers SET purchases_count = GREATEST(purchases_count - 1, 0),
total_purchases = GREATEST(total_purchases - $3, 0), updated_at = $4
WHERE organization_id = $1 AND id = $2`, orgID, id, amount, at)
	return db.MapError(err)
}
