package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/db"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// Repository persists ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	Store
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	OrganizationID uuid.UUID
	ProductID      *uuid.UUID
	Page           shared.Page
}

type txStore struct {
	q db.Querier
}

// NewTxStore binds the ledger store to a transaction so other modules can
// compose ledger writes into their own unit of work.
func NewTxStore(q db.Querier) Store {
	return &txStore{q: q}
}

// WithTx executes the callback inside a read-committed transaction; stock
// rows are serialised with FOR UPDATE.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithLockingTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{q: tx})
	})
}

const movementColumns = `m.id, m.organization_id, m.product_id, m.user_id, m.movement_type, m.quantity,
m.previous_stock, m.new_stock, m.reference_id, m.reference_type, m.reason, m.created_at`

func scanMovement(row pgx.Row) (Movement, error) {
	var m Movement
	err := row.Scan(&m.ID, &m.OrganizationID, &m.ProductID, &m.UserID, &m.Type, &m.Quantity,
		&m.PreviousStock, &m.NewStock, &m.ReferenceID, &m.ReferenceType, &m.Reason, &m.CreatedAt)
	return m, err
}

// GetMovement loads one movement within the organization.
func (r *Repository) GetMovement(ctx context.Context, orgID, id uuid.UUID) (Movement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+movementColumns+` FROM `+db.Movements.From()+`
WHERE `+db.Movements.Scope(1)+` AND m.id = $2`, orgID, id)
	m, err := scanMovement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Movement{}, ErrMovementNotFound
	}
	return m, err
}

// ListMovements returns a page of movements, newest first, and the total count.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error) {
	where := db.Movements.Scope(1)
	args := []any{filter.OrganizationID}
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		where += fmt.Sprintf(" AND m.product_id = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+db.Movements.From()+` WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Page.Skip, filter.Page.Limit)
	rows, err := r.pool.Query(ctx, `SELECT `+movementColumns+` FROM `+db.Movements.From()+`
WHERE `+where+fmt.Sprintf(` ORDER BY m.created_at DESC, m.id DESC OFFSET $%d LIMIT $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	movements := []Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, 0, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// ProductExists reports whether a live product exists in the organization.
func (r *Repository) ProductExists(ctx context.Context, orgID, productID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+db.Products.From()+`
WHERE `+db.Products.Scope(1)+` AND p.id = $2)`, orgID, productID).Scan(&exists)
	return exists, err
}

func (s *txStore) LockStock(ctx context.Context, orgID, productID uuid.UUID) (Stock, error) {
	var stock Stock
	err := s.q.QueryRow(ctx, `SELECT p.id, p.organization_id, p.stock_quantity, p.updated_at
FROM `+db.Products.From()+` WHERE `+db.Products.Scope(1)+` AND p.id = $2 FOR UPDATE`, orgID, productID).
		Scan(&stock.ProductID, &stock.OrganizationID, &stock.Quantity, &stock.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stock{}, ErrProductNotFound
		}
		return Stock{}, err
	}
	return stock, nil
}

func (s *txStore) SetStock(ctx context.Context, stock Stock) error {
	tag, err := s.q.Exec(ctx, `UPDATE products SET stock_quantity = $3, updated_at = $4
WHERE organization_id = $1 AND id = $2`, stock.OrganizationID, stock.ProductID, stock.Quantity, stock.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *txStore) InsertMovement(ctx context.Context, m Movement) error {
	_, err := s.q.Exec(ctx, `INSERT INTO inventory_movements (id, organization_id, product_id, user_id, movement_type,
quantity, previous_stock, new_stock, reference_id, reference_type, reason, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`, m.ID, m.OrganizationID, m.ProductID, m.UserID, string(m.Type),
		m.Quantity, m.PreviousStock, m.NewStock, m.ReferenceID, m.ReferenceType, m.Reason, m.CreatedAt)
	return db.MapError(err)
}
