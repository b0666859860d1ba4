package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/customers"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/db"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/products"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// UnitOfWork groups every write of one sale operation under a single
// transaction. It is committed only when the callback returns nil.
type UnitOfWork interface {
	// Products locks product rows and is the ledger store for stock writes.
	Products() products.TxRepository
	// Customers updates purchase statistics.
	Customers() customers.PurchaseStats
	// NextInvoiceNumber allocates the next per-organization sequence value.
	NextInvoiceNumber(ctx context.Context, orgID uuid.UUID) (int64, error)
	InsertSale(ctx context.Context, sale Sale) error
	InsertItem(ctx context.Context, item Item) error
	// LockSale reads a sale and its items with a row lock.
	LockSale(ctx context.Context, orgID, id uuid.UUID) (Sale, error)
	MarkCancelled(ctx context.Context, sale Sale) error
}

// ListFilter narrows sale listings.
type ListFilter struct {
	OrganizationID uuid.UUID
	CustomerID     *uuid.UUID
	From           *time.Time
	To             *time.Time
	Page           shared.Page
}

// Repository is the sale store.
type Repository interface {
	WithinUnitOfWork(ctx context.Context, fn func(context.Context, UnitOfWork) error) error
	Get(ctx context.Context, orgID, id uuid.UUID) (Sale, error)
	List(ctx context.Context, filter ListFilter) ([]Sale, int, error)
	Stats(ctx context.Context, orgID uuid.UUID, now time.Time) (Stats, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type unitOfWork struct {
	tx        pgx.Tx
	products  products.TxRepository
	customers customers.PurchaseStats
}

// WithinUnitOfWork runs fn at read committed; rows are serialised with
// explicit FOR UPDATE locks.
func (r *repository) WithinUnitOfWork(ctx context.Context, fn func(context.Context, UnitOfWork) error) error {
	return db.WithLockingTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &unitOfWork{
			tx:        tx,
			products:  products.NewTxRepository(tx),
			customers: customers.NewStatsStore(tx),
		})
	})
}

func (u *unitOfWork) Products() products.TxRepository   { return u.products }
func (u *unitOfWork) Customers() customers.PurchaseStats { return u.customers }

// NextInvoiceNumber seeds the counter from the existing sale count on first
// use, then increments it. The UPDATE row lock serialises concurrent sales of
// one organization until commit.
func (u *unitOfWork) NextInvoiceNumber(ctx context.Context, orgID uuid.UUID) (int64, error) {
	if _, err := u.tx.Exec(ctx, `INSERT INTO invoice_sequences (organization_id, last_value, updated_at)
SELECT $1, COUNT(*), NOW() FROM sales WHERE organization_id = $1
ON CONFLICT (organization_id) DO NOTHING`, orgID); err != nil {
		return 0, fmt.Errorf("sales: seed invoice sequence: %w", err)
	}
	var next int64
	if err := u.tx.QueryRow(ctx, `UPDATE invoice_sequences SET last_value = last_value + 1, updated_at = NOW()
WHERE organization_id = $1 RETURNING last_value`, orgID).Scan(&next); err != nil {
		return 0, fmt.Errorf("sales: next invoice number: %w", err)
	}
	return next, nil
}

func (u *unitOfWork) InsertSale(ctx context.Context, s Sale) error {
	_, err := u.tx.Exec(ctx, `INSERT INTO sales (id, organization_id, customer_id, user_id, invoice_number, sale_date,
subtotal, discount, tax, total, payment_method, status, notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		s.ID, s.OrganizationID, s.CustomerID, s.UserID, s.InvoiceNumber, s.SaleDate, s.Subtotal, s.Discount, s.Tax,
		s.Total, s.PaymentMethod, string(s.Status), s.Notes, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sales: insert sale: %w", db.MapError(err))
	}
	return nil
}

func (u *unitOfWork) InsertItem(ctx context.Context, it Item) error {
	_, err := u.tx.Exec(ctx, `INSERT INTO sale_items (id, sale_id, product_id, product_name, product_sku, quantity,
unit_price, subtotal, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		it.ID, it.SaleID, it.ProductID, it.ProductName, it.ProductSKU, it.Quantity, it.UnitPrice, it.Subtotal, it.CreatedAt)
	if err != nil {
		return fmt.Errorf("sales: insert item: %w", db.MapError(err))
	}
	return nil
}

func (u *unitOfWork) LockSale(ctx context.Context, orgID, id uuid.UUID) (Sale, error) {
	sale, err := scanSale(u.tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM `+db.Sales.From()+`
WHERE `+db.Sales.Scope(1)+` AND s.id = $2 FOR UPDATE`, orgID, id))
	if err != nil {
		return Sale{}, err
	}
	sale.Items, err = loadItems(ctx, u.tx, []uuid.UUID{sale.ID})
	if err != nil {
		return Sale{}, err
	}
	return sale, nil
}

func (u *unitOfWork) MarkCancelled(ctx context.Context, s Sale) error {
	tag, err := u.tx.Exec(ctx, `UPDATE sales SET status = $3, cancelled_at = $4, cancelled_by = $5,
cancellation_reason = $6, updated_at = $7 WHERE organization_id = $1 AND id = $2`,
		s.OrganizationID, s.ID, string(s.Status), s.CancelledAt, s.CancelledBy, s.CancellationReason, s.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	return nil
}

const saleColumns = `s.id, s.organization_id, s.customer_id, s.user_id, s.invoice_number, s.sale_date, s.subtotal,
s.discount, s.tax, s.total, s.payment_method, s.status, s.notes, s.cancelled_at, s.cancelled_by,
s.cancellation_reason, s.created_at, s.updated_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.OrganizationID, &s.CustomerID, &s.UserID, &s.InvoiceNumber, &s.SaleDate, &s.Subtotal,
		&s.Discount, &s.Tax, &s.Total, &s.PaymentMethod, &s.Status, &s.Notes, &s.CancelledAt, &s.CancelledBy,
		&s.CancellationReason, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, ErrSaleNotFound
	}
	return s, err
}

func loadItems(ctx context.Context, q db.Querier, saleIDs []uuid.UUID) ([]Item, error) {
	rows, err := q.Query(ctx, `SELECT id, sale_id, product_id, product_name, product_sku, quantity, unit_price,
subtotal, created_at FROM sale_items WHERE sale_id = ANY($1) ORDER BY created_at ASC, id ASC`, saleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.ProductSKU, &it.Quantity,
			&it.UnitPrice, &it.Subtotal, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (Sale, error) {
	sale, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM `+db.Sales.From()+`
WHERE `+db.Sales.Scope(1)+` AND s.id = $2`, orgID, id))
	if err != nil {
		return Sale{}, err
	}
	sale.Items, err = loadItems(ctx, r.pool, []uuid.UUID{sale.ID})
	if err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// List returns sales newest first with their items.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	where := db.Sales.Scope(1)
	args := []any{filter.OrganizationID}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		where += fmt.Sprintf(" AND s.customer_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where += fmt.Sprintf(" AND s.sale_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += fmt.Sprintf(" AND s.sale_date < $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+db.Sales.From()+` WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Page.Skip, filter.Page.Limit)
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM `+db.Sales.From()+` WHERE `+where+
		fmt.Sprintf(` ORDER BY s.sale_date DESC, s.id DESC OFFSET $%d LIMIT $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := []Sale{}
	index := map[uuid.UUID]int{}
	ids := []uuid.UUID{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		s.Items = []Item{}
		index[s.ID] = len(list)
		ids = append(ids, s.ID)
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return list, total, nil
	}
	items, err := loadItems(ctx, r.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, it := range items {
		i := index[it.SaleID]
		list[i].Items = append(list[i].Items, it)
	}
	return list, total, nil
}

// Stats aggregates completed sales of the UTC day and month containing now.
func (r *repository) Stats(ctx context.Context, orgID uuid.UUID, now time.Time) (Stats, error) {
	dayStart, dayEnd := shared.DayWindow(now)
	monthStart, monthEnd := shared.MonthWindow(now)
	var st Stats
	err := r.pool.QueryRow(ctx, `SELECT
    COUNT(*) FILTER (WHERE s.sale_date >= $3 AND s.sale_date < $4),
    COALESCE(SUM(s.total) FILTER (WHERE s.sale_date >= $3 AND s.sale_date < $4), 0),
    COUNT(*),
    COALESCE(SUM(s.total), 0)
FROM `+db.Sales.From()+`
WHERE `+db.Sales.Scope(1)+` AND s.status = $2 AND s.sale_date >= $5 AND s.sale_date < $6`,
		orgID, string(StatusCompleted), dayStart, dayEnd, monthStart, monthEnd).
		Scan(&st.SalesTodayCount, &st.SalesTodayTotal, &st.SalesMonthCount, &st.SalesMonthTotal)
	if err != nil {
		return Stats{}, err
	}
	st.AverageTicket = AverageTicket(st.SalesMonthTotal, st.SalesMonthCount)
	return st, nil
}
