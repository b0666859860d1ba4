package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/inventory"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/db"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// ErrProductNotFound indicates the product is absent, deleted or owned by another organization.
var ErrProductNotFound = inventory.ErrProductNotFound

// Repository is the tenant-scoped product store.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, orgID, id uuid.UUID) (Product, error)
	FindBySKU(ctx context.Context, orgID uuid.UUID, sku string) (Product, error)
	List(ctx context.Context, orgID uuid.UUID, page shared.Page) ([]Product, int, error)
	ListLowStock(ctx context.Context, orgID uuid.UUID, page shared.Page) ([]Product, int, error)
	Update(ctx context.Context, p Product) error
	SoftDelete(ctx context.Context, orgID, id uuid.UUID, at time.Time) error
}

// TxRepository exposes product writes bound to one transaction. It doubles
// as the ledger store so opening stock and sales share the transaction.
type TxRepository interface {
	inventory.Store
	Insert(ctx context.Context, p Product) error
	LockProduct(ctx context.Context, orgID, id uuid.UUID) (Product, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	inventory.Store
	q db.Querier
}

// NewTxRepository binds product writes to q, typically a pgx.Tx opened by
// another module's unit of work.
func NewTxRepository(q db.Querier) TxRepository {
	return &txRepository{Store: inventory.NewTxStore(q), q: q}
}

// WithTx runs fn inside a locking transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithLockingTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
}

var productColumns = `p.id, p.organization_id, p.category_id, p.name, p.sku, p.description, p.image_url,
p.cost_price, p.sale_price, p.stock_quantity, p.stock_min, p.stock_max, p.unit, p.barcode, p.is_active,
p.created_at, p.updated_at, p.deleted_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.OrganizationID, &p.CategoryID, &p.Name, &p.SKU, &p.Description, &p.ImageURL,
		&p.CostPrice, &p.SalePrice, &p.StockQuantity, &p.StockMin, &p.StockMax, &p.Unit, &p.Barcode, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM `+db.Products.From()+`
WHERE `+db.Products.Scope(1)+` AND p.id = $2`, orgID, id))
}

func (r *repository) FindBySKU(ctx context.Context, orgID uuid.UUID, sku string) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM `+db.Products.From()+`
WHERE `+db.Products.Scope(1)+` AND p.sku = $2`, orgID, sku))
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, page shared.Page) ([]Product, int, error) {
	return r.list(ctx, db.Products.Scope(1), orgID, page)
}

func (r *repository) ListLowStock(ctx context.Context, orgID uuid.UUID, page shared.Page) ([]Product, int, error) {
	return r.list(ctx, db.Products.Scope(1)+` AND p.is_active AND p.stock_quantity <= p.stock_min`, orgID, page)
}

func (r *repository) list(ctx context.Context, where string, orgID uuid.UUID, page shared.Page) ([]Product, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+db.Products.From()+` WHERE `+where, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM `+db.Products.From()+`
WHERE `+where+` ORDER BY p.name ASC, p.id ASC OFFSET $2 LIMIT $3`, orgID, page.Skip, page.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET category_id = $3, name = $4, sku = $5, description = $6,
image_url = $7, cost_price = $8, sale_price = $9, stock_min = $10, stock_max = $11, unit = $12, barcode = $13,
is_active = $14, updated_at = $15
WHERE organization_id = $1 AND id = $2 AND deleted_at IS NULL`,
		p.OrganizationID, p.ID, p.CategoryID, p.Name, p.SKU, p.Description, p.ImageURL, p.CostPrice, p.SalePrice,
		p.StockMin, p.StockMax, p.Unit, p.Barcode, p.IsActive, p.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, orgID, id uuid.UUID, at time.Time) error {
	if err := db.SoftDelete(ctx, r.pool, db.Products, orgID, id, at); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return nil
}

func (t *txRepository) Insert(ctx context.Context, p Product) error {
	_, err := t.q.Exec(ctx, `INSERT INTO products (id, organization_id, category_id, name, sku, description, image_url,
cost_price, sale_price, stock_quantity, stock_min, stock_max, unit, barcode, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		p.ID, p.OrganizationID, p.CategoryID, p.Name, p.SKU, p.Description, p.ImageURL, p.CostPrice, p.SalePrice,
		p.StockQuantity, p.StockMin, p.StockMax, p.Unit, p.Barcode, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("products: insert: %w", db.MapError(err))
	}
	return nil
}

// LockProduct reads a live product with FOR UPDATE. The lock is held until
// the surrounding transaction ends.
func (t *txRepository) LockProduct(ctx context.Context, orgID, id uuid.UUID) (Product, error) {
	return scanProduct(t.q.QueryRow(ctx, `SELECT `+productColumns+` FROM `+db.Products.From()+`
WHERE `+db.Products.Scope(1)+` AND p.id = $2 FOR UPDATE`, orgID, id))
}
