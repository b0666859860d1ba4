package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/db"
)

// statusCompleted mirrors sales.StatusCompleted; cancelled sales never count.
const statusCompleted = "completed"

// Repository exposes the read-only aggregates behind the dashboard. All
// windows are half-open [from, to).
type Repository interface {
	SalesTotals(ctx context.Context, orgID uuid.UUID, from, to time.Time) (Totals, error)
	LowStockCount(ctx context.Context, orgID uuid.UUID) (int, error)
	TopProducts(ctx context.Context, orgID uuid.UUID, from, to time.Time, limit int) ([]TopProduct, error)
	SalesByDay(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]DayTotal, error)
	// OrganizationIDs lists active organizations for background warmup.
	OrganizationIDs(ctx context.Context) ([]uuid.UUID, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the pgx backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) SalesTotals(ctx context.Context, orgID uuid.UUID, from, to time.Time) (Totals, error) {
	var t Totals
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(s.total), 0)
FROM `+db.Sales.From()+`
WHERE `+db.Sales.Scope(1)+` AND s.status = $2 AND s.sale_date >= $3 AND s.sale_date < $4`,
		orgID, statusCompleted, from, to).Scan(&t.Count, &t.Total)
	return t, err
}

func (r *repository) LowStockCount(ctx context.Context, orgID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+db.Products.From()+`
WHERE `+db.Products.Scope(1)+` AND p.is_active AND p.stock_quantity <= p.stock_min`, orgID).Scan(&n)
	return n, err
}

func (r *repository) TopProducts(ctx context.Context, orgID uuid.UUID, from, to time.Time, limit int) ([]TopProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT si.product_id, MAX(si.product_name), SUM(si.quantity), COALESCE(SUM(si.subtotal), 0)
FROM sale_items si
JOIN `+db.Sales.From()+` ON s.id = si.sale_id
WHERE `+db.Sales.Scope(1)+` AND s.status = $2 AND s.sale_date >= $3 AND s.sale_date < $4
GROUP BY si.product_id
ORDER BY SUM(si.quantity) DESC, si.product_id ASC
LIMIT $5`, orgID, statusCompleted, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TopProduct, 0, limit)
	for rows.Next() {
		var tp TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.ProductName, &tp.QuantitySold, &tp.Revenue); err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}

func (r *repository) SalesByDay(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]DayTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT to_char(date_trunc('day', s.sale_date AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day,
    COUNT(*), COALESCE(SUM(s.total), 0)
FROM `+db.Sales.From()+`
WHERE `+db.Sales.Scope(1)+` AND s.status = $2 AND s.sale_date >= $3 AND s.sale_date < $4
GROUP BY day
ORDER BY day ASC`, orgID, statusCompleted, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DayTotal{}
	for rows.Next() {
		var d DayTotal
		if err := rows.Scan(&d.Date, &d.Count, &d.Total); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repository) OrganizationIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM organizations WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
