package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/db"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// ErrCustomerNotFound indicates the customer is absent, deleted or owned by another organization.
var ErrCustomerNotFound = fmt.Errorf("%w: customer", shared.ErrNotFound)

// Repository is the tenant-scoped customer store. It never writes the
// purchase statistics columns.
type Repository interface {
	Insert(ctx context.Context, c Customer) error
	Get(ctx context.Context, orgID, id uuid.UUID) (Customer, error)
	FindByDocument(ctx context.Context, orgID uuid.UUID, documentNumber string) (Customer, error)
	List(ctx context.Context, orgID uuid.UUID, page shared.Page) ([]Customer, int, error)
	Update(ctx context.Context, c Customer) error
	SoftDelete(ctx context.Context, orgID, id uuid.UUID, at time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const customerColumns = `c.id, c.organization_id, c.document_type, c.document_number, c.first_name, c.last_name,
c.email, c.phone, c.address, c.city, c.country, c.notes, c.total_purchases, c.purchases_count, c.last_purchase_at,
c.is_active, c.created_at, c.updated_at, c.deleted_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.OrganizationID, &c.DocumentType, &c.DocumentNumber, &c.FirstName, &c.LastName,
		&c.Email, &c.Phone, &c.Address, &c.City, &c.Country, &c.Notes, &c.TotalPurchases, &c.PurchasesCount,
		&c.LastPurchaseAt, &c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	return c, err
}

func (r *repository) Insert(ctx context.Context, c Customer) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO customers (id, organization_id, document_type, document_number,
first_name, last_name, email, phone, address, city, country, notes, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		c.ID, c.OrganizationID, c.DocumentType, c.DocumentNumber, c.FirstName, c.LastName, c.Email, c.Phone,
		c.Address, c.City, c.Country, c.Notes, c.IsActive, c.CreatedAt, c.UpdatedAt)
	return db.MapError(err)
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM `+db.Customers.From()+`
WHERE `+db.Customers.Scope(1)+` AND c.id = $2`, orgID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrCustomerNotFound
	}
	return c, err
}

func (r *repository) FindByDocument(ctx context.Context, orgID uuid.UUID, documentNumber string) (Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM `+db.Customers.From()+`
WHERE `+db.Customers.Scope(1)+` AND c.document_number = $2`, orgID, documentNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrCustomerNotFound
	}
	return c, err
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, page shared.Page) ([]Customer, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+db.Customers.From()+`
WHERE `+db.Customers.Scope(1), orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM `+db.Customers.From()+`
WHERE `+db.Customers.Scope(1)+` ORDER BY c.last_name ASC, c.first_name ASC, c.id ASC OFFSET $2 LIMIT $3`,
		orgID, page.Skip, page.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	customers := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, c Customer) error {
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET document_type = $3, document_number = $4, first_name = $5,
last_name = $6, email = $7, phone = $8, address = $9, city = $10, country = $11, notes = $12, is_active = $13,
updated_at = $14
WHERE organization_id = $1 AND id = $2 AND deleted_at IS NULL`,
		c.OrganizationID, c.ID, c.DocumentType, c.DocumentNumber, c.FirstName, c.LastName, c.Email, c.Phone,
		c.Address, c.City, c.Country, c.Notes, c.IsActive, c.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, orgID, id uuid.UUID, at time.Time) error {
	if err := db.SoftDelete(ctx, r.pool, db.Customers, orgID, id, at); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return err
	}
	return nil
}
