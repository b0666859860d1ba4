package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// User represents an authenticated user account.
type User struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Email          string
	PasswordHash   string
	Role           shared.Role
	IsActive       bool
	CreatedAt      time.Time
}

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a live user of an active organization by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var (
		u    User
		role string
	)
	err := r.pool.QueryRow(ctx, `SELECT u.id, u.organization_id, u.email, u.hashed_password, u.role,
    u.is_active AND o.is_active, u.created_at
FROM users u
JOIN organizations o ON o.id = u.organization_id
WHERE lower(u.email) = $1 AND u.deleted_at IS NULL`, strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.ID, &u.OrganizationID, &u.Email, &u.PasswordHash, &role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	u.Role = shared.ParseRole(role)
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
