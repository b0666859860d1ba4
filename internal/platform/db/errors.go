package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

// MapError translates driver errors into the shared domain taxonomy.
// Unrecognised errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", shared.ErrConflict, pgErr.ConstraintName)
		case codeCheckViolation:
			return fmt.Errorf("%w: %s", shared.ErrValidation, pgErr.ConstraintName)
		}
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
