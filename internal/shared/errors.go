package shared

import "errors"

// Domain error taxonomy shared by every module. Callers wrap these with
// fmt.Errorf("%w: ...") to add detail; handlers match with errors.Is.
var (
	// ErrNotFound indicates the entity is absent, soft-deleted or owned by another organization.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates the entity cannot accept the requested transition.
	ErrInvalidState = errors.New("invalid state")
	// ErrInsufficientStock indicates the operation would drive stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict indicates a uniqueness violation inside a tenant.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the principal lacks the required role.
	ErrForbidden = errors.New("forbidden")
)
