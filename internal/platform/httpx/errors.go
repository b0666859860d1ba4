// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrInsufficientStock):
		Problem(w, http.StatusBadRequest, "Insufficient Stock", err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		Problem(w, http.StatusBadRequest, "Invalid State", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// IsClientError reports whether err belongs to the request-scoped taxonomy.
func IsClientError(err error) bool {
	for _, target := range []error{
		shared.ErrNotFound, shared.ErrConflict, shared.ErrIdempotencyConflict,
		shared.ErrInsufficientStock, shared.ErrInvalidState, shared.ErrValidation,
		shared.ErrForbidden, shared.ErrUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
