package shared

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authorization context supplied by the auth layer. Services
// trust it as-is.
type Principal struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Role           Role
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
