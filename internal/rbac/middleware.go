package rbac

import (
	"log/slog"
	"net/http"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/httpx"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// Middleware wires role gating helpers for HTTP handlers. The principal is
// placed in the request context by the auth middleware.
type Middleware struct {
	Logger *slog.Logger
}

// RequireRole ensures the current principal holds one of the given roles.
func (m Middleware) RequireRole(roles ...shared.Role) func(http.Handler) http.Handler {
	allowed := normalizeRoles(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			if len(allowed) == 0 || hasRole(allowed, principal.Role) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac denied",
					slog.String("user_id", principal.UserID.String()),
					slog.String("role", string(principal.Role)),
					slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, shared.ErrForbidden)
		})
	}
}

// Readers gates endpoints every tenant role may call.
func (m Middleware) Readers() func(http.Handler) http.Handler {
	return m.RequireRole(shared.ReaderRoles()...)
}

// Writers gates endpoints that mutate sales, stock or master data.
func (m Middleware) Writers() func(http.Handler) http.Handler {
	return m.RequireRole(shared.WriterRoles()...)
}

// Admins gates destructive endpoints.
func (m Middleware) Admins() func(http.Handler) http.Handler {
	return m.RequireRole(shared.AdminRoles()...)
}

func normalizeRoles(roles []shared.Role) map[shared.Role]struct{} {
	set := make(map[shared.Role]struct{}, len(roles))
	for _, role := range roles {
		parsed := shared.ParseRole(string(role))
		if parsed == "" {
			continue
		}
		set[parsed] = struct{}{}
	}
	return set
}

func hasRole(allowed map[shared.Role]struct{}, role shared.Role) bool {
	_, ok := allowed[role]
	return ok
}
