package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/httpx"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// Verifier resolves a bearer token to a principal.
type Verifier interface {
	Verify(raw string) (shared.Principal, error)
}

// RequirePrincipal authenticates the Authorization bearer token and stores
// the principal in the request context.
func RequirePrincipal(v Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httpx.RespondError(w, ErrInvalidToken)
				return
			}
			p, err := v.Verify(raw)
			if err != nil {
				if logger != nil {
					logger.Debug("bearer token rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
