package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/httpx"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/rbac"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers dashboard routes. Every authenticated role may read.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Readers()).Get("/stats", h.Stats)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	out, err := h.service.Stats(r.Context(), p, QueryFromValues(r.URL.Query()))
	if err != nil {
		if !httpx.IsClientError(err) {
			h.logger.Error("dashboard stats failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
