package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/httpx"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/rbac"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// Handler wires HTTP endpoints for the movement ledger.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers inventory movement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Readers())
		r.Get("/", h.handleList)
		r.Get("/{movementID}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Writers())
		r.Post("/", h.handleRecord)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	list, err := h.service.ListMovements(r.Context(), p, shared.PageFromQuery(r.URL.Query()))
	if err != nil {
		h.fail(w, "list movements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "movementID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	movement, err := h.service.GetMovement(r.Context(), p, id)
	if err != nil {
		h.fail(w, "get movement", err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req MovementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	movement, err := h.service.RecordMovement(r.Context(), p, req)
	if err != nil {
		h.fail(w, "record movement", err)
		return
	}
	h.logger.Info("movement recorded",
		slog.String("movement_id", movement.ID.String()),
		slog.String("product_id", movement.ProductID.String()),
		slog.String("type", string(movement.Type)),
		slog.Int("quantity", movement.Quantity))
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
