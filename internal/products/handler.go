package products

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/inventory"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/httpx"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/rbac"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// StockService is the slice of the inventory service the product routes use.
type StockService interface {
	AdjustStock(ctx context.Context, p shared.Principal, productID uuid.UUID, req inventory.StockAdjustmentRequest) (inventory.Movement, error)
	ListByProduct(ctx context.Context, p shared.Principal, productID uuid.UUID, page shared.Page) (shared.List[inventory.Movement], error)
}

// Handler exposes product endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	stock   StockService
	rbac    rbac.Middleware
}

// NewHandler constructs the product handler.
func NewHandler(logger *slog.Logger, service *Service, stock StockService, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, stock: stock, rbac: rbac}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Readers())
		r.Get("/", h.List)
		r.Get("/low-stock", h.LowStock)
		r.Get("/{productID}", h.Show)
		r.Get("/{productID}/movements", h.Movements)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Writers())
		r.Post("/", h.Create)
		r.Patch("/{productID}", h.Update)
		r.Post("/{productID}/adjust-stock", h.AdjustStock)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Admins())
		r.Delete("/{productID}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	list, err := h.service.List(r.Context(), p, shared.PageFromQuery(r.URL.Query()))
	if err != nil {
		h.fail(w, "list products failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	list, err := h.service.LowStock(r.Context(), p, shared.PageFromQuery(r.URL.Query()))
	if err != nil {
		h.fail(w, "list low stock failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	product, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		h.fail(w, "get product failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	product, err := h.service.Create(r.Context(), p, req)
	if err != nil {
		h.fail(w, "create product failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	product, err := h.service.Update(r.Context(), p, id, req)
	if err != nil {
		h.fail(w, "update product failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		h.fail(w, "delete product failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req inventory.StockAdjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	movement, err := h.stock.AdjustStock(r.Context(), p, id, req)
	if err != nil {
		h.fail(w, "adjust stock failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

func (h *Handler) Movements(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	list, err := h.stock.ListByProduct(r.Context(), p, id, shared.PageFromQuery(r.URL.Query()))
	if err != nil {
		h.fail(w, "list product movements failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
