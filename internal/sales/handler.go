package sales

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/httpx"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/rbac"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// IdempotencyHeader carries the optional client key for sale creation.
const IdempotencyHeader = "Idempotency-Key"

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Readers())
		r.Get("/", h.List)
		r.Get("/today", h.Today)
		r.Get("/stats", h.Stats)
		r.Get("/{saleID}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Writers())
		r.Post("/", h.Create)
		r.Post("/{saleID}/cancel", h.Cancel)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	list, err := h.service.List(r.Context(), p, shared.PageFromQuery(r.URL.Query()))
	if err != nil {
		h.fail(w, "list sales failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	list, err := h.service.ListToday(r.Context(), p, shared.PageFromQuery(r.URL.Query()))
	if err != nil {
		h.fail(w, "list today sales failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// ListByCustomer serves GET /customers/{customerID}/sales.
func (h *Handler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := httpx.UUIDParam(r, "customerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	list, err := h.service.ListByCustomer(r.Context(), p, customerID, shared.PageFromQuery(r.URL.Query()))
	if err != nil {
		h.fail(w, "list customer sales failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	stats, err := h.service.Stats(r.Context(), p)
	if err != nil {
		h.fail(w, "sales stats failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "saleID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	sale, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		h.fail(w, "get sale failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	sale, err := h.service.CreateSale(r.Context(), p, req, key)
	if err != nil {
		h.fail(w, "create sale failed", err)
		return
	}
	h.logger.Info("sale created",
		slog.String("sale_id", sale.ID.String()),
		slog.String("invoice_number", sale.InvoiceNumber),
		slog.String("total", sale.Total.StringFixed(2)))
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "saleID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CancelSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	result, err := h.service.CancelSale(r.Context(), p, id, req)
	if err != nil {
		h.fail(w, "cancel sale failed", err)
		return
	}
	h.logger.Info("sale cancelled",
		slog.String("sale_id", result.ID.String()),
		slog.String("invoice_number", result.InvoiceNumber))
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
