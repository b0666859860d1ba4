package customers

import (
	"log/slog"
	"net/http"

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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	list, err := h.service.List(r.Context(), p, shared.PageFromQuery(r.URL.Query()))
	if err != nil {
		h.fail(w, "list customers failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "customerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	c, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		h.fail(w, "get customer failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	c, err := h.service.Create(r.Context(), p, req)
	if err != nil {
		h.fail(w, "create customer failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "customerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	c, err := h.service.Update(r.Context(), p, id, req)
	if err != nil {
		h.fail(w, "update customer failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.UUIDParam(r, "customerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		h.fail(w, "delete customer failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
