package customers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers customer routes. salesByCustomer serves
// GET /{customerID}/sales and may be nil.
func (h *Handler) MountRoutes(r chi.Router, salesByCustomer http.HandlerFunc) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Readers())
		r.Get("/", h.List)
		r.Get("/{customerID}", h.Show)
		if salesByCustomer != nil {
			r.Get("/{customerID}/sales", salesByCustomer)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Writers())
		r.Post("/", h.Create)
		r.Patch("/{customerID}", h.Update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Admins())
		r.Delete("/{customerID}", h.Delete)
	})
}
