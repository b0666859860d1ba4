package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/auth"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/customers"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/dashboard"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/inventory"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/observability"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/httpx"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/products"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/rbac"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/sales"
	"github.com/Tech-Craft-Resources/orbit-engine/jobs"
)

// APIPrefix is the mount point of the versioned REST API.
const APIPrefix = "/api/v1"

// Pinger reports backing store health for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Verifier         auth.Verifier
	AuthHandler      *auth.Handler
	ProductsHandler  *products.Handler
	CustomersHandler *customers.Handler
	InventoryHandler *inventory.Handler
	SalesHandler     *sales.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler
	RBACMiddleware   rbac.Middleware
	Metrics          *observability.Metrics
	Health           Pinger
}

// NewRouter constructs the chi.Router with Orbit defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Health != nil {
			if err := params.Health.Ping(r.Context()); err != nil {
				params.Logger.Warn("health check failed", slog.Any("error", err))
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route(APIPrefix, func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		r.Group(func(r chi.Router) {
			r.Use(auth.RequirePrincipal(params.Verifier, params.Logger))
			if params.ProductsHandler != nil {
				r.Route("/products", params.ProductsHandler.MountRoutes)
			}
			if params.CustomersHandler != nil {
				var salesByCustomer http.HandlerFunc
				if params.SalesHandler != nil {
					salesByCustomer = params.SalesHandler.ListByCustomer
				}
				r.Route("/customers", func(r chi.Router) {
					params.CustomersHandler.MountRoutes(r, salesByCustomer)
				})
			}
			if params.InventoryHandler != nil {
				r.Route("/inventory", params.InventoryHandler.MountRoutes)
			}
			if params.SalesHandler != nil {
				r.Route("/sales", params.SalesHandler.MountRoutes)
			}
			if params.DashboardHandler != nil {
				r.Route("/dashboard", params.DashboardHandler.MountRoutes)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(params.RBACMiddleware.Admins())
					params.JobHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}
