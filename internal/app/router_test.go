package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/auth"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/dashboard"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/inventory"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/observability"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/rbac"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/sales"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
	"github.com/Tech-Craft-Resources/orbit-engine/jobs"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type emptyDashboards struct{}

func (emptyDashboards) SalesTotals(context.Context, uuid.UUID, time.Time, time.Time) (dashboard.Totals, error) {
	return dashboard.Totals{}, nil
}
func (emptyDashboards) LowStockCount(context.Context, uuid.UUID) (int, error) { return 0, nil }
func (emptyDashboards) TopProducts(context.Context, uuid.UUID, time.Time, time.Time, int) ([]dashboard.TopProduct, error) {
	return nil, nil
}
func (emptyDashboards) SalesByDay(context.Context, uuid.UUID, time.Time, time.Time) ([]dashboard.DayTotal, error) {
	return nil, nil
}
func (emptyDashboards) OrganizationIDs(context.Context) ([]uuid.UUID, error) { return nil, nil }

func newTestRouter(t *testing.T, health Pinger) (http.Handler, *auth.Tokens, *observability.Metrics) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewTokens(auth.TokenConfig{Secret: "router-secret", Issuer: "orbit"})
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	mw := rbac.Middleware{Logger: logger}
	dash := dashboard.NewHandler(logger, dashboard.NewService(emptyDashboards{}, nil, logger), mw)
	router := NewRouter(RouterParams{
		Logger:           logger,
		Config:           &Config{AppEnv: "test", RateLimitPerMinute: 0},
		Verifier:         tokens,
		DashboardHandler: dash,
		JobHandler:       jobs.NewHandler(nil, logger),
		RBACMiddleware:   mw,
		Metrics:          metrics,
		Health:           health,
	})
	return router, tokens, metrics
}

func bearer(t *testing.T, tokens *auth.Tokens, role shared.Role) string {
	t.Helper()
	raw, _, err := tokens.Issue(shared.Principal{OrganizationID: uuid.New(), UserID: uuid.New(), Role: role})
	require.NoError(t, err)
	return "Bearer " + raw
}

func TestHealthz(t *testing.T) {
	router, _, _ := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)

	router, _, _ = newTestRouter(t, pingFunc(func(context.Context) error { return errors.New("down") }))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPIRequiresBearerToken(t *testing.T) {
	router, tokens, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, APIPrefix+"/dashboard/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, APIPrefix+"/dashboard/stats", nil)
	req.Header.Set("Authorization", bearer(t, tokens, shared.RoleViewer))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sales_by_day":[]`)
}

func TestJobsRoutesAreAdminOnly(t *testing.T) {
	router, tokens, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, APIPrefix+"/jobs/health", nil)
	req.Header.Set("Authorization", bearer(t, tokens, shared.RoleSeller))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, APIPrefix+"/jobs/health", nil)
	req.Header.Set("Authorization", bearer(t, tokens, shared.RoleAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpointRecordsRoutes(t *testing.T) {
	router, _, metrics := newTestRouter(t, nil)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	hooks := MetricsHooks{Metrics: metrics}
	require.NoError(t, hooks.HandleSaleEvent(context.Background(), sales.Event{Type: sales.EventSaleCreated, Total: decimal.RequireFromString("12.50")}))
	require.NoError(t, hooks.HandleMovementRecorded(context.Background(), inventory.MovementRecordedEvent{Type: inventory.MovementSale, Quantity: -2}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `orbit_http_requests_total{code="200",route="/healthz"}`), body)
	assert.Contains(t, body, `orbit_sales_total{event="sale:created"} 1`)
	assert.Contains(t, body, `orbit_inventory_units_total{type="sale"} 2`)
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DASHBOARD_CACHE_TTL", "90s")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.DashboardCacheTTL)
	assert.Equal(t, "orbit-engine", cfg.JWTIssuer)
	assert.False(t, cfg.IsProduction())
}
