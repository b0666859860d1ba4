package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/inventory"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/rbac"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/sales"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

type fixtureLine struct {
	productID uuid.UUID
	name      string
	qty       int
	subtotal  decimal.Decimal
}

type fixtureSale struct {
	orgID  uuid.UUID
	status string
	at     time.Time
	total  decimal.Decimal
	lines  []fixtureLine
}

type memoryRepo struct {
	mu       sync.Mutex
	sales    []fixtureSale
	lowStock map[uuid.UUID]int
	orgs     []uuid.UUID
	calls    atomic.Int32
	gate     chan struct{}
}

func (m *memoryRepo) completed(orgID uuid.UUID, from, to time.Time) []fixtureSale {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []fixtureSale
	for _, s := range m.sales {
		if s.orgID == orgID && s.status == statusCompleted && !s.at.Before(from) && s.at.Before(to) {
			out = append(out, s)
		}
	}
	return out
}

func (m *memoryRepo) SalesTotals(ctx context.Context, orgID uuid.UUID, from, to time.Time) (Totals, error) {
	m.calls.Add(1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return Totals{}, ctx.Err()
		}
	}
	t := Totals{Total: decimal.Zero}
	for _, s := range m.completed(orgID, from, to) {
		t.Count++
		t.Total = t.Total.Add(s.total)
	}
	return t, nil
}

func (m *memoryRepo) LowStockCount(_ context.Context, orgID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lowStock[orgID], nil
}

func (m *memoryRepo) TopProducts(_ context.Context, orgID uuid.UUID, from, to time.Time, limit int) ([]TopProduct, error) {
	byID := map[uuid.UUID]*TopProduct{}
	for _, s := range m.completed(orgID, from, to) {
		for _, l := range s.lines {
			tp, ok := byID[l.productID]
			if !ok {
				tp = &TopProduct{ProductID: l.productID, ProductName: l.name, Revenue: decimal.Zero}
				byID[l.productID] = tp
			}
			tp.QuantitySold += l.qty
			tp.Revenue = tp.Revenue.Add(l.subtotal)
		}
	}
	out := make([]TopProduct, 0, len(byID))
	for _, tp := range byID {
		out = append(out, *tp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuantitySold != out[j].QuantitySold {
			return out[i].QuantitySold > out[j].QuantitySold
		}
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepo) SalesByDay(_ context.Context, orgID uuid.UUID, from, to time.Time) ([]DayTotal, error) {
	byDay := map[string]*DayTotal{}
	for _, s := range m.completed(orgID, from, to) {
		day := s.at.UTC().Format("2006-01-02")
		d, ok := byDay[day]
		if !ok {
			d = &DayTotal{Date: day, Total: decimal.Zero}
			byDay[day] = d
		}
		d.Count++
		d.Total = d.Total.Add(s.total)
	}
	out := []DayTotal{}
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *memoryRepo) OrganizationIDs(context.Context) ([]uuid.UUID, error) {
	return m.orgs, nil
}

var fixedNow = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo Repository) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return fixedNow }
	return svc, cache
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAverageTicketIsZeroWithoutSales(t *testing.T) {
	svc, _ := newTestService(t, &memoryRepo{})
	out, err := svc.Stats(context.Background(), shared.Principal{OrganizationID: uuid.New()}, Query{})
	require.NoError(t, err)
	assert.True(t, out.AverageTicket.IsZero())
	assert.Equal(t, 0, out.SalesMonth.Count)
	assert.NotNil(t, out.TopProducts)
	assert.Empty(t, out.TopProducts)
	assert.NotNil(t, out.SalesByDay)
	assert.Empty(t, out.SalesByDay)
}

func TestStatsAggregatesCompletedSalesOnly(t *testing.T) {
	org := uuid.New()
	pA, pB := uuid.New(), uuid.New()
	repo := &memoryRepo{
		lowStock: map[uuid.UUID]int{org: 2},
		sales: []fixtureSale{
			{orgID: org, status: statusCompleted, at: fixedNow.Add(-time.Hour), total: money("30.00"),
				lines: []fixtureLine{{pA, "Coffee", 3, money("30.00")}}},
			{orgID: org, status: statusCompleted, at: fixedNow.AddDate(0, 0, -2), total: money("15.00"),
				lines: []fixtureLine{{pB, "Tea", 5, money("15.00")}}},
			{orgID: org, status: "cancelled", at: fixedNow.Add(-2 * time.Hour), total: money("99.00"),
				lines: []fixtureLine{{pA, "Coffee", 50, money("99.00")}}},
			{orgID: org, status: statusCompleted, at: fixedNow.AddDate(0, -1, 0), total: money("70.00")},
			{orgID: uuid.New(), status: statusCompleted, at: fixedNow, total: money("500.00")},
		},
	}
	svc, _ := newTestService(t, repo)

	out, err := svc.Stats(context.Background(), shared.Principal{OrganizationID: org}, Query{})
	require.NoError(t, err)

	assert.Equal(t, 1, out.SalesToday.Count)
	assert.True(t, out.SalesToday.Total.Equal(money("30.00")))
	assert.Equal(t, 2, out.SalesMonth.Count)
	assert.True(t, out.SalesMonth.Total.Equal(money("45.00")))
	assert.True(t, out.AverageTicket.Equal(money("22.50")))
	assert.Equal(t, 2, out.LowStockCount)

	require.Len(t, out.TopProducts, 2)
	assert.Equal(t, pB, out.TopProducts[0].ProductID)
	assert.Equal(t, 5, out.TopProducts[0].QuantitySold)
	assert.Equal(t, pA, out.TopProducts[1].ProductID)

	require.Len(t, out.SalesByDay, 2)
	assert.Equal(t, "2025-03-12", out.SalesByDay[0].Date)
	assert.Equal(t, "2025-03-14", out.SalesByDay[1].Date)
}

func TestTopProductsRespectLimitAndTieBreak(t *testing.T) {
	org := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	var lines []fixtureLine
	for _, id := range ids {
		lines = append(lines, fixtureLine{id, "P", 2, money("4.00")})
	}
	repo := &memoryRepo{sales: []fixtureSale{{orgID: org, status: statusCompleted, at: fixedNow, total: money("12.00"), lines: lines}}}
	svc, _ := newTestService(t, repo)

	out, err := svc.Stats(context.Background(), shared.Principal{OrganizationID: org}, Query{TopLimit: 2})
	require.NoError(t, err)
	require.Len(t, out.TopProducts, 2)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	assert.Equal(t, ids[0], out.TopProducts[0].ProductID)
	assert.Equal(t, ids[1], out.TopProducts[1].ProductID)
}

func TestStatsAreCachedUntilBump(t *testing.T) {
	org := uuid.New()
	repo := &memoryRepo{}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()
	p := shared.Principal{OrganizationID: org}

	_, err := svc.Stats(ctx, p, Query{})
	require.NoError(t, err)
	calls := repo.calls.Load()

	repo.mu.Lock()
	repo.sales = append(repo.sales, fixtureSale{orgID: org, status: statusCompleted, at: fixedNow, total: money("10.00")})
	repo.mu.Unlock()

	out, err := svc.Stats(ctx, p, Query{})
	require.NoError(t, err)
	assert.Equal(t, calls, repo.calls.Load(), "second read should hit cache")
	assert.Equal(t, 0, out.SalesToday.Count)

	inv := Invalidator{Cache: svc.cache}
	require.NoError(t, inv.HandleSaleEvent(ctx, sales.Event{Type: sales.EventSaleCreated, OrganizationID: org}))

	out, err = svc.Stats(ctx, p, Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.SalesToday.Count)
	assert.Greater(t, repo.calls.Load(), calls)
}

func TestBumpIsScopedToOrganization(t *testing.T) {
	orgA, orgB := uuid.New(), uuid.New()
	svc, cache := newTestService(t, &memoryRepo{})
	ctx := context.Background()

	keyA, err := cache.BuildKey(ctx, orgA, "stats")
	require.NoError(t, err)
	keyB, err := cache.BuildKey(ctx, orgB, "stats")
	require.NoError(t, err)

	inv := Invalidator{Cache: svc.cache}
	require.NoError(t, inv.HandleMovementRecorded(ctx, inventory.MovementRecordedEvent{OrganizationID: orgA}))

	nextA, err := cache.BuildKey(ctx, orgA, "stats")
	require.NoError(t, err)
	nextB, err := cache.BuildKey(ctx, orgB, "stats")
	require.NoError(t, err)
	assert.NotEqual(t, keyA, nextA)
	assert.Equal(t, keyB, nextB)
}

func TestConcurrentMissesShareOneBuild(t *testing.T) {
	org := uuid.New()
	repo := &memoryRepo{gate: make(chan struct{})}
	svc, _ := newTestService(t, repo)
	p := shared.Principal{OrganizationID: org}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Stats(context.Background(), p, Query{})
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(repo.gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	// one build issues two SalesTotals calls: today and month
	assert.Equal(t, int32(2), repo.calls.Load())
}

func TestCancelledCallerDoesNotFailSharedBuild(t *testing.T) {
	org := uuid.New()
	repo := &memoryRepo{gate: make(chan struct{})}
	svc, _ := newTestService(t, repo)
	p := shared.Principal{OrganizationID: org}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.Stats(ctxA, p, Query{})
		errA <- err
	}()
	require.Eventually(t, func() bool { return repo.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		dash Dashboard
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		dash, err := svc.Stats(context.Background(), p, Query{})
		resB <- result{dash, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)
	close(repo.gate)

	select {
	case res := <-resB:
		require.NoError(t, res.err)
		assert.NotNil(t, res.dash.SalesByDay)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never received a dashboard")
	}
	assert.Equal(t, int32(2), repo.calls.Load())
}

func TestNilCacheAlwaysLoads(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, nil, nil)
	p := shared.Principal{OrganizationID: uuid.New()}
	_, err := svc.Stats(context.Background(), p, Query{})
	require.NoError(t, err)
	_, err = svc.Stats(context.Background(), p, Query{})
	require.NoError(t, err)
	assert.Equal(t, int32(4), repo.calls.Load())
	assert.NoError(t, Invalidator{}.HandleSaleEvent(context.Background(), sales.Event{}))
}

func TestStatsServeUncachedWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	repo := &memoryRepo{}
	svc := NewService(repo, NewCache(client, time.Minute), slog.New(slog.NewTextHandler(io.Discard, nil)))
	mr.Close()

	out, err := svc.Stats(context.Background(), shared.Principal{OrganizationID: uuid.New()}, Query{})
	require.NoError(t, err)
	assert.NotNil(t, out.SalesByDay)
	assert.Equal(t, int32(2), repo.calls.Load())

	_, err = NewCache(client, time.Minute).Version(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCacheUnavailable)
}

func TestWarmBuildsEveryOrganization(t *testing.T) {
	repo := &memoryRepo{orgs: []uuid.UUID{uuid.New(), uuid.New()}}
	svc, _ := newTestService(t, repo)
	n, err := svc.Warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int32(4), repo.calls.Load())
}

func TestQueryFromValues(t *testing.T) {
	q := QueryFromValues(map[string][]string{"top_limit": {"500"}, "days": {"x"}})
	assert.Equal(t, MaxTopLimit, q.TopLimit)
	assert.Equal(t, DefaultDays, q.Days)
}

func TestHandlerServesStatsToViewers(t *testing.T) {
	svc, _ := newTestService(t, &memoryRepo{})
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, rbac.Middleware{})
	r := chi.NewRouter()
	r.Route("/dashboard", h.MountRoutes)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(),
		shared.Principal{OrganizationID: uuid.New(), UserID: uuid.New(), Role: shared.RoleViewer}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, key := range []string{"sales_today", "sales_month", "low_stock_count", "average_ticket", "top_products", "sales_by_day"} {
		assert.Contains(t, body, key)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
