package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/inventory"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/sales"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// Service builds dashboards from the repository behind a versioned cache.
// Concurrent misses for the same key share a single build.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
	group  singleflight.Group

	// buildTimeout bounds a shared build, which outlives the caller that started it.
	buildTimeout time.Duration
}

const defaultBuildTimeout = 30 * time.Second

// NewService wires a Repository with a Cache helper. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now, buildTimeout: defaultBuildTimeout}
}

// Stats returns the dashboard of the principal's organization.
func (s *Service) Stats(ctx context.Context, p shared.Principal, q Query) (Dashboard, error) {
	return s.stats(ctx, p.OrganizationID, q.Normalize())
}

// Warm rebuilds the default dashboard of every active organization.
func (s *Service) Warm(ctx context.Context) (int, error) {
	orgs, err := s.repo.OrganizationIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("dashboard: list organizations: %w", err)
	}
	warmed := 0
	for _, orgID := range orgs {
		if _, err := s.stats(ctx, orgID, Query{}.Normalize()); err != nil {
			s.logger.Warn("dashboard warmup failed", slog.String("organization_id", orgID.String()), slog.Any("error", err))
			continue
		}
		warmed++
	}
	return warmed, nil
}

func (s *Service) stats(ctx context.Context, orgID uuid.UUID, q Query) (Dashboard, error) {
	now := s.now().UTC()
	key, err := s.cache.BuildKey(ctx, orgID, "stats", now.Format("2006-01-02"),
		strconv.Itoa(q.TopLimit), strconv.Itoa(q.Days))
	if err != nil {
		s.logger.Warn("dashboard cache key", slog.String("organization_id", orgID.String()), slog.Any("error", err))
		return s.build(ctx, orgID, now, q)
	}
	ch := s.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.buildTimeout)
		defer cancel()
		var out Dashboard
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			return s.build(ctx, orgID, now, q)
		})
		if errors.Is(err, ErrCacheUnavailable) {
			s.logger.Warn("dashboard cache", slog.String("organization_id", orgID.String()), slog.Any("error", err))
			// A failed write still leaves the freshly built value in out.
			if out.SalesByDay == nil {
				return s.build(ctx, orgID, now, q)
			}
			err = nil
		}
		return out, err
	})
	select {
	case <-ctx.Done():
		return Dashboard{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Dashboard{}, res.Err
		}
		return res.Val.(Dashboard), nil
	}
}

func (s *Service) build(ctx context.Context, orgID uuid.UUID, now time.Time, q Query) (Dashboard, error) {
	dayStart, dayEnd := shared.DayWindow(now)
	monthStart, monthEnd := shared.MonthWindow(now)

	today, err := s.repo.SalesTotals(ctx, orgID, dayStart, dayEnd)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: sales today: %w", err)
	}
	month, err := s.repo.SalesTotals(ctx, orgID, monthStart, monthEnd)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: sales month: %w", err)
	}
	lowStock, err := s.repo.LowStockCount(ctx, orgID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: low stock: %w", err)
	}
	top, err := s.repo.TopProducts(ctx, orgID, monthStart, monthEnd, q.TopLimit)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: top products: %w", err)
	}
	byDay, err := s.repo.SalesByDay(ctx, orgID, dayStart.AddDate(0, 0, -(q.Days-1)), dayEnd)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: sales by day: %w", err)
	}
	if top == nil {
		top = []TopProduct{}
	}
	if byDay == nil {
		byDay = []DayTotal{}
	}
	return Dashboard{
		SalesToday:    today,
		SalesMonth:    month,
		LowStockCount: lowStock,
		AverageTicket: sales.AverageTicket(month.Total, month.Count),
		TopProducts:   top,
		SalesByDay:    byDay,
	}, nil
}

// Invalidator bumps an organization's dashboard cache whenever a sale or a
// stock movement commits.
type Invalidator struct {
	Cache *Cache
}

// HandleMovementRecorded implements inventory.MovementHook.
func (i Invalidator) HandleMovementRecorded(ctx context.Context, evt inventory.MovementRecordedEvent) error {
	return i.Cache.Bump(ctx, evt.OrganizationID)
}

// HandleSaleEvent implements sales.EventHook.
func (i Invalidator) HandleSaleEvent(ctx context.Context, evt sales.Event) error {
	return i.Cache.Bump(ctx, evt.OrganizationID)
}
