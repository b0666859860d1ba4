package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

type memoryRepo struct {
	stocks    map[uuid.UUID]Stock
	movements []Movement
}

type memoryTx struct {
	stocks    map[uuid.UUID]Stock
	movements []Movement
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stocks: make(map[uuid.UUID]Stock)}
}

func (r *memoryRepo) addProduct(orgID uuid.UUID, qty int) uuid.UUID {
	id := uuid.New()
	r.stocks[id] = Stock{ProductID: id, OrganizationID: orgID, Quantity: qty, UpdatedAt: time.Now().UTC()}
	return id
}

// WithTx works on a copy and only publishes it when fn succeeds.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{stocks: make(map[uuid.UUID]Stock, len(r.stocks))}
	for id, s := range r.stocks {
		tx.stocks[id] = s
	}
	tx.movements = append(tx.movements, r.movements...)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.stocks = tx.stocks
	r.movements = tx.movements
	return nil
}

func (r *memoryRepo) GetMovement(_ context.Context, orgID, id uuid.UUID) (Movement, error) {
	for _, m := range r.movements {
		if m.ID == id && m.OrganizationID == orgID {
			return m, nil
		}
	}
	return Movement{}, ErrMovementNotFound
}

func (r *memoryRepo) ListMovements(_ context.Context, filter MovementFilter) ([]Movement, int, error) {
	var out []Movement
	for i := len(r.movements) - 1; i >= 0; i-- {
		m := r.movements[i]
		if m.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

func (r *memoryRepo) ProductExists(_ context.Context, orgID, productID uuid.UUID) (bool, error) {
	s, ok := r.stocks[productID]
	return ok && s.OrganizationID == orgID, nil
}

func (tx *memoryTx) LockStock(_ context.Context, orgID, productID uuid.UUID) (Stock, error) {
	s, ok := tx.stocks[productID]
	if !ok || s.OrganizationID != orgID {
		return Stock{}, ErrProductNotFound
	}
	return s, nil
}

func (tx *memoryTx) SetStock(_ context.Context, stock Stock) error {
	tx.stocks[stock.ProductID] = stock
	return nil
}

func (tx *memoryTx) InsertMovement(_ context.Context, m Movement) error {
	tx.movements = append(tx.movements, m)
	return nil
}

type recordingHook struct {
	events []MovementRecordedEvent
}

func (h *recordingHook) HandleMovementRecorded(_ context.Context, evt MovementRecordedEvent) error {
	h.events = append(h.events, evt)
	return nil
}

type failingHook struct{}

func (failingHook) HandleMovementRecorded(context.Context, MovementRecordedEvent) error {
	return errors.New("cache down")
}

func principal(orgID uuid.UUID) shared.Principal {
	return shared.Principal{OrganizationID: orgID, UserID: uuid.New(), Role: shared.RoleSeller}
}

func TestManualMovementTypes(t *testing.T) {
	repo := newMemoryRepo()
	orgID := uuid.New()
	productID := repo.addProduct(orgID, 10)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, principal(orgID), MovementRequest{ProductID: productID, Type: MovementSale, Quantity: -1})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.RecordMovement(ctx, principal(orgID), MovementRequest{ProductID: productID, Type: "transfer", Quantity: 1})
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.Empty(t, repo.movements)
	require.Equal(t, 10, repo.stocks[productID].Quantity)

	for _, typ := range []MovementType{MovementPurchase, MovementAdjustment, MovementReturn} {
		_, err := svc.RecordMovement(ctx, principal(orgID), MovementRequest{ProductID: productID, Type: typ, Quantity: 2})
		require.NoError(t, err, typ)
	}
	require.Equal(t, 16, repo.stocks[productID].Quantity)
	require.Len(t, repo.movements, 3)
}

func TestMovementBalanceInvariant(t *testing.T) {
	repo := newMemoryRepo()
	orgID := uuid.New()
	productID := repo.addProduct(orgID, 4)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	for _, delta := range []int{6, -3, -7, 12} {
		_, err := svc.RecordMovement(ctx, principal(orgID), MovementRequest{ProductID: productID, Type: MovementAdjustment, Quantity: delta})
		require.NoError(t, err)
	}
	for _, m := range repo.movements {
		require.Equal(t, m.PreviousStock+m.Quantity, m.NewStock)
		require.GreaterOrEqual(t, m.NewStock, 0)
	}
	require.Equal(t, 12, repo.stocks[productID].Quantity)
}

func TestNegativeStockGuard(t *testing.T) {
	repo := newMemoryRepo()
	orgID := uuid.New()
	productID := repo.addProduct(orgID, 3)
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.AdjustStock(context.Background(), principal(orgID), productID, StockAdjustmentRequest{Quantity: -5, Reason: "damaged"})
	require.ErrorIs(t, err, ErrNegativeStock)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Equal(t, 3, repo.stocks[productID].Quantity)
	require.Empty(t, repo.movements)
}

func TestAdjustStockRequiresReason(t *testing.T) {
	repo := newMemoryRepo()
	orgID := uuid.New()
	productID := repo.addProduct(orgID, 3)
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.AdjustStock(context.Background(), principal(orgID), productID, StockAdjustmentRequest{Quantity: 1})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestMovementIsTenantScoped(t *testing.T) {
	repo := newMemoryRepo()
	productID := repo.addProduct(uuid.New(), 3)
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, principal(uuid.New()), MovementRequest{ProductID: productID, Type: MovementPurchase, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.ListByProduct(ctx, principal(uuid.New()), productID, shared.NewPage(0, 0))
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestHooksReceiveCommittedMovements(t *testing.T) {
	repo := newMemoryRepo()
	orgID := uuid.New()
	productID := repo.addProduct(orgID, 0)
	hook := &recordingHook{}
	svc := NewService(repo, nil, nil, Hooks{hook, failingHook{}}, nil)
	ctx := context.Background()

	m, err := svc.RecordMovement(ctx, principal(orgID), MovementRequest{ProductID: productID, Type: MovementPurchase, Quantity: 8})
	require.NoError(t, err)
	require.Len(t, hook.events, 1)
	require.Equal(t, 8, hook.events[0].NewStock)

	got, err := svc.GetMovement(ctx, principal(orgID), m.ID)
	require.NoError(t, err)
	require.Equal(t, m, got)

	list, err := svc.ListByProduct(ctx, principal(orgID), productID, shared.NewPage(0, 0))
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
}

func TestLedgerRejectsZeroDelta(t *testing.T) {
	ledger := NewLedger()
	tx := &memoryTx{stocks: map[uuid.UUID]Stock{}}
	stock := Stock{ProductID: uuid.New(), OrganizationID: uuid.New(), Quantity: 1}

	_, err := ledger.Adjust(context.Background(), tx, &stock, Entry{Type: MovementAdjustment})
	require.ErrorIs(t, err, ErrZeroQuantity)
	require.Equal(t, 1, stock.Quantity)
}

func TestLedgerStampsClock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := NewLedger()
	ledger.clock = func() time.Time { return fixed }
	tx := &memoryTx{stocks: map[uuid.UUID]Stock{}}
	stock := Stock{ProductID: uuid.New(), OrganizationID: uuid.New(), Quantity: 10}

	m, err := ledger.Adjust(context.Background(), tx, &stock, Entry{Type: MovementSale, Delta: -2})
	require.NoError(t, err)
	require.Equal(t, fixed, m.CreatedAt)
	require.Equal(t, fixed, stock.UpdatedAt)
	require.Equal(t, 8, stock.Quantity)
	require.Equal(t, 10, m.PreviousStock)
	require.Equal(t, 8, tx.stocks[stock.ProductID].Quantity)
}
