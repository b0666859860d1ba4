package sales

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/customers"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/inventory"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/products"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// ============================================================================
// IN-MEMORY REPOSITORY
// ============================================================================

type memoryState struct {
	products  map[uuid.UUID]products.Product
	customers map[uuid.UUID]customers.Customer
	sales     map[uuid.UUID]Sale
	movements []inventory.Movement
	sequences map[uuid.UUID]int64
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		products:  make(map[uuid.UUID]products.Product, len(s.products)),
		customers: make(map[uuid.UUID]customers.Customer, len(s.customers)),
		sales:     make(map[uuid.UUID]Sale, len(s.sales)),
		movements: append([]inventory.Movement(nil), s.movements...),
		sequences: make(map[uuid.UUID]int64, len(s.sequences)),
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.customers {
		out.customers[k] = v
	}
	for k, v := range s.sales {
		v.Items = append([]Item(nil), v.Items...)
		out.sales[k] = v
	}
	for k, v := range s.sequences {
		out.sequences[k] = v
	}
	return out
}

// memoryRepository serialises units of work with a mutex, which stands in
// for the row locks taken by the PostgreSQL implementation.
type memoryRepository struct {
	mu    sync.Mutex
	state memoryState
	// failAfterItems makes InsertItem fail once this many items were written.
	failAfterItems int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{state: memoryState{
		products:  map[uuid.UUID]products.Product{},
		customers: map[uuid.UUID]customers.Customer{},
		sales:     map[uuid.UUID]Sale{},
		sequences: map[uuid.UUID]int64{},
	}}
}

func (r *memoryRepository) WithinUnitOfWork(ctx context.Context, fn func(context.Context, UnitOfWork) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state.clone()
	if err := fn(ctx, &memoryUoW{st: &st, failAfterItems: r.failAfterItems}); err != nil {
		return err
	}
	r.state = st
	return nil
}

func (r *memoryRepository) Get(_ context.Context, orgID, id uuid.UUID) (Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.state.sales[id]
	if !ok || s.OrganizationID != orgID {
		return Sale{}, ErrSaleNotFound
	}
	return s, nil
}

func (r *memoryRepository) List(_ context.Context, f ListFilter) ([]Sale, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Sale{}
	for _, s := range r.state.sales {
		if s.OrganizationID != f.OrganizationID {
			continue
		}
		if f.CustomerID != nil && (s.CustomerID == nil || *s.CustomerID != *f.CustomerID) {
			continue
		}
		if f.From != nil && s.SaleDate.Before(*f.From) {
			continue
		}
		if f.To != nil && !s.SaleDate.Before(*f.To) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber > out[j].InvoiceNumber })
	return out, len(out), nil
}

func (r *memoryRepository) Stats(_ context.Context, orgID uuid.UUID, now time.Time) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dayStart, dayEnd := shared.DayWindow(now)
	monthStart, monthEnd := shared.MonthWindow(now)
	st := Stats{SalesTodayTotal: decimal.Zero, SalesMonthTotal: decimal.Zero}
	for _, s := range r.state.sales {
		if s.OrganizationID != orgID || s.Status != StatusCompleted {
			continue
		}
		if !s.SaleDate.Before(monthStart) && s.SaleDate.Before(monthEnd) {
			st.SalesMonthCount++
			st.SalesMonthTotal = st.SalesMonthTotal.Add(s.Total)
		}
		if !s.SaleDate.Before(dayStart) && s.SaleDate.Before(dayEnd) {
			st.SalesTodayCount++
			st.SalesTodayTotal = st.SalesTodayTotal.Add(s.Total)
		}
	}
	st.AverageTicket = AverageTicket(st.SalesMonthTotal, st.SalesMonthCount)
	return st, nil
}

func (r *memoryRepository) addProduct(orgID uuid.UUID, name string, price string, stock int) products.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	p := products.Product{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           name,
		SKU:            "SKU-" + name,
		SalePrice:      decimal.RequireFromString(price),
		StockQuantity:  stock,
		StockMin:       1,
		Unit:           "unit",
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.state.products[p.ID] = p
	return p
}

func (r *memoryRepository) addCustomer(orgID uuid.UUID) customers.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := customers.Customer{
		ID:             uuid.New(),
		OrganizationID: orgID,
		DocumentType:   "CC",
		DocumentNumber: uuid.NewString(),
		FirstName:      "Ana",
		LastName:       "Rojas",
		TotalPurchases: decimal.Zero,
		IsActive:       true,
	}
	r.state.customers[c.ID] = c
	return c
}

func (r *memoryRepository) product(id uuid.UUID) products.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.products[id]
}

func (r *memoryRepository) customer(id uuid.UUID) customers.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.customers[id]
}

func (r *memoryRepository) movements() []inventory.Movement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]inventory.Movement(nil), r.state.movements...)
}

func (r *memoryRepository) deleteProduct(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.state.products[id]
	now := time.Now().UTC()
	p.DeletedAt = &now
	p.IsActive = false
	r.state.products[id] = p
}

func (r *memoryRepository) update(fn func(*memoryState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.state)
}

// ============================================================================
// UNIT OF WORK
// ============================================================================

type memoryUoW struct {
	st             *memoryState
	items          int
	failAfterItems int
}

func (u *memoryUoW) Products() products.TxRepository   { return memoryProducts{st: u.st} }
func (u *memoryUoW) Customers() customers.PurchaseStats { return memoryStats{st: u.st} }

func (u *memoryUoW) NextInvoiceNumber(_ context.Context, orgID uuid.UUID) (int64, error) {
	if _, ok := u.st.sequences[orgID]; !ok {
		var count int64
		for _, s := range u.st.sales {
			if s.OrganizationID == orgID {
				count++
			}
		}
		u.st.sequences[orgID] = count
	}
	u.st.sequences[orgID]++
	return u.st.sequences[orgID], nil
}

func (u *memoryUoW) InsertSale(_ context.Context, s Sale) error {
	for _, existing := range u.st.sales {
		if existing.OrganizationID == s.OrganizationID && existing.InvoiceNumber == s.InvoiceNumber {
			return shared.ErrConflict
		}
	}
	s.Items = nil
	u.st.sales[s.ID] = s
	return nil
}

func (u *memoryUoW) InsertItem(_ context.Context, it Item) error {
	if u.failAfterItems > 0 && u.items >= u.failAfterItems {
		return errFailingStorage
	}
	u.items++
	s := u.st.sales[it.SaleID]
	s.Items = append(s.Items, it)
	u.st.sales[it.SaleID] = s
	return nil
}

func (u *memoryUoW) LockSale(_ context.Context, orgID, id uuid.UUID) (Sale, error) {
	s, ok := u.st.sales[id]
	if !ok || s.OrganizationID != orgID {
		return Sale{}, ErrSaleNotFound
	}
	return s, nil
}

func (u *memoryUoW) MarkCancelled(_ context.Context, s Sale) error {
	existing, ok := u.st.sales[s.ID]
	if !ok {
		return ErrSaleNotFound
	}
	existing.Status = s.Status
	existing.CancelledAt = s.CancelledAt
	existing.CancelledBy = s.CancelledBy
	existing.CancellationReason = s.CancellationReason
	existing.UpdatedAt = s.UpdatedAt
	u.st.sales[s.ID] = existing
	return nil
}

type memoryProducts struct {
	st *memoryState
}

func (m memoryProducts) Insert(_ context.Context, p products.Product) error {
	m.st.products[p.ID] = p
	return nil
}

func (m memoryProducts) LockProduct(_ context.Context, orgID, id uuid.UUID) (products.Product, error) {
	p, ok := m.st.products[id]
	if !ok || p.OrganizationID != orgID || p.DeletedAt != nil {
		return products.Product{}, products.ErrProductNotFound
	}
	return p, nil
}

func (m memoryProducts) LockStock(ctx context.Context, orgID, id uuid.UUID) (inventory.Stock, error) {
	p, err := m.LockProduct(ctx, orgID, id)
	if err != nil {
		return inventory.Stock{}, err
	}
	return p.Stock(), nil
}

func (m memoryProducts) SetStock(_ context.Context, stock inventory.Stock) error {
	p := m.st.products[stock.ProductID]
	p.StockQuantity = stock.Quantity
	p.UpdatedAt = stock.UpdatedAt
	m.st.products[stock.ProductID] = p
	return nil
}

func (m memoryProducts) InsertMovement(_ context.Context, mv inventory.Movement) error {
	m.st.movements = append(m.st.movements, mv)
	return nil
}

type memoryStats struct {
	st *memoryState
}

func (m memoryStats) LockCustomer(_ context.Context, orgID, id uuid.UUID) (customers.Customer, error) {
	c, ok := m.st.customers[id]
	if !ok || c.OrganizationID != orgID || c.DeletedAt != nil {
		return customers.Customer{}, customers.ErrCustomerNotFound
	}
	return c, nil
}

func (m memoryStats) RecordPurchase(_ context.Context, orgID, id uuid.UUID, amount decimal.Decimal, at time.Time) error {
	c, ok := m.st.customers[id]
	if !ok || c.OrganizationID != orgID {
		return customers.ErrCustomerNotFound
	}
	c.PurchasesCount++
	c.TotalPurchases = c.TotalPurchases.Add(amount)
	c.LastPurchaseAt = &at
	m.st.customers[id] = c
	return nil
}

func (m memoryStats) RevertPurchase(_ context.Context, orgID, id uuid.UUID, amount decimal.Decimal, _ time.Time) error {
	c, ok := m.st.customers[id]
	if !ok || c.OrganizationID != orgID {
		return nil
	}
	if c.PurchasesCount > 0 {
		c.PurchasesCount--
	}
	c.TotalPurchases = c.TotalPurchases.Sub(amount)
	if c.TotalPurchases.IsNegative() {
		c.TotalPurchases = decimal.Zero
	}
	m.st.customers[id] = c
	return nil
}

// ============================================================================
// COLLABORATORS
// ============================================================================

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: map[string]bool{}}
}

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

type recordingAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []Event
}

func (e *recordingEvents) HandleSaleEvent(_ context.Context, evt Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, evt)
	return nil
}

type customerLookup struct {
	repo *memoryRepository
}

func (l customerLookup) Get(_ context.Context, orgID, id uuid.UUID) (customers.Customer, error) {
	c := l.repo.customer(id)
	if c.ID == uuid.Nil || c.OrganizationID != orgID || c.DeletedAt != nil {
		return customers.Customer{}, customers.ErrCustomerNotFound
	}
	return c, nil
}
