package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/customers"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/inventory"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/products"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

const idempotencyModule = "sales"

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort records processed request keys.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// CustomerLookup resolves customers for the per-customer sale listing.
type CustomerLookup interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (customers.Customer, error)
}

// Options groups optional collaborators. Every field may be left nil.
type Options struct {
	Ledger      *inventory.Ledger
	Audit       AuditPort
	Idempotency IdempotencyPort
	Movements   inventory.MovementHook
	Events      EventHook
	Logger      *slog.Logger
	Now         func() time.Time
}

// Service is the sale engine.
type Service struct {
	repo      Repository
	customers CustomerLookup
	ledger    *inventory.Ledger
	audit     AuditPort
	idem      IdempotencyPort
	movements inventory.MovementHook
	events    EventHook
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, customers CustomerLookup, opts Options) *Service {
	s := &Service{
		repo:      repo,
		customers: customers,
		ledger:    opts.Ledger,
		audit:     opts.Audit,
		idem:      opts.Idempotency,
		movements: opts.Movements,
		events:    opts.Events,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if s.ledger == nil {
		s.ledger = inventory.NewLedger()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// CreateSale validates every line against locked product rows, then writes
// the sale, its items, the stock movements and the customer statistics in
// one unit of work. idemKey is optional.
func (s *Service) CreateSale(ctx context.Context, p shared.Principal, req CreateSaleRequest, idemKey string) (Sale, error) {
	if err := shared.Validate(req); err != nil {
		return Sale{}, err
	}
	discount := req.Discount.Round(2)
	tax := req.Tax.Round(2)
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	key := ""
	if idemKey != "" && s.idem != nil {
		key = fmt.Sprintf("%s:%s", p.OrganizationID, idemKey)
		if err := s.idem.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
			return Sale{}, err
		}
	}

	var (
		sale      Sale
		movements []inventory.Movement
	)
	err := s.repo.WithinUnitOfWork(ctx, func(ctx context.Context, uow UnitOfWork) error {
		sale, movements = Sale{}, nil

		if req.CustomerID != nil {
			if _, err := uow.Customers().LockCustomer(ctx, p.OrganizationID, *req.CustomerID); err != nil {
				return err
			}
		}

		locked, err := lockProducts(ctx, uow.Products(), p.OrganizationID, req.Items)
		if err != nil {
			return err
		}

		now := s.now()
		sale = Sale{
			ID:             uuid.New(),
			OrganizationID: p.OrganizationID,
			CustomerID:     req.CustomerID,
			UserID:         p.UserID,
			SaleDate:       now,
			Discount:       discount,
			Tax:            tax,
			PaymentMethod:  paymentMethod,
			Status:         StatusCompleted,
			Notes:          req.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		subtotal := decimal.Zero
		for _, line := range req.Items {
			product := locked[line.ProductID]
			lineTotal := product.SalePrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
			subtotal = subtotal.Add(lineTotal)
			sale.Items = append(sale.Items, Item{
				ID:          uuid.New(),
				SaleID:      sale.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				ProductSKU:  product.SKU,
				Quantity:    line.Quantity,
				UnitPrice:   product.SalePrice,
				Subtotal:    lineTotal,
				CreatedAt:   now,
			})
		}
		sale.Subtotal = subtotal
		sale.Total = SaleTotal(subtotal, discount, tax)

		seq, err := uow.NextInvoiceNumber(ctx, p.OrganizationID)
		if err != nil {
			return err
		}
		sale.InvoiceNumber = FormatInvoice(seq)
		if err := uow.InsertSale(ctx, sale); err != nil {
			return err
		}

		reason := fmt.Sprintf("Sale %s", sale.InvoiceNumber)
		refType := inventory.ReferenceSale
		stocks := make(map[uuid.UUID]*inventory.Stock, len(locked))
		for id, product := range locked {
			st := product.Stock()
			stocks[id] = &st
		}
		for _, item := range sale.Items {
			if err := uow.InsertItem(ctx, item); err != nil {
				return err
			}
			saleID := sale.ID
			movement, err := s.ledger.Adjust(ctx, uow.Products(), stocks[item.ProductID], inventory.Entry{
				Type:          inventory.MovementSale,
				Delta:         -item.Quantity,
				ActorID:       p.UserID,
				ReferenceID:   &saleID,
				ReferenceType: &refType,
				Reason:        &reason,
			})
			if err != nil {
				return err
			}
			movements = append(movements, movement)
		}

		if sale.CustomerID != nil {
			if err := uow.Customers().RecordPurchase(ctx, p.OrganizationID, *sale.CustomerID, sale.Total, sale.SaleDate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if key != "" {
			if delErr := s.idem.Delete(ctx, key); delErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		return Sale{}, err
	}

	s.afterCommit(ctx, p, EventSaleCreated, sale, movements, map[string]any{
		"invoice_number": sale.InvoiceNumber,
		"total":          sale.Total.StringFixed(2),
		"items":          len(sale.Items),
	})
	return sale, nil
}

// lockProducts locks every distinct product in ascending id order, so
// concurrent sales over overlapping products cannot deadlock, and checks the
// summed demand per product before any write happens.
func lockProducts(ctx context.Context, tx products.TxRepository, orgID uuid.UUID, lines []ItemRequest) (map[uuid.UUID]products.Product, error) {
	demand := make(map[uuid.UUID]int, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, seen := demand[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		demand[line.ProductID] += line.Quantity
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	locked := make(map[uuid.UUID]products.Product, len(ids))
	for _, id := range ids {
		product, err := tx.LockProduct(ctx, orgID, id)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: product %s is not active", shared.ErrInvalidState, product.Name)
		}
		if product.StockQuantity < demand[id] {
			return nil, fmt.Errorf("%w: insufficient stock for product %s, available %d, requested %d",
				shared.ErrInsufficientStock, product.Name, product.StockQuantity, demand[id])
		}
		locked[id] = product
	}
	return locked, nil
}

// CancelSale restores stock and reverses customer statistics. Restocking is
// best effort: products deleted since the sale are skipped and reported.
func (s *Service) CancelSale(ctx context.Context, p shared.Principal, id uuid.UUID, req CancelSaleRequest) (CancelledSale, error) {
	if err := shared.Validate(req); err != nil {
		return CancelledSale{}, err
	}
	var (
		result    CancelledSale
		movements []inventory.Movement
	)
	err := s.repo.WithinUnitOfWork(ctx, func(ctx context.Context, uow UnitOfWork) error {
		result, movements = CancelledSale{}, nil

		sale, err := uow.LockSale(ctx, p.OrganizationID, id)
		if err != nil {
			return err
		}
		switch sale.Status {
		case StatusCompleted:
		case StatusCancelled:
			return ErrAlreadyCancelled
		default:
			return fmt.Errorf("%w: sale in status %s cannot be cancelled", shared.ErrInvalidState, sale.Status)
		}

		reason := fmt.Sprintf("Sale %s cancelled: %s", sale.InvoiceNumber, req.Reason)
		refType := inventory.ReferenceSale
		saleID := sale.ID
		items := append([]Item(nil), sale.Items...)
		sort.SliceStable(items, func(i, j int) bool { return items[i].ProductID.String() < items[j].ProductID.String() })
		skipped := map[uuid.UUID]bool{}
		for _, item := range items {
			if skipped[item.ProductID] {
				continue
			}
			stock, err := uow.Products().LockStock(ctx, p.OrganizationID, item.ProductID)
			if errors.Is(err, shared.ErrNotFound) {
				skipped[item.ProductID] = true
				result.SkippedRestock = append(result.SkippedRestock, item.ProductID)
				continue
			}
			if err != nil {
				return err
			}
			movement, err := s.ledger.Adjust(ctx, uow.Products(), &stock, inventory.Entry{
				Type:          inventory.MovementReturn,
				Delta:         item.Quantity,
				ActorID:       p.UserID,
				ReferenceID:   &saleID,
				ReferenceType: &refType,
				Reason:        &reason,
			})
			if err != nil {
				return err
			}
			movements = append(movements, movement)
		}

		now := s.now()
		if sale.CustomerID != nil {
			if err := uow.Customers().RevertPurchase(ctx, p.OrganizationID, *sale.CustomerID, sale.Total, now); err != nil {
				return err
			}
		}

		cancelledBy := p.UserID
		cancelReason := req.Reason
		sale.Status = StatusCancelled
		sale.CancelledAt = &now
		sale.CancelledBy = &cancelledBy
		sale.CancellationReason = &cancelReason
		sale.UpdatedAt = now
		if err := uow.MarkCancelled(ctx, sale); err != nil {
			return err
		}
		result.Sale = sale
		return nil
	})
	if err != nil {
		return CancelledSale{}, err
	}

	if len(result.SkippedRestock) > 0 {
		s.logger.Warn("sale cancelled without restocking deleted products",
			slog.String("sale_id", result.ID.String()),
			slog.String("invoice_number", result.InvoiceNumber),
			slog.Any("product_ids", result.SkippedRestock))
	}
	s.afterCommit(ctx, p, EventSaleCancelled, result.Sale, movements, map[string]any{
		"invoice_number":  result.InvoiceNumber,
		"reason":          req.Reason,
		"skipped_restock": len(result.SkippedRestock),
	})
	return result, nil
}

// Get returns a sale with its items.
func (s *Service) Get(ctx context.Context, p shared.Principal, id uuid.UUID) (Sale, error) {
	return s.repo.Get(ctx, p.OrganizationID, id)
}

// List returns the organization's sales, newest first.
func (s *Service) List(ctx context.Context, p shared.Principal, page shared.Page) (shared.List[Sale], error) {
	return s.list(ctx, ListFilter{OrganizationID: p.OrganizationID, Page: page})
}

// ListToday returns sales of the current UTC day.
func (s *Service) ListToday(ctx context.Context, p shared.Principal, page shared.Page) (shared.List[Sale], error) {
	start, end := shared.DayWindow(s.now())
	return s.list(ctx, ListFilter{OrganizationID: p.OrganizationID, From: &start, To: &end, Page: page})
}

// ListByCustomer returns the sales of one live customer.
func (s *Service) ListByCustomer(ctx context.Context, p shared.Principal, customerID uuid.UUID, page shared.Page) (shared.List[Sale], error) {
	if s.customers != nil {
		if _, err := s.customers.Get(ctx, p.OrganizationID, customerID); err != nil {
			return shared.List[Sale]{}, err
		}
	}
	return s.list(ctx, ListFilter{OrganizationID: p.OrganizationID, CustomerID: &customerID, Page: page})
}

// Stats summarises completed sales of the current UTC day and month.
func (s *Service) Stats(ctx context.Context, p shared.Principal) (Stats, error) {
	return s.repo.Stats(ctx, p.OrganizationID, s.now())
}

func (s *Service) list(ctx context.Context, filter ListFilter) (shared.List[Sale], error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return shared.List[Sale]{}, err
	}
	return shared.List[Sale]{Data: items, Count: total}, nil
}

func (s *Service) afterCommit(ctx context.Context, p shared.Principal, kind EventType, sale Sale, movements []inventory.Movement, meta map[string]any) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			OrganizationID: p.OrganizationID,
			ActorID:        p.UserID,
			Action:         string(kind),
			Entity:         "sale",
			EntityID:       sale.ID.String(),
			Meta:           meta,
			At:             sale.UpdatedAt,
		}); err != nil {
			s.logger.Warn("audit sale", slog.Any("error", err))
		}
	}
	if s.movements != nil {
		for _, evt := range inventory.EventsFromMovements(movements) {
			if err := s.movements.HandleMovementRecorded(ctx, evt); err != nil {
				s.logger.Warn("movement hooks", slog.Any("error", err))
			}
		}
	}
	if s.events != nil {
		evt := Event{
			Type:           kind,
			OrganizationID: sale.OrganizationID,
			SaleID:         sale.ID,
			InvoiceNumber:  sale.InvoiceNumber,
			Total:          sale.Total,
			At:             sale.UpdatedAt,
		}
		if err := s.events.HandleSaleEvent(ctx, evt); err != nil {
			s.logger.Warn("sale hooks", slog.Any("error", err))
		}
	}
}
