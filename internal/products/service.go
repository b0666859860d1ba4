package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/inventory"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

const openingStockReason = "Opening stock"

// Service implements the product catalog.
type Service struct {
	repo   Repository
	ledger *inventory.Ledger
	hooks  inventory.MovementHook
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. hooks may be nil.
func NewService(repo Repository, ledger *inventory.Ledger, hooks inventory.MovementHook, logger *slog.Logger) *Service {
	if ledger == nil {
		ledger = inventory.NewLedger()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		ledger: ledger,
		hooks:  hooks,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a product and books any initial quantity as opening stock.
func (s *Service) Create(ctx context.Context, p shared.Principal, req CreateRequest) (Product, error) {
	if err := shared.Validate(req); err != nil {
		return Product{}, err
	}
	now := s.now()
	product := Product{
		ID:             uuid.New(),
		OrganizationID: p.OrganizationID,
		CategoryID:     req.CategoryID,
		Name:           strings.TrimSpace(req.Name),
		SKU:            normalizeSKU(req.SKU),
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		CostPrice:      req.CostPrice.Round(2),
		SalePrice:      req.SalePrice.Round(2),
		StockMin:       req.StockMin,
		StockMax:       req.StockMax,
		Unit:           req.Unit,
		Barcode:        req.Barcode,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if product.Unit == "" {
		product.Unit = "unit"
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := validateProduct(product); err != nil {
		return Product{}, err
	}
	if err := s.ensureSKUFree(ctx, p.OrganizationID, product.SKU, uuid.Nil); err != nil {
		return Product{}, err
	}

	var opening *inventory.Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.Insert(ctx, product); err != nil {
			return err
		}
		if req.StockQuantity == 0 {
			return nil
		}
		stock := product.Stock()
		reason := openingStockReason
		movement, err := s.ledger.Adjust(ctx, tx, &stock, inventory.Entry{
			Type:    inventory.MovementPurchase,
			Delta:   req.StockQuantity,
			ActorID: p.UserID,
			Reason:  &reason,
		})
		if err != nil {
			return err
		}
		product.StockQuantity = stock.Quantity
		product.UpdatedAt = stock.UpdatedAt
		opening = &movement
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	if opening != nil {
		s.publish(ctx, *opening)
	}
	return product, nil
}

// Get returns a live product.
func (s *Service) Get(ctx context.Context, p shared.Principal, id uuid.UUID) (Product, error) {
	return s.repo.Get(ctx, p.OrganizationID, id)
}

// List returns the organization's live products.
func (s *Service) List(ctx context.Context, p shared.Principal, page shared.Page) (shared.List[Product], error) {
	items, total, err := s.repo.List(ctx, p.OrganizationID, page)
	if err != nil {
		return shared.List[Product]{}, err
	}
	return shared.List[Product]{Data: items, Count: total}, nil
}

// LowStock lists active products at or below their minimum.
func (s *Service) LowStock(ctx context.Context, p shared.Principal, page shared.Page) (shared.List[Product], error) {
	items, total, err := s.repo.ListLowStock(ctx, p.OrganizationID, page)
	if err != nil {
		return shared.List[Product]{}, err
	}
	return shared.List[Product]{Data: items, Count: total}, nil
}

// Update applies a partial update. Stock is left to the ledger.
func (s *Service) Update(ctx context.Context, p shared.Principal, id uuid.UUID, req UpdateRequest) (Product, error) {
	if err := shared.Validate(req); err != nil {
		return Product{}, err
	}
	product, err := s.repo.Get(ctx, p.OrganizationID, id)
	if err != nil {
		return Product{}, err
	}
	if req.SKU != nil {
		sku := normalizeSKU(*req.SKU)
		if sku != product.SKU {
			if err := s.ensureSKUFree(ctx, p.OrganizationID, sku, product.ID); err != nil {
				return Product{}, err
			}
		}
		product.SKU = sku
	}
	applyUpdate(&product, req)
	product.UpdatedAt = s.now()
	if err := validateProduct(product); err != nil {
		return Product{}, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// Delete soft-deletes a product. Its movements and sale snapshots remain.
func (s *Service) Delete(ctx context.Context, p shared.Principal, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, p.OrganizationID, id, s.now())
}

func (s *Service) ensureSKUFree(ctx context.Context, orgID uuid.UUID, sku string, self uuid.UUID) error {
	existing, err := s.repo.FindBySKU(ctx, orgID, sku)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return fmt.Errorf("%w: product with SKU %q already exists", shared.ErrConflict, sku)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, movement inventory.Movement) {
	if s.hooks == nil {
		return
	}
	for _, evt := range inventory.EventsFromMovements([]inventory.Movement{movement}) {
		if err := s.hooks.HandleMovementRecorded(ctx, evt); err != nil {
			s.logger.Warn("movement hooks", slog.Any("error", err))
		}
	}
}

func applyUpdate(p *Product, req UpdateRequest) {
	if req.CategoryID != nil {
		p.CategoryID = req.CategoryID
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.ImageURL != nil {
		p.ImageURL = req.ImageURL
	}
	if req.CostPrice != nil {
		p.CostPrice = req.CostPrice.Round(2)
	}
	if req.SalePrice != nil {
		p.SalePrice = req.SalePrice.Round(2)
	}
	if req.StockMin != nil {
		p.StockMin = *req.StockMin
	}
	if req.StockMax != nil {
		p.StockMax = req.StockMax
	}
	if req.Unit != nil {
		p.Unit = *req.Unit
	}
	if req.Barcode != nil {
		p.Barcode = req.Barcode
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}
