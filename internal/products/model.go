package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/inventory"
)

// Product is a sellable catalog item. StockQuantity is written only by the
// inventory ledger.
type Product struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	CategoryID     *uuid.UUID      `json:"category_id,omitempty"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	Description    *string         `json:"description,omitempty"`
	ImageURL       *string         `json:"image_url,omitempty"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	StockQuantity  int             `json:"stock_quantity"`
	StockMin       int             `json:"stock_min"`
	StockMax       *int            `json:"stock_max,omitempty"`
	Unit           string          `json:"unit"`
	Barcode        *string         `json:"barcode,omitempty"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty"`
}

// Stock returns the ledger view of the product row.
func (p Product) Stock() inventory.Stock {
	return inventory.Stock{
		ProductID:      p.ID,
		OrganizationID: p.OrganizationID,
		Quantity:       p.StockQuantity,
		UpdatedAt:      p.UpdatedAt,
	}
}

// IsLowStock reports whether the product is at or below its minimum.
func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.StockMin
}
