package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateRequest is the payload for a new product. StockQuantity is booked as
// opening stock through the ledger.
type CreateRequest struct {
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	Name          string          `json:"name" validate:"required,max=255"`
	SKU           string          `json:"sku" validate:"required,max=100"`
	Description   *string         `json:"description,omitempty"`
	ImageURL      *string         `json:"image_url,omitempty" validate:"omitempty,max=500"`
	CostPrice     decimal.Decimal `json:"cost_price" validate:"gte=0"`
	SalePrice     decimal.Decimal `json:"sale_price" validate:"gte=0"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	StockMin      int             `json:"stock_min" validate:"gte=0"`
	StockMax      *int            `json:"stock_max,omitempty" validate:"omitempty,gte=0"`
	Unit          string          `json:"unit" validate:"omitempty,max=50"`
	Barcode       *string         `json:"barcode,omitempty" validate:"omitempty,max=100"`
	IsActive      *bool           `json:"is_active,omitempty"`
}

// UpdateRequest is a partial update. Stock cannot be changed here.
type UpdateRequest struct {
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	SKU         *string          `json:"sku,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string          `json:"description,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,max=500"`
	CostPrice   *decimal.Decimal `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty" validate:"omitempty,gte=0"`
	StockMin    *int             `json:"stock_min,omitempty" validate:"omitempty,gte=0"`
	StockMax    *int             `json:"stock_max,omitempty" validate:"omitempty,gte=0"`
	Unit        *string          `json:"unit,omitempty" validate:"omitempty,max=50"`
	Barcode     *string          `json:"barcode,omitempty" validate:"omitempty,max=100"`
	IsActive    *bool            `json:"is_active,omitempty"`
}
