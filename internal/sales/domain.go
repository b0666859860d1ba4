package sales

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// ============================================================================
// SALE
// ============================================================================

// Status is the lifecycle state of a sale.
type Status string

const (
	// StatusPending is reserved; the engine never writes it.
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// DefaultPaymentMethod applies when a request omits the payment method.
const DefaultPaymentMethod = "cash"

type Sale struct {
	ID                 uuid.UUID       `json:"id"`
	OrganizationID     uuid.UUID       `json:"organization_id"`
	CustomerID         *uuid.UUID      `json:"customer_id,omitempty"`
	UserID             uuid.UUID       `json:"user_id"`
	InvoiceNumber      string          `json:"invoice_number"`
	SaleDate           time.Time       `json:"sale_date"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Discount           decimal.Decimal `json:"discount"`
	Tax                decimal.Decimal `json:"tax"`
	Total              decimal.Decimal `json:"total"`
	PaymentMethod      string          `json:"payment_method"`
	Status             Status          `json:"status"`
	Notes              *string         `json:"notes,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancelledBy        *uuid.UUID      `json:"cancelled_by,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Items              []Item          `json:"items"`
}

// Item is a sale line. Name, SKU and price are snapshots taken at sale time.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	SaleID      uuid.UUID       `json:"sale_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CancelledSale is the cancellation result. SkippedRestock lists products
// that no longer existed and therefore were not restocked.
type CancelledSale struct {
	Sale
	SkippedRestock []uuid.UUID `json:"skipped_restock,omitempty"`
}

// ============================================================================
// REQUESTS
// ============================================================================

type ItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type CreateSaleRequest struct {
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,max=50"`
	Discount      decimal.Decimal `json:"discount" validate:"gte=0"`
	Tax           decimal.Decimal `json:"tax" validate:"gte=0"`
	Notes         *string         `json:"notes,omitempty"`
	Items         []ItemRequest   `json:"items" validate:"required,min=1,dive"`
}

type CancelSaleRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ============================================================================
// STATS
// ============================================================================

// Stats summarises completed sales for the current UTC day and month.
type Stats struct {
	SalesTodayCount int             `json:"sales_today_count"`
	SalesTodayTotal decimal.Decimal `json:"sales_today_total"`
	SalesMonthCount int             `json:"sales_month_count"`
	SalesMonthTotal decimal.Decimal `json:"sales_month_total"`
	AverageTicket   decimal.Decimal `json:"average_ticket"`
}

// AverageTicket divides total by count, returning zero for no sales.
func AverageTicket(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count))).Round(2)
}

// SaleTotal is max(0, subtotal - discount + tax) rounded to cents.
func SaleTotal(subtotal, discount, tax decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount).Add(tax)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}

// ============================================================================
// ERRORS
// ============================================================================

var (
	ErrSaleNotFound     = fmt.Errorf("%w: sale", shared.ErrNotFound)
	ErrAlreadyCancelled = fmt.Errorf("%w: sale is already cancelled", shared.ErrInvalidState)
)
