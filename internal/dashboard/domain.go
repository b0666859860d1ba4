package dashboard

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultTopLimit = 5
	MaxTopLimit     = 50
	DefaultDays     = 7
	MaxDays         = 90
)

// Totals is a count of completed sales and their summed totals.
type Totals struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// TopProduct ranks a product by units sold in the current month.
type TopProduct struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// DayTotal aggregates one UTC calendar day. Date is formatted YYYY-MM-DD.
type DayTotal struct {
	Date  string          `json:"date"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Dashboard is the organization overview served by GET /dashboard/stats.
type Dashboard struct {
	SalesToday    Totals          `json:"sales_today"`
	SalesMonth    Totals          `json:"sales_month"`
	LowStockCount int             `json:"low_stock_count"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	TopProducts   []TopProduct    `json:"top_products"`
	SalesByDay    []DayTotal      `json:"sales_by_day"`
}

// Query tunes the list sections of the dashboard.
type Query struct {
	TopLimit int
	Days     int
}

// Normalize applies defaults and clamps out of range values.
func (q Query) Normalize() Query {
	if q.TopLimit <= 0 {
		q.TopLimit = DefaultTopLimit
	}
	if q.TopLimit > MaxTopLimit {
		q.TopLimit = MaxTopLimit
	}
	if q.Days <= 0 {
		q.Days = DefaultDays
	}
	if q.Days > MaxDays {
		q.Days = MaxDays
	}
	return q
}

// QueryFromValues reads top_limit and days from URL query values.
// Unparseable values fall back to defaults.
func QueryFromValues(v url.Values) Query {
	var q Query
	if n, err := strconv.Atoi(v.Get("top_limit")); err == nil {
		q.TopLimit = n
	}
	if n, err := strconv.Atoi(v.Get("days")); err == nil {
		q.Days = n
	}
	return q.Normalize()
}
