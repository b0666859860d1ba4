package customers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a buyer within an organization. The purchase statistics are
// maintained by the sale engine through PurchaseStats.
type Customer struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	DocumentType   string          `json:"document_type"`
	DocumentNumber string          `json:"document_number"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          *string         `json:"email,omitempty"`
	Phone          *string         `json:"phone,omitempty"`
	Address        *string         `json:"address,omitempty"`
	City           *string         `json:"city,omitempty"`
	Country        *string         `json:"country,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	PurchasesCount int             `json:"purchases_count"`
	LastPurchaseAt *time.Time      `json:"last_purchase_at,omitempty"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty"`
}

// FullName joins first and last name.
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
