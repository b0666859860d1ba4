package customers

type CreateCustomerRequest struct {
	DocumentType   string  `json:"document_type" validate:"required,max=50"`
	DocumentNumber string  `json:"document_number" validate:"required,max=50"`
	FirstName      string  `json:"first_name" validate:"required,max=100"`
	LastName       string  `json:"last_name" validate:"required,max=100"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address        *string `json:"address,omitempty"`
	City           *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country        *string `json:"country,omitempty" validate:"omitempty,max=100"`
	Notes          *string `json:"notes,omitempty"`
}

type UpdateCustomerRequest struct {
	DocumentType   *string `json:"document_type,omitempty" validate:"omitempty,min=1,max=50"`
	DocumentNumber *string `json:"document_number,omitempty" validate:"omitempty,min=1,max=50"`
	FirstName      *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName       *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address        *string `json:"address,omitempty"`
	City           *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country        *string `json:"country,omitempty" validate:"omitempty,max=100"`
	Notes          *string `json:"notes,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
}
