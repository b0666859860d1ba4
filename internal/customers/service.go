package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Create(ctx context.Context, p shared.Principal, req CreateCustomerRequest) (Customer, error) {
	if err := shared.Validate(req); err != nil {
		return Customer{}, err
	}
	doc := strings.TrimSpace(req.DocumentNumber)
	if err := s.ensureDocumentFree(ctx, p.OrganizationID, doc, uuid.Nil); err != nil {
		return Customer{}, err
	}
	now := s.now()
	c := Customer{
		ID:             uuid.New(),
		OrganizationID: p.OrganizationID,
		DocumentType:   strings.TrimSpace(req.DocumentType),
		DocumentNumber: doc,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		City:           req.City,
		Country:        req.Country,
		Notes:          req.Notes,
		TotalPurchases: decimal.Zero,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, p shared.Principal, id uuid.UUID) (Customer, error) {
	return s.repo.Get(ctx, p.OrganizationID, id)
}

func (s *Service) List(ctx context.Context, p shared.Principal, page shared.Page) (shared.List[Customer], error) {
	items, total, err := s.repo.List(ctx, p.OrganizationID, page)
	if err != nil {
		return shared.List[Customer]{}, err
	}
	return shared.List[Customer]{Data: items, Count: total}, nil
}

// Update edits contact data. Purchase statistics are not reachable from here.
func (s *Service) Update(ctx context.Context, p shared.Principal, id uuid.UUID, req UpdateCustomerRequest) (Customer, error) {
	if err := shared.Validate(req); err != nil {
		return Customer{}, err
	}
	c, err := s.repo.Get(ctx, p.OrganizationID, id)
	if err != nil {
		return Customer{}, err
	}
	if req.DocumentNumber != nil {
		doc := strings.TrimSpace(*req.DocumentNumber)
		if doc != c.DocumentNumber {
			if err := s.ensureDocumentFree(ctx, p.OrganizationID, doc, c.ID); err != nil {
				return Customer{}, err
			}
		}
		c.DocumentNumber = doc
	}
	if req.DocumentType != nil {
		c.DocumentType = strings.TrimSpace(*req.DocumentType)
	}
	if req.FirstName != nil {
		c.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		c.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.Phone != nil {
		c.Phone = req.Phone
	}
	if req.Address != nil {
		c.Address = req.Address
	}
	if req.City != nil {
		c.City = req.City
	}
	if req.Country != nil {
		c.Country = req.Country
	}
	if req.Notes != nil {
		c.Notes = req.Notes
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, p shared.Principal, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, p.OrganizationID, id, s.now())
}

func (s *Service) ensureDocumentFree(ctx context.Context, orgID uuid.UUID, doc string, self uuid.UUID) error {
	existing, err := s.repo.FindByDocument(ctx, orgID, doc)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return fmt.Errorf("%w: customer with document %q already exists", shared.ErrConflict, doc)
	}
	return nil
}
