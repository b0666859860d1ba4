package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetMovement(ctx context.Context, orgID, id uuid.UUID) (Movement, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error)
	ProductExists(ctx context.Context, orgID, productID uuid.UUID) (bool, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates manual ledger entries and movement reads.
type Service struct {
	repo   RepositoryPort
	ledger *Ledger
	audit  AuditPort
	hooks  MovementHook
	logger *slog.Logger
}

// NewService builds Service. audit and hooks may be nil.
func NewService(repo RepositoryPort, ledger *Ledger, audit AuditPort, hooks MovementHook, logger *slog.Logger) *Service {
	if ledger == nil {
		ledger = NewLedger()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ledger: ledger, audit: audit, hooks: hooks, logger: logger}
}

// RecordMovement posts a manual purchase, adjustment or return.
func (s *Service) RecordMovement(ctx context.Context, p shared.Principal, req MovementRequest) (Movement, error) {
	if err := shared.Validate(req); err != nil {
		return Movement{}, err
	}
	if err := req.Type.CheckManual(); err != nil {
		return Movement{}, err
	}
	entry := Entry{
		Type:          req.Type,
		Delta:         req.Quantity,
		ActorID:       p.UserID,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		Reason:        req.Reason,
	}
	return s.post(ctx, p, req.ProductID, entry)
}

// AdjustStock applies a manual correction to a single product.
func (s *Service) AdjustStock(ctx context.Context, p shared.Principal, productID uuid.UUID, req StockAdjustmentRequest) (Movement, error) {
	if err := shared.Validate(req); err != nil {
		return Movement{}, err
	}
	reason := req.Reason
	entry := Entry{
		Type:    MovementAdjustment,
		Delta:   req.Quantity,
		ActorID: p.UserID,
		Reason:  &reason,
	}
	return s.post(ctx, p, productID, entry)
}

// GetMovement returns a single movement of the caller's organization.
func (s *Service) GetMovement(ctx context.Context, p shared.Principal, id uuid.UUID) (Movement, error) {
	return s.repo.GetMovement(ctx, p.OrganizationID, id)
}

// ListMovements lists the organization's movements, newest first.
func (s *Service) ListMovements(ctx context.Context, p shared.Principal, page shared.Page) (shared.List[Movement], error) {
	movements, total, err := s.repo.ListMovements(ctx, MovementFilter{OrganizationID: p.OrganizationID, Page: page})
	if err != nil {
		return shared.List[Movement]{}, err
	}
	return shared.List[Movement]{Data: movements, Count: total}, nil
}

// ListByProduct lists movements of one live product.
func (s *Service) ListByProduct(ctx context.Context, p shared.Principal, productID uuid.UUID, page shared.Page) (shared.List[Movement], error) {
	exists, err := s.repo.ProductExists(ctx, p.OrganizationID, productID)
	if err != nil {
		return shared.List[Movement]{}, err
	}
	if !exists {
		return shared.List[Movement]{}, ErrProductNotFound
	}
	movements, total, err := s.repo.ListMovements(ctx, MovementFilter{
		OrganizationID: p.OrganizationID,
		ProductID:      &productID,
		Page:           page,
	})
	if err != nil {
		return shared.List[Movement]{}, err
	}
	return shared.List[Movement]{Data: movements, Count: total}, nil
}

func (s *Service) post(ctx context.Context, p shared.Principal, productID uuid.UUID, entry Entry) (Movement, error) {
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		stock, err := tx.LockStock(ctx, p.OrganizationID, productID)
		if err != nil {
			return err
		}
		movement, err = s.ledger.Adjust(ctx, tx, &stock, entry)
		return err
	})
	if err != nil {
		return Movement{}, err
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			OrganizationID: p.OrganizationID,
			ActorID:        p.UserID,
			Action:         fmt.Sprintf("inventory:%s", movement.Type),
			Entity:         "inventory_movement",
			EntityID:       movement.ID.String(),
			Meta: map[string]any{
				"product_id":     movement.ProductID,
				"quantity":       movement.Quantity,
				"previous_stock": movement.PreviousStock,
				"new_stock":      movement.NewStock,
			},
			At: movement.CreatedAt,
		}); err != nil {
			s.logger.Warn("audit movement", slog.Any("error", err))
		}
	}
	s.Publish(ctx, []Movement{movement})
	return movement, nil
}

// Publish notifies hooks about committed movements. Hook failures are logged
// and never undo the commit.
func (s *Service) Publish(ctx context.Context, movements []Movement) {
	if s == nil || s.hooks == nil {
		return
	}
	var errs []error
	for _, evt := range EventsFromMovements(movements) {
		if err := s.hooks.HandleMovementRecorded(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("movement hooks", slog.Any("error", err))
	}
}
