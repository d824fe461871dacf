package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warelog-erp/warelog-erp/internal/observability"
	"github.com/warelog-erp/warelog-erp/internal/receipt"
	"github.com/warelog-erp/warelog-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBalance(ctx context.Context, sku string) (Balance, error)
	ListMovements(ctx context.Context, sku string, limit int) ([]Movement, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service applies stock movements to the ledger.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	allowNeg bool
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AllowNegativeStock bool
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, cfg ServiceConfig) *Service {
	return &Service{repo: repo, audit: audit, allowNeg: cfg.AllowNegativeStock}
}

// PostMovement applies one signed movement and updates the balance.
func (s *Service) PostMovement(ctx context.Context, input MovementInput) (Movement, error) {
	if input.SKU == "" {
		return Movement{}, errors.New("inventory: sku required")
	}
	if input.Quantity == 0 {
		return Movement{}, ErrInvalidQuantity
	}
	now := time.Now().UTC()
	movement := Movement{
		SKU:      input.SKU,
		Name:     input.Name,
		Quantity: input.Quantity,
		Source:   input.Source,
		Context:  input.Context,
		RefID:    input.RefID,
		PostedAt: now,
	}
	if input.Quantity > 0 {
		movement.Direction = DirectionAdd
	} else {
		movement.Direction = DirectionRemove
		movement.Quantity = -input.Quantity
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.GetBalanceForUpdate(ctx, input.SKU)
		if err != nil && !errors.Is(err, ErrBalanceNotFound) {
			return err
		}
		if errors.Is(err, ErrBalanceNotFound) {
			balance = Balance{SKU: input.SKU}
		}
		balance.Qty += input.Quantity
		balance.UpdatedAt = now
		if !s.allowNeg && balance.Qty < 0 {
			return ErrNegativeStock
		}
		id, err := tx.InsertMovement(ctx, movement)
		if err != nil {
			return err
		}
		movement.ID = id
		return tx.UpsertBalance(ctx, balance)
	})
	if err != nil {
		return Movement{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   fmt.Sprintf("inventory:%s", movement.Direction),
			Entity:   "inventory_movement",
			EntityID: movement.SKU,
			Meta: map[string]any{
				"qty":     input.Quantity,
				"source":  input.Source,
				"context": input.Context,
			},
		})
	}
	return movement, nil
}

// GetBalance returns the current stock level for one SKU.
func (s *Service) GetBalance(ctx context.Context, sku string) (Balance, error) {
	return s.repo.GetBalance(ctx, sku)
}

// ListMovements returns recent ledger entries for one SKU.
func (s *Service) ListMovements(ctx context.Context, sku string, limit int) ([]Movement, error) {
	return s.repo.ListMovements(ctx, sku, limit)
}

// LedgerAdapter lets the receipt service hand over its computed stock
// movements without knowing ledger internals.
type LedgerAdapter struct {
	service *Service
	metrics *observability.Metrics
}

// NewLedgerAdapter wraps the inventory service as a receipt ledger port.
func NewLedgerAdapter(service *Service, metrics *observability.Metrics) *LedgerAdapter {
	return &LedgerAdapter{service: service, metrics: metrics}
}

// PostMovement converts a receipt projection into a ledger posting.
func (a *LedgerAdapter) PostMovement(ctx context.Context, move receipt.StockMovement, refID string) error {
	_, err := a.service.PostMovement(ctx, MovementInput{
		SKU:      move.SKU,
		Name:     move.Name,
		Quantity: move.Quantity,
		Source:   move.Source,
		Context:  string(move.Context),
		RefID:    refID,
	})
	if err != nil {
		return err
	}
	a.metrics.MovementPosted(string(move.Context))
	return nil
}
