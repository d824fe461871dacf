package procurement

import (
	"context"
	"time"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	GetOrder(ctx context.Context, id string) (PurchaseOrder, []OrderLine, error)
	ListOrders(ctx context.Context) ([]PurchaseOrder, error)
	AcceptedTotals(ctx context.Context, orderID string) (map[string]int, error)
	AppendDeliveryLog(ctx context.Context, entries []DeliveryLogEntry) error
}

// Service exposes purchase-order reads and the delivery-history accumulator
// to the receipt flow.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the procurement service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetOrder returns the order header and its expected lines.
func (s *Service) GetOrder(ctx context.Context, id string) (PurchaseOrder, []OrderLine, error) {
	if id == "" {
		return PurchaseOrder{}, nil, ErrValidation
	}
	return s.repo.GetOrder(ctx, id)
}

// AcceptedTotals returns the per-SKU sum of accepted quantities from all
// prior delivery events against the order.
func (s *Service) AcceptedTotals(ctx context.Context, orderID string) (map[string]int, error) {
	if orderID == "" {
		return map[string]int{}, nil
	}
	return s.repo.AcceptedTotals(ctx, orderID)
}

// ListOpenOrders filters orders down to those still eligible for a goods
// receipt: not archived, cancelled or force-closed, with cumulative
// accepted below the ordered total.
func (s *Service) ListOpenOrders(ctx context.Context) ([]PurchaseOrder, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	open := make([]PurchaseOrder, 0, len(orders))
	for _, order := range orders {
		if order.Archived || order.ForceClosed || order.Status == OrderStatusCancelled {
			continue
		}
		_, lines, err := s.repo.GetOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		totals, err := s.repo.AcceptedTotals(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		expected, received := 0, 0
		for _, line := range lines {
			expected += line.QuantityExpected
			received += totals[line.SKU]
		}
		if expected > 0 && received >= expected {
			continue
		}
		open = append(open, order)
	}
	return open, nil
}

// RecordDeliveries appends accepted quantities to the delivery log. Entries
// with zero accepted quantity are skipped; they carry no history.
func (s *Service) RecordDeliveries(ctx context.Context, orderID, deliveryNote string, accepted map[string]int, at time.Time) error {
	if orderID == "" {
		return nil
	}
	entries := make([]DeliveryLogEntry, 0, len(accepted))
	for sku, qty := range accepted {
		if qty == 0 {
			continue
		}
		entries = append(entries, DeliveryLogEntry{
			OrderID:      orderID,
			SKU:          sku,
			Accepted:     qty,
			DeliveryNote: deliveryNote,
			RecordedAt:   at,
		})
	}
	if len(entries) == 0 {
		return nil
	}
	return s.repo.AppendDeliveryLog(ctx, entries)
}
