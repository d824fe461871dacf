package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryOrderRepo struct {
	orders map[string]PurchaseOrder
	lines  map[string][]OrderLine
	log    []DeliveryLogEntry
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{orders: make(map[string]PurchaseOrder), lines: make(map[string][]OrderLine)}
}

func (r *memoryOrderRepo) GetOrder(ctx context.Context, id string) (PurchaseOrder, []OrderLine, error) {
	order, ok := r.orders[id]
	if !ok {
		return PurchaseOrder{}, nil, ErrNotFound
	}
	return order, append([]OrderLine(nil), r.lines[id]...), nil
}

func (r *memoryOrderRepo) ListOrders(ctx context.Context) ([]PurchaseOrder, error) {
	orders := make([]PurchaseOrder, 0, len(r.orders))
	for _, o := range r.orders {
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *memoryOrderRepo) AcceptedTotals(ctx context.Context, orderID string) (map[string]int, error) {
	totals := make(map[string]int)
	for _, entry := range r.log {
		if entry.OrderID == orderID {
			totals[entry.SKU] += entry.Accepted
		}
	}
	return totals, nil
}

func (r *memoryOrderRepo) AppendDeliveryLog(ctx context.Context, entries []DeliveryLogEntry) error {
	r.log = append(r.log, entries...)
	return nil
}

func (r *memoryOrderRepo) add(order PurchaseOrder, lines ...OrderLine) {
	r.orders[order.ID] = order
	r.lines[order.ID] = lines
}

func TestListOpenOrders(t *testing.T) {
	repo := newMemoryOrderRepo()
	repo.add(PurchaseOrder{ID: "PO-1", Status: OrderStatusOpen},
		OrderLine{OrderID: "PO-1", SKU: "A", QuantityExpected: 10})
	repo.add(PurchaseOrder{ID: "PO-2", Status: OrderStatusOpen, Archived: true},
		OrderLine{OrderID: "PO-2", SKU: "B", QuantityExpected: 10})
	repo.add(PurchaseOrder{ID: "PO-3", Status: OrderStatusCancelled},
		OrderLine{OrderID: "PO-3", SKU: "C", QuantityExpected: 10})
	repo.add(PurchaseOrder{ID: "PO-4", Status: OrderStatusOpen, ForceClosed: true},
		OrderLine{OrderID: "PO-4", SKU: "D", QuantityExpected: 10})
	repo.add(PurchaseOrder{ID: "PO-5", Status: OrderStatusOpen},
		OrderLine{OrderID: "PO-5", SKU: "E", QuantityExpected: 4})
	repo.log = append(repo.log, DeliveryLogEntry{OrderID: "PO-5", SKU: "E", Accepted: 4})

	service := NewService(repo)
	open, err := service.ListOpenOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, "PO-1", open[0].ID)
}

func TestRecordDeliveriesAccumulates(t *testing.T) {
	repo := newMemoryOrderRepo()
	repo.add(PurchaseOrder{ID: "PO-1", Status: OrderStatusOpen},
		OrderLine{OrderID: "PO-1", SKU: "A", QuantityExpected: 10})
	service := NewService(repo)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, service.RecordDeliveries(ctx, "PO-1", "LS-1", map[string]int{"A": 4, "B": 0}, now))
	require.NoError(t, service.RecordDeliveries(ctx, "PO-1", "LS-2", map[string]int{"A": 3}, now))

	totals, err := service.AcceptedTotals(ctx, "PO-1")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"A": 7}, totals)

	// Zero quantities never reach the log.
	require.Len(t, repo.log, 2)
}

func TestRecordDeliveriesNegativeCorrection(t *testing.T) {
	repo := newMemoryOrderRepo()
	service := NewService(repo)
	ctx := context.Background()

	require.NoError(t, service.RecordDeliveries(ctx, "PO-1", "LS-1", map[string]int{"A": 5}, time.Now()))
	require.NoError(t, service.RecordDeliveries(ctx, "PO-1", "RÜCK-1", map[string]int{"A": -2}, time.Now()))

	totals, err := service.AcceptedTotals(ctx, "PO-1")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"A": 3}, totals)
}

func TestGetOrderValidation(t *testing.T) {
	service := NewService(newMemoryOrderRepo())
	_, _, err := service.GetOrder(context.Background(), "")
	require.ErrorIs(t, err, ErrValidation)
}
