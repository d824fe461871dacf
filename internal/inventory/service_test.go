package inventory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warelog-erp/warelog-erp/internal/observability"
	"github.com/warelog-erp/warelog-erp/internal/receipt"
)

type memoryInventoryRepo struct {
	balances  map[string]Balance
	movements []Movement
	nextID    int64
}

type memoryInventoryTx struct {
	repo *memoryInventoryRepo
}

func newMemoryInventoryRepo() *memoryInventoryRepo {
	return &memoryInventoryRepo{balances: make(map[string]Balance)}
}

func (r *memoryInventoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryInventoryTx{repo: r})
}

func (r *memoryInventoryRepo) GetBalance(ctx context.Context, sku string) (Balance, error) {
	balance, ok := r.balances[sku]
	if !ok {
		return Balance{}, ErrBalanceNotFound
	}
	return balance, nil
}

func (r *memoryInventoryRepo) ListMovements(ctx context.Context, sku string, limit int) ([]Movement, error) {
	var out []Movement
	for _, m := range r.movements {
		if m.SKU == sku {
			out = append(out, m)
		}
	}
	return out, nil
}

func (tx *memoryInventoryTx) GetBalanceForUpdate(ctx context.Context, sku string) (Balance, error) {
	return tx.repo.GetBalance(ctx, sku)
}

func (tx *memoryInventoryTx) UpsertBalance(ctx context.Context, balance Balance) error {
	tx.repo.balances[balance.SKU] = balance
	return nil
}

func (tx *memoryInventoryTx) InsertMovement(ctx context.Context, movement Movement) (int64, error) {
	tx.repo.nextID++
	movement.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, movement)
	return movement.ID, nil
}

func TestPostMovement(t *testing.T) {
	repo := newMemoryInventoryRepo()
	service := NewService(repo, nil, ServiceConfig{})
	ctx := context.Background()

	movement, err := service.PostMovement(ctx, MovementInput{SKU: "A", Name: "Lager", Quantity: 5, Source: "Wareneingang LS-1"})
	require.NoError(t, err)
	require.Equal(t, DirectionAdd, movement.Direction)
	require.Equal(t, 5, movement.Quantity)

	balance, err := service.GetBalance(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, 5, balance.Qty)

	// Negative movement books a removal.
	movement, err = service.PostMovement(ctx, MovementInput{SKU: "A", Quantity: -2, Source: "RÜCK-1"})
	require.NoError(t, err)
	require.Equal(t, DirectionRemove, movement.Direction)
	require.Equal(t, 2, movement.Quantity)

	balance, err = service.GetBalance(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, 3, balance.Qty)
}

func TestPostMovementNegativeStockGuard(t *testing.T) {
	repo := newMemoryInventoryRepo()
	service := NewService(repo, nil, ServiceConfig{})
	ctx := context.Background()

	_, err := service.PostMovement(ctx, MovementInput{SKU: "A", Quantity: -1, Source: "korrektur"})
	require.ErrorIs(t, err, ErrNegativeStock)

	allowing := NewService(repo, nil, ServiceConfig{AllowNegativeStock: true})
	_, err = allowing.PostMovement(ctx, MovementInput{SKU: "A", Quantity: -1, Source: "korrektur"})
	require.NoError(t, err)

	balance, err := allowing.GetBalance(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, -1, balance.Qty)
}

func TestPostMovementRejectsZero(t *testing.T) {
	service := NewService(newMemoryInventoryRepo(), nil, ServiceConfig{})
	_, err := service.PostMovement(context.Background(), MovementInput{SKU: "A", Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestLedgerAdapter(t *testing.T) {
	repo := newMemoryInventoryRepo()
	service := NewService(repo, nil, ServiceConfig{})
	metrics := observability.NewMetrics()
	adapter := NewLedgerAdapter(service, metrics)

	err := adapter.PostMovement(context.Background(), receipt.StockMovement{
		SKU: "A", Name: "Lager", Quantity: 4,
		Source: "Wareneingang LS-9", Context: receipt.ContextProject,
	}, "ref-1")
	require.NoError(t, err)

	movements, err := service.ListMovements(context.Background(), "A", 10)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.Equal(t, "PROJECT", movements[0].Context)
	require.Equal(t, "ref-1", movements[0].RefID)
	require.WithinDuration(t, time.Now(), movements[0].PostedAt, time.Minute)

	// Each posting is counted under its movement context.
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, rr.Body.String(), `warelog_stock_movements_total{context="PROJECT"} 1`)
}
