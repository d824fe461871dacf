package procurement

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetOrder returns order header and lines.
func (r *Repository) GetOrder(ctx context.Context, id string) (PurchaseOrder, []OrderLine, error) {
	var order PurchaseOrder
	err := r.pool.QueryRow(ctx, `SELECT id, supplier, status, archived, force_closed, created_at FROM purchase_orders WHERE id=$1`, id).
		Scan(&order.ID, &order.Supplier, &order.Status, &order.Archived, &order.ForceClosed, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, nil, ErrNotFound
		}
		return PurchaseOrder{}, nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT order_id, sku, name, quantity_expected FROM purchase_order_lines WHERE order_id=$1 ORDER BY sku`, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	defer rows.Close()
	var lines []OrderLine
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.OrderID, &line.SKU, &line.Name, &line.QuantityExpected); err != nil {
			return PurchaseOrder{}, nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return PurchaseOrder{}, nil, err
	}
	return order, lines, nil
}

// ListOrders returns all order headers.
func (r *Repository) ListOrders(ctx context.Context) ([]PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, supplier, status, archived, force_closed, created_at FROM purchase_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []PurchaseOrder
	for rows.Next() {
		var order PurchaseOrder
		if err := rows.Scan(&order.ID, &order.Supplier, &order.Status, &order.Archived, &order.ForceClosed, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// AcceptedTotals sums delivery log accepted quantities per SKU.
func (r *Repository) AcceptedTotals(ctx context.Context, orderID string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT sku, COALESCE(SUM(accepted),0) FROM delivery_log WHERE order_id=$1 GROUP BY sku`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	totals := make(map[string]int)
	for rows.Next() {
		var sku string
		var accepted int
		if err := rows.Scan(&sku, &accepted); err != nil {
			return nil, err
		}
		totals[sku] = accepted
	}
	return totals, rows.Err()
}

// AppendDeliveryLog inserts accumulator entries in one transaction.
func (r *Repository) AppendDeliveryLog(ctx context.Context, entries []DeliveryLogEntry) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO delivery_log (order_id, sku, accepted, delivery_note, recorded_at) VALUES ($1, $2, $3, $4, $5)`,
			entry.OrderID, entry.SKU, entry.Accepted, entry.DeliveryNote, entry.RecordedAt); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	return tx.Commit(ctx)
}
