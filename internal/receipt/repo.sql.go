package receipt

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

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateReceipt(ctx context.Context, header Header) (int64, error)
	UpdateHeader(ctx context.Context, header Header) error
	ReplaceLines(ctx context.Context, receiptID int64, lines []Line) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetReceipt loads one receipt header with its cart.
func (r *Repository) GetReceipt(ctx context.Context, id int64) (Header, []Line, error) {
	var header Header
	err := r.pool.QueryRow(ctx,
		`SELECT id, batch_id, delivery_note, linked_order_id, supplier, delivery_date,
		        warehouse_location, mode, status, force_closed, admin_closed, finalized
		 FROM receipts WHERE id=$1`, id).
		Scan(&header.ID, &header.BatchID, &header.DeliveryNote, &header.LinkedOrderID,
			&header.Supplier, &header.DeliveryDate, &header.WarehouseLocation,
			&header.Mode, &header.Status, &header.ForceClosed, &header.AdminClosed, &header.Finalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Header{}, nil, ErrNotFound
		}
		return Header{}, nil, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT sku, name, ordered, previously_received, qty_received, qty_rejected, qty_accepted,
		        rejection_reason, rejection_notes, return_carrier, return_tracking_id, manual_addition
		 FROM receipt_lines WHERE receipt_id=$1 ORDER BY position`, id)
	if err != nil {
		return Header{}, nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.SKU, &line.Name, &line.Ordered, &line.PreviouslyReceived,
			&line.QuantityReceived, &line.QuantityRejected, &line.QuantityAccepted,
			&line.RejectionReason, &line.RejectionNotes, &line.ReturnCarrier,
			&line.ReturnTrackingID, &line.ManualAddition); err != nil {
			return Header{}, nil, err
		}
		lines = append(lines, line)
	}
	return header, lines, rows.Err()
}

// ListUnfinalized returns open receipts, oldest first.
func (r *Repository) ListUnfinalized(ctx context.Context, limit int) ([]Header, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, batch_id, delivery_note, linked_order_id, supplier, delivery_date,
		        warehouse_location, mode, status, force_closed, admin_closed, finalized
		 FROM receipts WHERE NOT finalized ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var headers []Header
	for rows.Next() {
		var header Header
		if err := rows.Scan(&header.ID, &header.BatchID, &header.DeliveryNote, &header.LinkedOrderID,
			&header.Supplier, &header.DeliveryDate, &header.WarehouseLocation,
			&header.Mode, &header.Status, &header.ForceClosed, &header.AdminClosed, &header.Finalized); err != nil {
			return nil, err
		}
		headers = append(headers, header)
	}
	return headers, rows.Err()
}

func (tx *txRepo) CreateReceipt(ctx context.Context, header Header) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO receipts (batch_id, delivery_note, linked_order_id, supplier, delivery_date,
		                       warehouse_location, mode, status, force_closed, admin_closed, finalized)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		header.BatchID, header.DeliveryNote, header.LinkedOrderID, header.Supplier,
		header.DeliveryDate, header.WarehouseLocation, header.Mode, header.Status,
		header.ForceClosed, header.AdminClosed, header.Finalized).Scan(&id)
	return id, err
}

func (tx *txRepo) UpdateHeader(ctx context.Context, header Header) error {
	tag, err := tx.tx.Exec(ctx,
		`UPDATE receipts SET batch_id=$2, delivery_note=$3, supplier=$4, delivery_date=$5,
		        warehouse_location=$6, mode=$7, status=$8, force_closed=$9, admin_closed=$10, finalized=$11
		 WHERE id=$1`,
		header.ID, header.BatchID, header.DeliveryNote, header.Supplier, header.DeliveryDate,
		header.WarehouseLocation, header.Mode, header.Status, header.ForceClosed,
		header.AdminClosed, header.Finalized)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (tx *txRepo) ReplaceLines(ctx context.Context, receiptID int64, lines []Line) error {
	if _, err := tx.tx.Exec(ctx, `DELETE FROM receipt_lines WHERE receipt_id=$1`, receiptID); err != nil {
		return err
	}
	for i, line := range lines {
		if _, err := tx.tx.Exec(ctx,
			`INSERT INTO receipt_lines (receipt_id, position, sku, name, ordered, previously_received,
			                            qty_received, qty_rejected, qty_accepted, rejection_reason,
			                            rejection_notes, return_carrier, return_tracking_id, manual_addition)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			receiptID, i, line.SKU, line.Name, line.Ordered, line.PreviouslyReceived,
			line.QuantityReceived, line.QuantityRejected, line.QuantityAccepted,
			line.RejectionReason, line.RejectionNotes, line.ReturnCarrier,
			line.ReturnTrackingID, line.ManualAddition); err != nil {
			return err
		}
	}
	return nil
}
