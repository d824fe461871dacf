package inventory

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
	GetBalanceForUpdate(ctx context.Context, sku string) (Balance, error)
	UpsertBalance(ctx context.Context, balance Balance) error
	InsertMovement(ctx context.Context, movement Movement) (int64, error)
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

// GetBalance reads the current balance for one SKU.
func (r *Repository) GetBalance(ctx context.Context, sku string) (Balance, error) {
	var balance Balance
	err := r.pool.QueryRow(ctx, `SELECT sku, qty, updated_at FROM stock_balances WHERE sku=$1`, sku).
		Scan(&balance.SKU, &balance.Qty, &balance.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, ErrBalanceNotFound
		}
		return Balance{}, err
	}
	return balance, nil
}

// ListMovements returns recent movements for one SKU.
func (r *Repository) ListMovements(ctx context.Context, sku string, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, sku, name, direction, quantity, source, context, ref_id, posted_at FROM stock_movements WHERE sku=$1 ORDER BY posted_at DESC LIMIT $2`,
		sku, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.SKU, &m.Name, &m.Direction, &m.Quantity, &m.Source, &m.Context, &m.RefID, &m.PostedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (tx *txRepo) GetBalanceForUpdate(ctx context.Context, sku string) (Balance, error) {
	var balance Balance
	err := tx.tx.QueryRow(ctx, `SELECT sku, qty, updated_at FROM stock_balances WHERE sku=$1 FOR UPDATE`, sku).
		Scan(&balance.SKU, &balance.Qty, &balance.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, ErrBalanceNotFound
		}
		return Balance{}, err
	}
	return balance, nil
}

func (tx *txRepo) UpsertBalance(ctx context.Context, balance Balance) error {
	_, err := tx.tx.Exec(ctx,
		`INSERT INTO stock_balances (sku, qty, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (sku) DO UPDATE SET qty = EXCLUDED.qty, updated_at = EXCLUDED.updated_at`,
		balance.SKU, balance.Qty, balance.UpdatedAt)
	return err
}

func (tx *txRepo) InsertMovement(ctx context.Context, movement Movement) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO stock_movements (sku, name, direction, quantity, source, context, ref_id, posted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		movement.SKU, movement.Name, movement.Direction, movement.Quantity,
		movement.Source, movement.Context, movement.RefID, movement.PostedAt).Scan(&id)
	return id, err
}
