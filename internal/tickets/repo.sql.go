package tickets

import (
	"context"

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

// InsertCase stores the case header and messages atomically.
func (r *Repository) InsertCase(ctx context.Context, record CaseRecord, messages []MessageRecord) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO cases (id, receipt_batch_id, subject, priority, status, dispatched, created_at) VALUES ($1, $2, $3, $4, $5, FALSE, $6)`,
		record.ID, record.ReceiptBatchID, record.Subject, record.Priority, record.Status, record.CreatedAt); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	for _, m := range messages {
		if _, err := tx.Exec(ctx,
			`INSERT INTO case_messages (id, case_id, kind, author, text, ts) VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, m.CaseID, m.Kind, m.Author, m.Text, m.Timestamp); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListUndispatched returns cases awaiting dispatch, oldest first.
func (r *Repository) ListUndispatched(ctx context.Context, limit int) ([]CaseRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, receipt_batch_id, subject, priority, status, dispatched, created_at FROM cases WHERE NOT dispatched ORDER BY created_at LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []CaseRecord
	for rows.Next() {
		var record CaseRecord
		if err := rows.Scan(&record.ID, &record.ReceiptBatchID, &record.Subject, &record.Priority, &record.Status, &record.Dispatched, &record.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// MarkDispatched flags one case as forwarded.
func (r *Repository) MarkDispatched(ctx context.Context, caseID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE cases SET dispatched = TRUE WHERE id = $1`, caseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
