package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/warelog-erp/warelog-erp/internal/jobs"
	"github.com/warelog-erp/warelog-erp/internal/receipt"
)

// ReceiptReindexJob reparses free-text statuses carried over from the
// legacy system into canonical receipt statuses. Rows it cannot map are
// left untouched for manual review.
type ReceiptReindexJob struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewReceiptReindexJob constructs the reindex job.
func NewReceiptReindexJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReceiptReindexJob {
	return &ReceiptReindexJob{pool: pool, logger: logger, metrics: metrics}
}

// Handle processes TaskReceiptReindex tasks.
func (j *ReceiptReindexJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReceiptReindexPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track("receipt_reindex")

	filter := `legacy_status <> '' AND status = ''`
	if payload.Force {
		filter = `legacy_status <> ''`
	}
	rows, err := j.pool.Query(ctx, `SELECT id, legacy_status FROM receipts WHERE `+filter)
	if err != nil {
		return tracker.End(err)
	}
	type row struct {
		id     int64
		legacy string
	}
	var pending []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.legacy); err != nil {
			rows.Close()
			return tracker.End(err)
		}
		pending = append(pending, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return tracker.End(err)
	}

	mapped, skipped := 0, 0
	for _, r := range pending {
		status, ok := receipt.ParseLegacyStatus(r.legacy)
		if !ok {
			skipped++
			continue
		}
		if _, err := j.pool.Exec(ctx, `UPDATE receipts SET status=$2 WHERE id=$1`, r.id, status); err != nil {
			return tracker.End(err)
		}
		mapped++
	}
	j.logger.Info("receipt reindex",
		slog.Int("mapped", mapped),
		slog.Int("skipped", skipped),
		slog.Bool("force", payload.Force))
	return tracker.End(nil)
}
