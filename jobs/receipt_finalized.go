package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/warelog-erp/warelog-erp/internal/jobs"
)

// ReceiptFinalizedJob consumes finalize events. It logs the outcome and,
// when the receipt opened cases, runs an immediate dispatch sweep instead
// of waiting for the next cron tick.
type ReceiptFinalizedJob struct {
	dispatch *TicketDispatchJob
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
}

// NewReceiptFinalizedJob constructs the finalize-event consumer.
func NewReceiptFinalizedJob(dispatch *TicketDispatchJob, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReceiptFinalizedJob {
	return &ReceiptFinalizedJob{dispatch: dispatch, logger: logger, metrics: metrics}
}

// Handle processes TaskReceiptFinalized tasks.
func (j *ReceiptFinalizedJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReceiptFinalizedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track("receipt_finalized")
	j.logger.Info("receipt finalized",
		slog.Int64("receipt_id", payload.ReceiptID),
		slog.String("batch_id", payload.BatchID),
		slog.String("status", payload.Status),
		slog.Int("cases", len(payload.CaseIDs)))
	if len(payload.CaseIDs) == 0 || j.dispatch == nil {
		return tracker.End(nil)
	}
	scanned, dispatched, err := j.dispatch.sweep(ctx, len(payload.CaseIDs))
	if err != nil {
		return tracker.End(err)
	}
	j.logger.Info("post-finalize dispatch",
		slog.Int("scanned", scanned),
		slog.Int("dispatched", dispatched))
	return tracker.End(nil)
}
