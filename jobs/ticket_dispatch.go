package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/warelog-erp/warelog-erp/internal/jobs"
	"github.com/warelog-erp/warelog-erp/internal/tickets"
)

// Dispatcher forwards one case to the external ticketing system.
type Dispatcher interface {
	Dispatch(ctx context.Context, record tickets.CaseRecord) error
}

// LogDispatcher is the default dispatcher used until an external system is
// connected; it only logs the case.
type LogDispatcher struct {
	Logger *slog.Logger
}

// Dispatch logs the case as forwarded.
func (d LogDispatcher) Dispatch(ctx context.Context, record tickets.CaseRecord) error {
	if d.Logger != nil {
		d.Logger.Info("dispatch case",
			slog.String("case_id", record.ID),
			slog.String("subject", record.Subject),
			slog.String("priority", record.Priority))
	}
	return nil
}

// TicketDispatchJob sweeps undispatched cases and forwards them.
type TicketDispatchJob struct {
	service    *tickets.Service
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *jobmetrics.Metrics
}

// NewTicketDispatchJob constructs the dispatch job.
func NewTicketDispatchJob(service *tickets.Service, dispatcher Dispatcher, logger *slog.Logger, metrics *jobmetrics.Metrics) *TicketDispatchJob {
	if dispatcher == nil {
		dispatcher = LogDispatcher{Logger: logger}
	}
	return &TicketDispatchJob{service: service, dispatcher: dispatcher, logger: logger, metrics: metrics}
}

// Handle processes TaskTicketDispatch tasks. A case that fails to dispatch
// stays undispatched and is retried on the next sweep.
func (j *TicketDispatchJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload TicketDispatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track("ticket_dispatch")
	scanned, dispatched, err := j.sweep(ctx, payload.Limit)
	if err != nil {
		return tracker.End(err)
	}
	j.logger.Info("ticket dispatch sweep",
		slog.Int("scanned", scanned),
		slog.Int("dispatched", dispatched))
	return tracker.End(nil)
}

func (j *TicketDispatchJob) sweep(ctx context.Context, limit int) (scanned, dispatched int, err error) {
	records, err := j.service.ListUndispatched(ctx, limit)
	if err != nil {
		return 0, 0, err
	}
	for _, record := range records {
		if err := j.dispatcher.Dispatch(ctx, record); err != nil {
			j.logger.Warn("dispatch failed", slog.String("case_id", record.ID), slog.Any("error", err))
			continue
		}
		if err := j.service.MarkDispatched(ctx, record.ID); err != nil {
			j.logger.Warn("mark dispatched failed", slog.String("case_id", record.ID), slog.Any("error", err))
			continue
		}
		dispatched++
	}
	j.metrics.AddDispatched(dispatched)
	return len(records), dispatched, nil
}
