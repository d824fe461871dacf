package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/warelog-erp/warelog-erp/internal/receipt"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTicketDispatch forwards stored cases to the external ticketing system.
	TaskTicketDispatch = "tickets:dispatch"
	// TaskReceiptReindex reparses legacy receipt statuses from imports.
	TaskReceiptReindex = "receipts:reindex"
	// TaskReceiptFinalized carries the outcome of one finalize to the worker.
	TaskReceiptFinalized = "receipts:finalized"
)

// TicketDispatchPayload bounds one dispatch sweep.
type TicketDispatchPayload struct {
	Limit int `json:"limit"`
}

// NewTicketDispatchTask constructs an Asynq task for a dispatch sweep.
func NewTicketDispatchTask(limit int) (*asynq.Task, error) {
	body, err := json.Marshal(TicketDispatchPayload{Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTicketDispatch, body, asynq.Queue(QueueDefault)), nil
}

// ReceiptFinalizedPayload mirrors receipt.FinalizedEvent on the wire.
type ReceiptFinalizedPayload struct {
	ReceiptID    int64     `json:"receipt_id"`
	BatchID      string    `json:"batch_id"`
	DeliveryNote string    `json:"delivery_note"`
	OrderID      string    `json:"order_id,omitempty"`
	Status       string    `json:"status"`
	CaseIDs      []string  `json:"case_ids,omitempty"`
	FinalizedAt  time.Time `json:"finalized_at"`
}

// NewReceiptFinalizedTask wraps a finalize event as an Asynq task.
func NewReceiptFinalizedTask(event receipt.FinalizedEvent) (*asynq.Task, error) {
	body, err := json.Marshal(ReceiptFinalizedPayload{
		ReceiptID:    event.ReceiptID,
		BatchID:      event.BatchID,
		DeliveryNote: event.DeliveryNote,
		OrderID:      event.OrderID,
		Status:       string(event.Status),
		CaseIDs:      event.CaseIDs,
		FinalizedAt:  event.FinalizedAt,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceiptFinalized, body, asynq.Queue(QueueDefault)), nil
}

// ReceiptReindexPayload contains options for the reindex job.
type ReceiptReindexPayload struct {
	Force bool `json:"force"`
}

// NewReceiptReindexTask builds a new reindex task.
func NewReceiptReindexTask(force bool) (*asynq.Task, error) {
	body, err := json.Marshal(ReceiptReindexPayload{Force: force})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceiptReindex, body, asynq.Queue(QueueDefault)), nil
}
