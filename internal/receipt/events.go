package receipt

import "time"

// FinalizedEvent captures the outcome of one finalize for downstream
// consumers, notably the ticket dispatch worker.
type FinalizedEvent struct {
	ReceiptID    int64
	BatchID      string
	DeliveryNote string
	OrderID      string
	Status       Status
	CaseIDs      []string
	FinalizedAt  time.Time
}

// NewFinalizedEvent builds the event from a finalize result.
func NewFinalizedEvent(header Header, result FinalizeResult, at time.Time) FinalizedEvent {
	ids := make([]string, 0, len(result.Cases))
	for _, c := range result.Cases {
		ids = append(ids, c.ID)
	}
	return FinalizedEvent{
		ReceiptID:    header.ID,
		BatchID:      result.BatchID,
		DeliveryNote: header.DeliveryNote,
		OrderID:      header.LinkedOrderID,
		Status:       result.Status,
		CaseIDs:      ids,
		FinalizedAt:  at,
	}
}
