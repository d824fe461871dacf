package tickets

import (
	"errors"
	"time"
)

// CaseRecord is a persisted follow-up case awaiting dispatch to the
// external ticketing system. Records are append-only after creation.
type CaseRecord struct {
	ID             string
	ReceiptBatchID string
	Subject        string
	Priority       string
	Status         string
	Dispatched     bool
	CreatedAt      time.Time
}

// MessageRecord is one entry in a case's conversation.
type MessageRecord struct {
	ID        string
	CaseID    string
	Kind      string
	Author    string
	Text      string
	Timestamp time.Time
}

// ErrNotFound indicates the case does not exist.
var ErrNotFound = errors.New("tickets: case not found")
