package receipt

import (
	"errors"
	"time"
)

// Status enumerates the receipt-level outcome of a delivery event.
type Status string

const (
	StatusOpen            Status = "OPEN"
	StatusAwaitingReview  Status = "AWAITING_REVIEW"
	StatusInReview        Status = "IN_REVIEW"
	StatusPartialDelivery Status = "PARTIAL_DELIVERY"
	StatusBooked          Status = "BOOKED"
	StatusClosed          Status = "CLOSED"
	StatusDamaged         Status = "DAMAGED"
	StatusRejected        Status = "REJECTED"
	StatusWrongDelivery   Status = "WRONG_DELIVERY"
	StatusDamagedAndWrong Status = "DAMAGED_AND_WRONG"
	StatusOverage         Status = "OVERAGE"
)

// IsValid reports whether s is a known receipt status.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusAwaitingReview, StatusInReview, StatusPartialDelivery,
		StatusBooked, StatusClosed, StatusDamaged, StatusRejected,
		StatusWrongDelivery, StatusDamagedAndWrong, StatusOverage:
		return true
	}
	return false
}

// IsTerminal reports whether the status allows no further deliveries.
func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusBooked
}

// RejectionReason classifies why goods on a line were refused.
type RejectionReason string

const (
	RejectionNone         RejectionReason = ""
	RejectionDamaged      RejectionReason = "DAMAGED"
	RejectionWrong        RejectionReason = "WRONG"
	RejectionOverdelivery RejectionReason = "OVERDELIVERY"
	RejectionOther        RejectionReason = "OTHER"
)

// Mode distinguishes a regular goods arrival from a pure return shipment.
type Mode string

const (
	// ModeStandard is a normal inbound delivery.
	ModeStandard Mode = "STANDARD"
	// ModeReturn records goods sent back against an already resolved order.
	// Case generation is fully suppressed in this mode.
	ModeReturn Mode = "RETURN"
)

// OrderLine is the immutable expectation copied from a purchase order.
type OrderLine struct {
	SKU              string
	Name             string
	QuantityExpected int
}

// Line is the mutable working record for one SKU within one receipt.
// QuantityAccepted is derived; call SetQuantities to keep it consistent.
type Line struct {
	SKU                string
	Name               string
	Ordered            *int // nil when the receipt is not linked to an order
	PreviouslyReceived int
	QuantityReceived   int
	QuantityRejected   int
	QuantityAccepted   int
	RejectionReason    RejectionReason
	RejectionNotes     string
	ReturnCarrier      string
	ReturnTrackingID   string
	ManualAddition     bool
}

// SetQuantities updates received/rejected and recomputes the accepted delta.
func (l *Line) SetQuantities(received, rejected int) {
	l.QuantityReceived = received
	l.QuantityRejected = rejected
	l.QuantityAccepted = received - rejected
}

// RecordReturn adds qty to the rejected count with an overdelivery reason,
// mirroring the return-of-excess flow. The accepted delta is recomputed and
// may go negative for correction receipts.
func (l *Line) RecordReturn(qty int, notes, carrier, trackingID string) {
	l.QuantityRejected += qty
	l.QuantityAccepted = l.QuantityReceived - l.QuantityRejected
	l.RejectionReason = RejectionOverdelivery
	l.RejectionNotes = notes
	l.ReturnCarrier = carrier
	l.ReturnTrackingID = trackingID
}

// HasReturn reports whether the line recorded carrier or tracking details.
func (l Line) HasReturn() bool {
	return l.ReturnCarrier != "" || l.ReturnTrackingID != ""
}

// Header carries the receipt-level data persisted alongside the cart.
type Header struct {
	ID                int64
	BatchID           string
	DeliveryNote      string
	LinkedOrderID     string // empty when free receipt
	Supplier          string
	DeliveryDate      time.Time
	WarehouseLocation string
	Mode              Mode
	Status            Status
	ForceClosed       bool
	AdminClosed       bool
	Finalized         bool
}

var (
	// ErrNotFound indicates the receipt does not exist.
	ErrNotFound = errors.New("receipt: not found")
	// ErrInvalidState occurs when an action violates the receipt lifecycle.
	ErrInvalidState = errors.New("receipt: invalid state transition")
	// ErrMissingDeliveryNote blocks finalize without a delivery-note id.
	ErrMissingDeliveryNote = errors.New("receipt: delivery note number required")
	// ErrEmptyCart blocks finalize of a receipt without lines.
	ErrEmptyCart = errors.New("receipt: cart is empty")
	// ErrRejectedExceedsReceived blocks finalize when a line rejects more
	// than was physically received. Entry mistakes are surfaced, not clamped.
	ErrRejectedExceedsReceived = errors.New("receipt: rejected quantity exceeds received quantity")
	// ErrFinalizeInFlight indicates another finalize holds the receipt lock.
	ErrFinalizeInFlight = errors.New("receipt: finalize already in flight")
)
