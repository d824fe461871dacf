package procurement

import (
	"errors"
	"time"
)

// OrderStatus mirrors the upstream purchase-order lifecycle. Orders are
// created by the order wizard, which is outside this service.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusProject   OrderStatus = "PROJECT"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusClosed    OrderStatus = "CLOSED"
)

// PurchaseOrder is the reference header this service reads but never edits.
type PurchaseOrder struct {
	ID          string
	Supplier    string
	Status      OrderStatus
	Archived    bool
	ForceClosed bool
	CreatedAt   time.Time
}

// IsProject reports whether deliveries against this order book into a
// project context instead of regular stock.
func (o PurchaseOrder) IsProject() bool {
	return o.Status == OrderStatusProject
}

// OrderLine is one expected SKU on a purchase order.
type OrderLine struct {
	OrderID          string
	SKU              string
	Name             string
	QuantityExpected int
}

// DeliveryLogEntry accumulates accepted quantities per order and SKU. It is
// the only state carried across delivery events; everything else is
// recomputed per receipt.
type DeliveryLogEntry struct {
	OrderID      string
	SKU          string
	Accepted     int
	DeliveryNote string
	RecordedAt   time.Time
}

var (
	// ErrNotFound indicates the purchase order does not exist.
	ErrNotFound = errors.New("procurement: order not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("procurement: invalid input")
)
