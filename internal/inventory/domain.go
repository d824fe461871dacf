package inventory

import (
	"errors"
	"time"
)

// Direction marks whether a movement adds or removes stock.
type Direction string

const (
	// DirectionAdd is a positive movement (regular receipt booking).
	DirectionAdd Direction = "ADD"
	// DirectionRemove is a negative movement (correction or return booking).
	DirectionRemove Direction = "REMOVE"
)

// Movement models one signed stock change in the ledger.
type Movement struct {
	ID        int64
	SKU       string
	Name      string
	Direction Direction
	Quantity  int // always positive; Direction carries the sign
	Source    string
	Context   string
	RefID     string
	PostedAt  time.Time
}

// Balance summarises current stock per SKU.
type Balance struct {
	SKU       string
	Qty       int
	UpdatedAt time.Time
}

// MovementInput describes a requested ledger posting. Quantity is signed.
type MovementInput struct {
	SKU      string
	Name     string
	Quantity int
	Source   string
	Context  string
	RefID    string
}

var (
	// ErrNegativeStock triggered when movement would result negative qty.
	ErrNegativeStock = errors.New("inventory: negative stock not allowed")
	// ErrInvalidQuantity indicates invalid qty.
	ErrInvalidQuantity = errors.New("inventory: quantity must be non zero")
	// ErrBalanceNotFound indicates missing balance row.
	ErrBalanceNotFound = errors.New("inventory: balance not found")
)
