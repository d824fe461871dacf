package receipt

import (
	"fmt"
	"time"
)

// CanForceClose reports whether the standard force-close action is offered:
// a linked order with at least one line still showing a shortfall.
func CanForceClose(cart []Line) bool {
	for _, line := range cart {
		if line.Ordered == nil {
			continue
		}
		if line.Metrics().Shortfall > 0 {
			return true
		}
	}
	return false
}

// ApplyAdminClose returns a copy of the cart with every quantity zeroed,
// the admin-close variant of force-close used to close an order without any
// physical delivery. The input cart is not mutated.
func ApplyAdminClose(cart []Line) []Line {
	out := make([]Line, len(cart))
	for i, line := range cart {
		line.QuantityReceived = 0
		line.QuantityRejected = 0
		line.QuantityAccepted = 0
		out[i] = line
	}
	return out
}

// RevertAdminClose rebuilds the cart from the order and the historical
// accepted totals, restoring the remaining open quantity per line. It is the
// inverse of ApplyAdminClose for order-linked receipts.
func RevertAdminClose(order []OrderLine, history map[string]int) []Line {
	cart := make([]Line, 0, len(order))
	for _, ol := range order {
		expected := ol.QuantityExpected
		hist := history[ol.SKU]
		remaining := expected - hist
		if remaining < 0 {
			remaining = 0
		}
		line := Line{
			SKU:                ol.SKU,
			Name:               ol.Name,
			Ordered:            &expected,
			PreviouslyReceived: hist,
		}
		line.SetQuantities(remaining, 0)
		cart = append(cart, line)
	}
	return cart
}

// ClosureNoteID generates the synthetic delivery-note identifier recorded
// by an admin close.
func ClosureNoteID(t time.Time) string {
	return fmt.Sprintf("ABSCHLUSS-%s", t.Format("2006-01-02"))
}

// ReturnNoteID generates the delivery-note identifier for a return-only
// receipt.
func ReturnNoteID(t time.Time) string {
	return fmt.Sprintf("RÜCK-%s", t.Format("02012006"))
}
