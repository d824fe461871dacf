package receipt

// LineMetrics holds the derived quantities for one line. It is never stored;
// recompute it from the line whenever the underlying quantities change.
type LineMetrics struct {
	Ordered        int
	ReceivedToDate int
	Overage        int
	Shortfall      int
	AcceptedToday  int
}

// CalculateLine derives the reconciliation quantities for one order line.
// ordered is nil for free receipts, in which case overage and shortfall are
// conventionally zero. Inputs must be non-negative; callers clamp upstream.
func CalculateLine(ordered *int, previouslyReceived, receivedToday, rejectedToday int) LineMetrics {
	m := LineMetrics{
		ReceivedToDate: previouslyReceived + receivedToday,
		AcceptedToday:  receivedToday - rejectedToday,
	}
	if ordered == nil {
		return m
	}
	m.Ordered = *ordered
	net := m.ReceivedToDate - rejectedToday
	if net > m.Ordered {
		m.Overage = net - m.Ordered
	}
	if m.Ordered > net {
		m.Shortfall = m.Ordered - net
	}
	return m
}

// Metrics derives the line's reconciliation quantities.
func (l Line) Metrics() LineMetrics {
	return CalculateLine(l.Ordered, l.PreviouslyReceived, l.QuantityReceived, l.QuantityRejected)
}

// LineState is the per-line classification used for indicators and rollups.
type LineState string

const (
	LineOK        LineState = "OK"
	LineShortfall LineState = "SHORTFALL"
	LineOverage   LineState = "OVERAGE"
	// LineClosed is a display-level override applied when the receipt is
	// force-closed; it never results from classification itself.
	LineClosed LineState = "CLOSED"
)

// ClassifyLine maps derived metrics to a line state. Overage wins over
// shortfall when both are nonzero, which can only happen when rejection
// exceeds received.
func ClassifyLine(m LineMetrics) LineState {
	if m.Overage > 0 {
		return LineOverage
	}
	if m.Shortfall > 0 {
		return LineShortfall
	}
	return LineOK
}

// DisplayLineState applies the force-close presentation override.
func DisplayLineState(state LineState, forceClosed bool) LineState {
	if forceClosed {
		return LineClosed
	}
	return state
}

// CartTotals aggregates the cart for summaries and ticket footers.
type CartTotals struct {
	Shortfall int
	Overage   int
	Rejected  int
	Accepted  int
}

// Totals sums derived metrics across the cart.
func Totals(cart []Line) CartTotals {
	var t CartTotals
	for _, line := range cart {
		m := line.Metrics()
		t.Shortfall += m.Shortfall
		t.Overage += m.Overage
		t.Rejected += line.QuantityRejected
		t.Accepted += line.QuantityAccepted
	}
	return t
}
