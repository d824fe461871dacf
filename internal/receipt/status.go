package receipt

// ResolveStatus computes the aggregate receipt status from the cart, the
// linked order lines (nil for free receipts) and the per-SKU historical
// accepted totals. Quality-defect signals always dominate the quantity
// reconciliation: a damaged or wrong delivery is never reported as merely
// booked or partial.
//
// Force-close and admin-close do not influence resolution; they override
// the displayed status afterwards, see DisplayStatus.
func ResolveStatus(cart []Line, order []OrderLine, history map[string]int) Status {
	if allRejected(cart) {
		return StatusRejected
	}
	hasDamage := anyRejectedFor(cart, RejectionDamaged)
	hasWrong := anyRejectedFor(cart, RejectionWrong)
	switch {
	case hasDamage && hasWrong:
		return StatusDamagedAndWrong
	case hasDamage:
		return StatusDamaged
	case hasWrong:
		return StatusWrongDelivery
	}

	if order != nil {
		anyOver, anyUnder := false, false
		for _, ol := range order {
			total := history[ol.SKU]
			if line, ok := cartLine(cart, ol.SKU); ok {
				total += line.QuantityAccepted
			}
			if total > ol.QuantityExpected {
				anyOver = true
			}
			if total < ol.QuantityExpected {
				anyUnder = true
			}
		}
		if anyOver {
			return StatusOverage
		}
		if anyUnder || anyRejection(cart) {
			return StatusPartialDelivery
		}
		return StatusBooked
	}

	if anyRejection(cart) {
		return StatusPartialDelivery
	}
	return StatusBooked
}

// DisplayStatus layers the force-close flag on top of the computed status.
// The underlying resolution stays in the record for audit.
func DisplayStatus(computed Status, forceClosed bool) Status {
	if forceClosed {
		return StatusClosed
	}
	return computed
}

// allRejected requires at least one line with physical activity and every
// such line fully refused. Carts where nothing arrived fall through to the
// quantity rules.
func allRejected(cart []Line) bool {
	active := false
	for _, line := range cart {
		if line.QuantityReceived == 0 {
			continue
		}
		active = true
		if line.QuantityRejected != line.QuantityReceived {
			return false
		}
	}
	return active
}

func anyRejectedFor(cart []Line, reason RejectionReason) bool {
	for _, line := range cart {
		if line.RejectionReason == reason && line.QuantityRejected > 0 {
			return true
		}
	}
	return false
}

func anyRejection(cart []Line) bool {
	for _, line := range cart {
		if line.QuantityRejected > 0 {
			return true
		}
	}
	return false
}

func cartLine(cart []Line, sku string) (Line, bool) {
	for _, line := range cart {
		if line.SKU == sku {
			return line, true
		}
	}
	return Line{}, false
}
