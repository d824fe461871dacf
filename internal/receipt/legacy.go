package receipt

import "strings"

// ParseLegacyStatus maps the free-text German statuses found in externally
// stored receipts onto the canonical Status enum. It is a best-effort
// import adapter for backfills and reindexing only; the resolver in
// status.go is the single source of truth for new receipts.
func ParseLegacyStatus(raw string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", false
	}

	switch normalized {
	case "offen":
		return StatusOpen, true
	case "wartet auf prüfung":
		return StatusAwaitingReview, true
	case "in prüfung":
		return StatusInReview, true
	case "teillieferung":
		return StatusPartialDelivery, true
	case "gebucht":
		return StatusBooked, true
	case "abgeschlossen":
		return StatusClosed, true
	case "schaden":
		return StatusDamaged, true
	case "abgelehnt":
		return StatusRejected, true
	case "falsch geliefert":
		return StatusWrongDelivery, true
	case "schaden + falsch":
		return StatusDamagedAndWrong, true
	case "übermenge":
		return StatusOverage, true
	}

	// Fuzzy fallbacks for the common variations seen in old exports.
	switch {
	case strings.Contains(normalized, "prüf"):
		if strings.Contains(normalized, "wartet") {
			return StatusAwaitingReview, true
		}
		return StatusInReview, true
	case strings.Contains(normalized, "teil"):
		return StatusPartialDelivery, true
	case strings.Contains(normalized, "schaden") && strings.Contains(normalized, "falsch"):
		return StatusDamagedAndWrong, true
	case strings.Contains(normalized, "schaden"), strings.Contains(normalized, "beschädigt"):
		return StatusDamaged, true
	case strings.Contains(normalized, "falsch"):
		return StatusWrongDelivery, true
	case strings.Contains(normalized, "abgelehnt"):
		return StatusRejected, true
	case strings.Contains(normalized, "übermenge"), normalized == "zu viel":
		return StatusOverage, true
	case strings.Contains(normalized, "gebucht"), normalized == "in bearbeitung":
		return StatusBooked, true
	case strings.Contains(normalized, "rück"):
		return StatusClosed, true
	}

	return "", false
}
