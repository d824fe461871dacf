package receipt

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority ranks follow-up cases.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityNormal Priority = "NORMAL"
)

// CaseStatus is the lifecycle state of a follow-up case. This core only
// ever opens cases; later transitions belong to the ticketing collaborator.
type CaseStatus string

// CaseOpen is the state every generated case starts in.
const CaseOpen CaseStatus = "OPEN"

// MessageKind tags case message entries.
type MessageKind string

const (
	MessageSystem MessageKind = "SYSTEM"
	MessageUser   MessageKind = "USER"
)

// Message is one entry in a case's append-only conversation.
type Message struct {
	ID        string
	Kind      MessageKind
	Author    string
	Text      string
	Timestamp time.Time
}

// Case is a follow-up record handed to the ticketing collaborator.
type Case struct {
	ID             string
	ReceiptBatchID string
	Subject        string
	Priority       Priority
	Status         CaseStatus
	Messages       []Message
}

// CaseConfig is the external enabled/disabled flag set per case category.
type CaseConfig struct {
	Damage   bool
	Wrong    bool
	Rejected bool
	Missing  bool
	Extra    bool
}

// CaseInput is the finalized cart snapshot the generator reads. The
// generator never mutates it.
type CaseInput struct {
	BatchID      string
	OrderID      string // empty for free receipts
	DeliveryNote string
	Mode         Mode
	Config       CaseConfig
	Cart         []Line
	Now          time.Time
}

// returnRecord captures a line's return shipment details for the tracking
// sub-messages.
type returnRecord struct {
	text   string
	reason RejectionReason
}

// GenerateCases scans the finalized cart and emits up to three independent
// follow-up cases: quality, partial delivery and overage. Generation is
// fully suppressed for return-only receipts so that returns against a
// return never recursively spawn cases.
func GenerateCases(in CaseInput) []Case {
	if in.Mode == ModeReturn {
		return nil
	}

	var (
		quality      []string
		qualityTypes = map[string]bool{}
		partial      []string
		overage      []string
		returns      []returnRecord
	)

	for _, line := range in.Cart {
		label := lineLabel(line)
		m := line.Metrics()

		if line.QuantityRejected > 0 {
			switch {
			case line.RejectionReason == RejectionDamaged && in.Config.Damage:
				quality = append(quality, rejectionIssue(line, label))
				qualityTypes["Beschädigung"] = true
			case line.RejectionReason == RejectionWrong && in.Config.Wrong:
				quality = append(quality, rejectionIssue(line, label))
				qualityTypes["Falschlieferung"] = true
			case line.RejectionReason == RejectionOther && in.Config.Rejected:
				quality = append(quality, rejectionIssue(line, label))
				qualityTypes["Abweichung"] = true
			case line.RejectionReason == RejectionOverdelivery && in.Config.Extra:
				overage = append(overage, fmt.Sprintf("%s: %dx zurückgesendet (Übermenge) - %s",
					label, line.QuantityRejected, orDefault(line.RejectionNotes, "Keine Details")))
			}
			if line.HasReturn() {
				returns = append(returns, returnRecord{
					text:   returnDetail(line, label),
					reason: line.RejectionReason,
				})
			}
		}

		if in.Config.Missing && in.OrderID != "" && m.Shortfall > 0 {
			partial = append(partial, fmt.Sprintf("%s: Bestellt %d, Geliefert %d, Offen %d",
				label, m.Ordered, line.QuantityReceived, m.Shortfall))
		}

		if in.Config.Extra && line.Ordered != nil && line.QuantityAccepted > 0 {
			total := line.PreviouslyReceived + line.QuantityAccepted
			if total > *line.Ordered {
				overage = append(overage, fmt.Sprintf("%s: Bestellt %d, Gesamt geliefert %d, Zu viel %d",
					label, *line.Ordered, total, total-*line.Ordered))
			}
		}
	}

	ref := in.OrderID
	if ref == "" {
		ref = in.DeliveryNote
	}

	var cases []Case

	if len(quality) > 0 {
		messages := []Message{systemMessage(in.Now,
			fmt.Sprintf("Automatisch erstellter Qualitätsfall:\n\n%s", strings.Join(quality, "\n")))}
		if len(returns) > 0 {
			messages = append(messages, returnMessage(in.Now, returns, func(returnRecord) bool { return true }))
		}
		cases = append(cases, Case{
			ID:             uuid.NewString(),
			ReceiptBatchID: in.BatchID,
			Subject:        fmt.Sprintf("Qualitätsproblem: %s – %s", strings.Join(sortedKeys(qualityTypes), ", "), ref),
			Priority:       PriorityHigh,
			Status:         CaseOpen,
			Messages:       messages,
		})
	}

	if len(partial) > 0 {
		total := Totals(in.Cart).Shortfall
		cases = append(cases, Case{
			ID:             uuid.NewString(),
			ReceiptBatchID: in.BatchID,
			Subject:        fmt.Sprintf("Teillieferung – %s – Offen: %d Stück", ref, total),
			Priority:       PriorityNormal,
			Status:         CaseOpen,
			Messages: []Message{systemMessage(in.Now,
				fmt.Sprintf("Automatisch erstellter Fall (Teillieferung):\n\n%s\n\nGesamt offen: %d Stück",
					strings.Join(partial, "\n"), total))},
		})
	}

	if len(overage) > 0 {
		total := Totals(in.Cart).Overage
		messages := []Message{systemMessage(in.Now,
			fmt.Sprintf("Automatisch erstellter Fall (Übermenge):\n\n%s\n\nGesamt zu viel: %d Stück",
				strings.Join(overage, "\n"), total))}
		if hasOverageReturn(returns) {
			messages = append(messages, returnMessage(in.Now, returns, func(r returnRecord) bool {
				return r.reason == RejectionOverdelivery
			}))
		}
		cases = append(cases, Case{
			ID:             uuid.NewString(),
			ReceiptBatchID: in.BatchID,
			Subject:        fmt.Sprintf("Übermenge – %s – Zu viel: %d Stück", ref, total),
			Priority:       PriorityNormal,
			Status:         CaseOpen,
			Messages:       messages,
		})
	}

	return cases
}

func lineLabel(line Line) string {
	return fmt.Sprintf("%s (%s)", line.Name, line.SKU)
}

func rejectionIssue(line Line, label string) string {
	return fmt.Sprintf("%s: %dx Abgelehnt (%s) - %s",
		label, line.QuantityRejected, reasonLabel(line.RejectionReason),
		orDefault(line.RejectionNotes, "Keine Details"))
}

func returnDetail(line Line, label string) string {
	detail := fmt.Sprintf("Rücksendung %s: %dx – Versandart: %s – Tracking: %s",
		label, line.QuantityRejected,
		orDefault(line.ReturnCarrier, "Nicht angegeben"),
		orDefault(line.ReturnTrackingID, "Nicht angegeben"))
	if line.RejectionNotes != "" {
		detail += fmt.Sprintf(" – Grund: %s", line.RejectionNotes)
	}
	return detail
}

func reasonLabel(reason RejectionReason) string {
	switch reason {
	case RejectionDamaged:
		return "Beschädigt"
	case RejectionWrong:
		return "Falsch"
	case RejectionOverdelivery:
		return "Übermenge"
	default:
		return "Sonstiges"
	}
}

func systemMessage(at time.Time, text string) Message {
	return Message{ID: uuid.NewString(), Kind: MessageSystem, Author: "System", Text: text, Timestamp: at}
}

func returnMessage(at time.Time, records []returnRecord, keep func(returnRecord) bool) Message {
	var texts []string
	for _, r := range records {
		if keep(r) {
			texts = append(texts, r.text)
		}
	}
	return systemMessage(at.Add(time.Millisecond),
		fmt.Sprintf("Rücksendung erfasst:\n\n%s", strings.Join(texts, "\n")))
}

func hasOverageReturn(records []returnRecord) bool {
	for _, r := range records {
		if r.reason == RejectionOverdelivery {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
