package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/warelog-erp/warelog-erp/internal/procurement"
	"github.com/warelog-erp/warelog-erp/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetReceipt(ctx context.Context, id int64) (Header, []Line, error)
	ListUnfinalized(ctx context.Context, limit int) ([]Header, error)
}

// OrderPort exposes the purchase-order collaborator.
type OrderPort interface {
	GetOrder(ctx context.Context, id string) (procurement.PurchaseOrder, []procurement.OrderLine, error)
	AcceptedTotals(ctx context.Context, orderID string) (map[string]int, error)
	RecordDeliveries(ctx context.Context, orderID, deliveryNote string, accepted map[string]int, at time.Time) error
}

// TicketPort accepts generated cases.
type TicketPort interface {
	OpenCase(ctx context.Context, c Case) error
}

// LedgerPort accepts stock movements.
type LedgerPort interface {
	PostMovement(ctx context.Context, move StockMovement, refID string) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// LockPort guards finalize per receipt.
type LockPort interface {
	Acquire(ctx context.Context, receiptID int64) (func(), error)
}

// EventPort receives the outcome of each finalize.
type EventPort interface {
	PublishFinalized(ctx context.Context, event FinalizedEvent) error
}

// Service orchestrates the receipt lifecycle around the pure reconciliation
// core.
type Service struct {
	repo        RepositoryPort
	orders      OrderPort
	ticketSink  TicketPort
	ledger      LedgerPort
	audit       AuditPort
	events      EventPort
	idempotency *shared.IdempotencyStore
	lock        LockPort
	caseConfig  CaseConfig
	logger      *slog.Logger
}

// NewService constructs the receipt service.
func NewService(repo RepositoryPort, orders OrderPort, ticketSink TicketPort, ledger LedgerPort, audit AuditPort, events EventPort, idem *shared.IdempotencyStore, lock LockPort, caseConfig CaseConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		orders:      orders,
		ticketSink:  ticketSink,
		ledger:      ledger,
		audit:       audit,
		events:      events,
		idempotency: idem,
		lock:        lock,
		caseConfig:  caseConfig,
		logger:      logger,
	}
}

// OpenInput describes a new receipt.
type OpenInput struct {
	DeliveryNote      string
	OrderID           string
	Supplier          string
	DeliveryDate      time.Time
	WarehouseLocation string
	Mode              Mode
}

// Open creates a receipt. When an order is linked, the cart is seeded from
// the order lines with the remaining open quantity per SKU and the
// historical accepted totals are captured once; they stay read-only for the
// lifetime of the receipt.
func (s *Service) Open(ctx context.Context, input OpenInput) (Header, []Line, error) {
	if input.Mode == "" {
		input.Mode = ModeStandard
	}
	header := Header{
		DeliveryNote:      input.DeliveryNote,
		LinkedOrderID:     input.OrderID,
		Supplier:          input.Supplier,
		DeliveryDate:      defaultTime(input.DeliveryDate),
		WarehouseLocation: input.WarehouseLocation,
		Mode:              input.Mode,
		Status:            StatusOpen,
	}
	var cart []Line
	if input.OrderID != "" {
		order, lines, err := s.orders.GetOrder(ctx, input.OrderID)
		if err != nil {
			return Header{}, nil, err
		}
		history, err := s.orders.AcceptedTotals(ctx, input.OrderID)
		if err != nil {
			return Header{}, nil, err
		}
		header.Supplier = order.Supplier
		cart = RevertAdminClose(toOrderLines(lines), history)
	}
	if input.Mode == ModeReturn && header.DeliveryNote == "" {
		header.DeliveryNote = ReturnNoteID(time.Now())
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateReceipt(ctx, header)
		if err != nil {
			return err
		}
		header.ID = id
		return tx.ReplaceLines(ctx, id, cart)
	})
	if err != nil {
		return Header{}, nil, err
	}
	s.recordAudit(ctx, "RECEIPT_OPEN", header.ID, map[string]any{"order_id": input.OrderID, "mode": string(input.Mode)})
	return header, cart, nil
}

// AddLineInput adds a manually searched item to the cart.
type AddLineInput struct {
	ReceiptID int64
	SKU       string
	Name      string
}

// AddLine appends an item to the cart with one received unit, the manual
// search path of the inspection step. On order-linked receipts the line is
// flagged as a manual addition and carries no order constraint.
func (s *Service) AddLine(ctx context.Context, input AddLineInput) ([]Line, error) {
	header, cart, err := s.repo.GetReceipt(ctx, input.ReceiptID)
	if err != nil {
		return nil, err
	}
	if header.Finalized {
		return nil, ErrInvalidState
	}
	line := Line{SKU: input.SKU, Name: input.Name, ManualAddition: header.LinkedOrderID != ""}
	line.SetQuantities(1, 0)
	cart = append(cart, line)
	if err := s.saveCart(ctx, header.ID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateLineInput mutates one cart line during inspection.
type UpdateLineInput struct {
	ReceiptID        int64
	SKU              string
	QuantityReceived int
	QuantityRejected int
	RejectionReason  RejectionReason
	RejectionNotes   string
	ReturnCarrier    string
	ReturnTrackingID string
}

// UpdateLine applies inspection edits and recomputes the accepted delta.
// Negative quantities are clamped to zero at this boundary; the pure core
// never sees them.
func (s *Service) UpdateLine(ctx context.Context, input UpdateLineInput) ([]Line, error) {
	header, cart, err := s.repo.GetReceipt(ctx, input.ReceiptID)
	if err != nil {
		return nil, err
	}
	if header.Finalized || header.AdminClosed {
		return nil, ErrInvalidState
	}
	found := false
	for i := range cart {
		if cart[i].SKU != input.SKU {
			continue
		}
		found = true
		cart[i].SetQuantities(clampNonNegative(input.QuantityReceived), clampNonNegative(input.QuantityRejected))
		cart[i].RejectionReason = input.RejectionReason
		cart[i].RejectionNotes = input.RejectionNotes
		cart[i].ReturnCarrier = input.ReturnCarrier
		cart[i].ReturnTrackingID = input.ReturnTrackingID
	}
	if !found {
		return nil, ErrNotFound
	}
	if err := s.saveCart(ctx, header.ID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RecordReturnInput registers a return shipment against one line.
type RecordReturnInput struct {
	ReceiptID  int64
	SKU        string
	Quantity   int
	Notes      string
	Carrier    string
	TrackingID string
}

// RecordReturn bumps the rejected count on the overdelivery path and stores
// carrier and tracking details.
func (s *Service) RecordReturn(ctx context.Context, input RecordReturnInput) ([]Line, error) {
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: return quantity must be positive", ErrInvalidState)
	}
	header, cart, err := s.repo.GetReceipt(ctx, input.ReceiptID)
	if err != nil {
		return nil, err
	}
	if header.Finalized {
		return nil, ErrInvalidState
	}
	found := false
	for i := range cart {
		if cart[i].SKU == input.SKU {
			cart[i].RecordReturn(input.Quantity, input.Notes, input.Carrier, input.TrackingID)
			found = true
		}
	}
	if !found {
		return nil, ErrNotFound
	}
	if err := s.saveCart(ctx, header.ID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SetAdminClose toggles the admin-close mode: enabling zeroes every line and
// records a synthetic closure note; disabling rebuilds the cart from the
// order and history.
func (s *Service) SetAdminClose(ctx context.Context, receiptID int64, enabled bool) (Header, []Line, error) {
	header, cart, err := s.repo.GetReceipt(ctx, receiptID)
	if err != nil {
		return Header{}, nil, err
	}
	if header.Finalized {
		return Header{}, nil, ErrInvalidState
	}
	if enabled {
		cart = ApplyAdminClose(cart)
		header.AdminClosed = true
		header.ForceClosed = true
		header.DeliveryNote = ClosureNoteID(time.Now())
	} else {
		header.AdminClosed = false
		header.ForceClosed = false
		if isClosureNote(header.DeliveryNote) {
			header.DeliveryNote = ""
		}
		if header.LinkedOrderID != "" {
			_, lines, err := s.orders.GetOrder(ctx, header.LinkedOrderID)
			if err != nil {
				return Header{}, nil, err
			}
			history, err := s.orders.AcceptedTotals(ctx, header.LinkedOrderID)
			if err != nil {
				return Header{}, nil, err
			}
			cart = RevertAdminClose(toOrderLines(lines), history)
		}
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateHeader(ctx, header); err != nil {
			return err
		}
		return tx.ReplaceLines(ctx, header.ID, cart)
	})
	if err != nil {
		return Header{}, nil, err
	}
	return header, cart, nil
}

// SetForceClose marks the receipt for closure despite outstanding shortfall.
// It is only accepted while a shortfall exists or admin-close is active.
func (s *Service) SetForceClose(ctx context.Context, receiptID int64, enabled bool) (Header, error) {
	header, cart, err := s.repo.GetReceipt(ctx, receiptID)
	if err != nil {
		return Header{}, err
	}
	if header.Finalized {
		return Header{}, ErrInvalidState
	}
	if enabled && !header.AdminClosed && !CanForceClose(cart) {
		return Header{}, fmt.Errorf("%w: no outstanding shortfall", ErrInvalidState)
	}
	header.ForceClosed = enabled
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateHeader(ctx, header)
	})
	if err != nil {
		return Header{}, err
	}
	return header, nil
}

// Preview reports the status the resolver would produce for the current
// cart, plus the cart totals, for the review step.
type Preview struct {
	Status        Status     `json:"status"`
	DisplayStatus Status     `json:"display_status"`
	Totals        CartTotals `json:"totals"`
	CanForceClose bool       `json:"can_force_close"`
}

// PreviewStatus resolves the receipt without side effects.
func (s *Service) PreviewStatus(ctx context.Context, receiptID int64) (Preview, error) {
	header, cart, err := s.repo.GetReceipt(ctx, receiptID)
	if err != nil {
		return Preview{}, err
	}
	orderLines, err := s.orderLines(ctx, header)
	if err != nil {
		return Preview{}, err
	}
	status := ResolveStatus(cart, orderLines, historyFromCart(cart))
	return Preview{
		Status:        status,
		DisplayStatus: DisplayStatus(status, header.ForceClosed),
		Totals:        Totals(cart),
		CanForceClose: CanForceClose(cart),
	}, nil
}

// FinalizeResult carries everything finalize produced. Failures lists ticket
// or ledger writes that failed; they never roll back the status resolution.
type FinalizeResult struct {
	BatchID       string          `json:"batch_id"`
	Status        Status          `json:"status"`
	DisplayStatus Status          `json:"display_status"`
	Cases         []Case          `json:"cases"`
	Movements     []StockMovement `json:"movements"`
	Failures      []string        `json:"failures,omitempty"`
}

// Finalize runs the one-time reconciliation: validation, status resolution,
// case generation and the stock-ledger projection, all over a single cart
// snapshot guarded by a per-receipt lock.
func (s *Service) Finalize(ctx context.Context, receiptID int64, actorID int64) (FinalizeResult, error) {
	release, err := s.acquireLock(ctx, receiptID)
	if err != nil {
		return FinalizeResult{}, err
	}
	defer release()

	header, cart, err := s.repo.GetReceipt(ctx, receiptID)
	if err != nil {
		return FinalizeResult{}, err
	}
	if header.Finalized {
		return FinalizeResult{}, ErrInvalidState
	}
	if err := validateFinalize(header, cart); err != nil {
		return FinalizeResult{}, err
	}

	key := fmt.Sprintf("RECEIPT:%d:%s", header.ID, header.DeliveryNote)
	inserted := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "receipt.finalize"); err != nil {
			return FinalizeResult{}, err
		}
		inserted = true
	}

	orderLines, err := s.orderLines(ctx, header)
	if err != nil {
		s.rollbackKey(ctx, inserted, key)
		return FinalizeResult{}, err
	}
	var order procurement.PurchaseOrder
	if header.LinkedOrderID != "" {
		order, _, err = s.orders.GetOrder(ctx, header.LinkedOrderID)
		if err != nil {
			s.rollbackKey(ctx, inserted, key)
			return FinalizeResult{}, err
		}
	}

	now := time.Now().UTC()
	status := ResolveStatus(cart, orderLines, historyFromCart(cart))
	result := FinalizeResult{
		BatchID:       fmt.Sprintf("b-%d", now.UnixMilli()),
		Status:        status,
		DisplayStatus: DisplayStatus(status, header.ForceClosed),
	}
	result.Cases = GenerateCases(CaseInput{
		BatchID:      result.BatchID,
		OrderID:      header.LinkedOrderID,
		DeliveryNote: header.DeliveryNote,
		Mode:         header.Mode,
		Config:       s.caseConfig,
		Cart:         cart,
		Now:          now,
	})
	result.Movements = StockMovements(cart, header.DeliveryNote, movementContext(header, order))

	header.Status = status
	header.BatchID = result.BatchID
	header.Finalized = true
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateHeader(ctx, header); err != nil {
			return err
		}
		return tx.ReplaceLines(ctx, header.ID, cart)
	})
	if err != nil {
		s.rollbackKey(ctx, inserted, key)
		return FinalizeResult{}, err
	}

	// Side effects are independent of each other and of the persisted
	// resolution: a failed sink write is reported, not rolled back.
	if header.LinkedOrderID != "" {
		accepted := make(map[string]int, len(cart))
		for _, line := range cart {
			accepted[line.SKU] += line.QuantityAccepted
		}
		if err := s.orders.RecordDeliveries(ctx, header.LinkedOrderID, header.DeliveryNote, accepted, now); err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("delivery log: %v", err))
			s.logger.Error("record deliveries", slog.Int64("receipt_id", header.ID), slog.Any("error", err))
		}
	}
	for _, c := range result.Cases {
		if s.ticketSink == nil {
			break
		}
		if err := s.ticketSink.OpenCase(ctx, c); err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("case %s: %v", c.ID, err))
			s.logger.Error("open case", slog.String("case_id", c.ID), slog.Any("error", err))
		}
	}
	for _, move := range result.Movements {
		if s.ledger == nil {
			break
		}
		refID := uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("RECEIPT:%d:%s", header.ID, move.SKU)))
		if err := s.ledger.PostMovement(ctx, move, refID.String()); err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("movement %s: %v", move.SKU, err))
			s.logger.Error("post movement", slog.String("sku", move.SKU), slog.Any("error", err))
		}
	}

	s.recordAudit(ctx, "RECEIPT_FINALIZE", header.ID, map[string]any{
		"batch_id": result.BatchID,
		"status":   string(result.Status),
		"cases":    len(result.Cases),
		"actor_id": actorID,
	})

	if s.events != nil {
		if err := s.events.PublishFinalized(ctx, NewFinalizedEvent(header, result, now)); err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("event: %v", err))
			s.logger.Error("publish finalized event", slog.Int64("receipt_id", header.ID), slog.Any("error", err))
		}
	}
	return result, nil
}

// GetReceipt returns header and cart.
func (s *Service) GetReceipt(ctx context.Context, id int64) (Header, []Line, error) {
	return s.repo.GetReceipt(ctx, id)
}

// ListOpen returns receipts that have not been finalized yet.
func (s *Service) ListOpen(ctx context.Context, limit int) ([]Header, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListUnfinalized(ctx, limit)
}

func (s *Service) saveCart(ctx context.Context, receiptID int64, cart []Line) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.ReplaceLines(ctx, receiptID, cart)
	})
}

func (s *Service) acquireLock(ctx context.Context, receiptID int64) (func(), error) {
	if s.lock == nil {
		return func() {}, nil
	}
	release, err := s.lock.Acquire(ctx, receiptID)
	if err != nil {
		if errors.Is(err, shared.ErrLockHeld) {
			return nil, ErrFinalizeInFlight
		}
		return nil, err
	}
	return release, nil
}

func (s *Service) orderLines(ctx context.Context, header Header) ([]OrderLine, error) {
	if header.LinkedOrderID == "" {
		return nil, nil
	}
	_, lines, err := s.orders.GetOrder(ctx, header.LinkedOrderID)
	if err != nil {
		return nil, err
	}
	return toOrderLines(lines), nil
}

func (s *Service) rollbackKey(ctx context.Context, inserted bool, key string) {
	if inserted {
		_ = s.idempotency.Delete(ctx, key)
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "receipt", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

func validateFinalize(header Header, cart []Line) error {
	if header.DeliveryNote == "" {
		return ErrMissingDeliveryNote
	}
	if len(cart) == 0 {
		return ErrEmptyCart
	}
	for _, line := range cart {
		if line.QuantityRejected > line.QuantityReceived {
			return fmt.Errorf("%w: %s", ErrRejectedExceedsReceived, line.SKU)
		}
	}
	return nil
}

func movementContext(header Header, order procurement.PurchaseOrder) MovementContext {
	if header.LinkedOrderID == "" {
		return ContextManual
	}
	if order.IsProject() {
		return ContextProject
	}
	return ContextNormal
}

// historyFromCart rebuilds the per-SKU accepted history captured at open
// time; the resolver and case generator must observe the same snapshot.
func historyFromCart(cart []Line) map[string]int {
	history := make(map[string]int, len(cart))
	for _, line := range cart {
		history[line.SKU] = line.PreviouslyReceived
	}
	return history
}

func toOrderLines(lines []procurement.OrderLine) []OrderLine {
	out := make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, OrderLine{SKU: line.SKU, Name: line.Name, QuantityExpected: line.QuantityExpected})
	}
	return out
}

func isClosureNote(note string) bool {
	return len(note) >= len("ABSCHLUSS-") && note[:len("ABSCHLUSS-")] == "ABSCHLUSS-"
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func defaultTime(value time.Time) time.Time {
	if value.IsZero() {
		return time.Now()
	}
	return value
}
