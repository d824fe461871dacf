package receipt

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warelog-erp/warelog-erp/internal/observability"
	"github.com/warelog-erp/warelog-erp/internal/platform/httpx"
	"github.com/warelog-erp/warelog-erp/internal/shared"
)

// Handler wires HTTP endpoints for the receipt module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	metrics   *observability.Metrics
}

// NewHandler constructs a receipt handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		metrics:   metrics,
	}
}

// MountRoutes registers receipt routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleOpen)
	r.Route("/{receiptID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Get("/preview", h.handlePreview)
		r.Post("/lines", h.handleAddLine)
		r.Put("/lines/{sku}", h.handleUpdateLine)
		r.Post("/lines/{sku}/return", h.handleRecordReturn)
		r.Post("/admin-close", h.handleAdminClose)
		r.Post("/force-close", h.handleForceClose)
		r.Post("/finalize", h.handleFinalize)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be numeric")
			return
		}
		limit = parsed
	}
	headers, err := h.service.ListOpen(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"receipts": headers})
}

type openRequest struct {
	DeliveryNote      string `json:"delivery_note"`
	OrderID           string `json:"order_id"`
	Supplier          string `json:"supplier"`
	DeliveryDate      string `json:"delivery_date"`
	WarehouseLocation string `json:"warehouse_location"`
	Mode              string `json:"mode" validate:"omitempty,oneof=STANDARD RETURN"`
}

type receiptResponse struct {
	Header Header `json:"header"`
	Cart   []Line `json:"cart"`
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := OpenInput{
		DeliveryNote:      req.DeliveryNote,
		OrderID:           req.OrderID,
		Supplier:          req.Supplier,
		WarehouseLocation: req.WarehouseLocation,
		Mode:              Mode(req.Mode),
	}
	if req.DeliveryDate != "" {
		date, err := time.Parse("2006-01-02", req.DeliveryDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "delivery_date must be YYYY-MM-DD")
			return
		}
		input.DeliveryDate = date
	}
	header, cart, err := h.service.Open(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receiptResponse{Header: header, Cart: cart})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	header, cart, err := h.service.GetReceipt(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receiptResponse{Header: header, Cart: cart})
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	preview, err := h.service.PreviewStatus(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

type addLineRequest struct {
	SKU  string `json:"sku" validate:"required"`
	Name string `json:"name" validate:"required"`
}

func (h *Handler) handleAddLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	var req addLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	cart, err := h.service.AddLine(r.Context(), AddLineInput{ReceiptID: id, SKU: req.SKU, Name: req.Name})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cart": cart})
}

type updateLineRequest struct {
	QuantityReceived int    `json:"qty_received" validate:"gte=0"`
	QuantityRejected int    `json:"qty_rejected" validate:"gte=0"`
	RejectionReason  string `json:"rejection_reason" validate:"omitempty,oneof=DAMAGED WRONG OVERDELIVERY OTHER"`
	RejectionNotes   string `json:"rejection_notes"`
	ReturnCarrier    string `json:"return_carrier"`
	ReturnTrackingID string `json:"return_tracking_id"`
}

func (h *Handler) handleUpdateLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	var req updateLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	cart, err := h.service.UpdateLine(r.Context(), UpdateLineInput{
		ReceiptID:        id,
		SKU:              chi.URLParam(r, "sku"),
		QuantityReceived: req.QuantityReceived,
		QuantityRejected: req.QuantityRejected,
		RejectionReason:  RejectionReason(req.RejectionReason),
		RejectionNotes:   req.RejectionNotes,
		ReturnCarrier:    req.ReturnCarrier,
		ReturnTrackingID: req.ReturnTrackingID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cart": cart})
}

type recordReturnRequest struct {
	Quantity   int    `json:"quantity" validate:"gt=0"`
	Notes      string `json:"notes"`
	Carrier    string `json:"carrier"`
	TrackingID string `json:"tracking_id"`
}

func (h *Handler) handleRecordReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	var req recordReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	cart, err := h.service.RecordReturn(r.Context(), RecordReturnInput{
		ReceiptID:  id,
		SKU:        chi.URLParam(r, "sku"),
		Quantity:   req.Quantity,
		Notes:      req.Notes,
		Carrier:    req.Carrier,
		TrackingID: req.TrackingID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cart": cart})
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) handleAdminClose(w http.ResponseWriter, r *http.Request) {
	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	header, cart, err := h.service.SetAdminClose(r.Context(), id, req.Enabled)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receiptResponse{Header: header, Cart: cart})
}

func (h *Handler) handleForceClose(w http.ResponseWriter, r *http.Request) {
	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	header, err := h.service.SetForceClose(r.Context(), id, req.Enabled)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"header": header})
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	result, err := h.service.Finalize(r.Context(), id, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ReceiptFinalized(string(result.Status), len(result.Cases))
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) receiptID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "receiptID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "receipt id must be numeric")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrMissingDeliveryNote),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrRejectedExceedsReceived):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Finalize Blocked", err.Error())
	case errors.Is(err, ErrFinalizeInFlight),
		errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	default:
		h.logger.Error("receipt handler", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
