package procurement

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/warelog-erp/warelog-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the procurement module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a procurement handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/open", h.handleListOpen)
	r.Get("/{orderID}", h.handleGet)
}

func (h *Handler) handleListOpen(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOpenOrders(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": orders})
}

type orderResponse struct {
	Order          PurchaseOrder  `json:"order"`
	Lines          []OrderLine    `json:"lines"`
	AcceptedTotals map[string]int `json:"accepted_totals"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var resp orderResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		order, lines, err := h.service.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		resp.Order = order
		resp.Lines = lines
		return nil
	})
	g.Go(func() error {
		totals, err := h.service.AcceptedTotals(ctx, orderID)
		if err != nil {
			return err
		}
		resp.AcceptedTotals = totals
		return nil
	})
	if err := g.Wait(); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("procurement handler", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
