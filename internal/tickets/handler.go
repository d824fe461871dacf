package tickets

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warelog-erp/warelog-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the ticket sink.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a ticket handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers ticket routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/undispatched", h.handleListUndispatched)
	r.Post("/{caseID}/dispatched", h.handleMarkDispatched)
}

func (h *Handler) handleListUndispatched(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	records, err := h.service.ListUndispatched(r.Context(), limit)
	if err != nil {
		h.logger.Error("list undispatched", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cases": records})
}

func (h *Handler) handleMarkDispatched(w http.ResponseWriter, r *http.Request) {
	err := h.service.MarkDispatched(r.Context(), chi.URLParam(r, "caseID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("mark dispatched", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
