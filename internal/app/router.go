package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/warelog-erp/warelog-erp/internal/inventory"
	"github.com/warelog-erp/warelog-erp/internal/observability"
	"github.com/warelog-erp/warelog-erp/internal/procurement"
	"github.com/warelog-erp/warelog-erp/internal/receipt"
	"github.com/warelog-erp/warelog-erp/internal/tickets"
	"github.com/warelog-erp/warelog-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	ReceiptHandler     *receipt.Handler
	ProcurementHandler *procurement.Handler
	InventoryHandler   *inventory.Handler
	TicketsHandler     *tickets.Handler
	JobsHandler        *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/receipts", params.ReceiptHandler.MountRoutes)
	r.Route("/orders", params.ProcurementHandler.MountRoutes)
	if params.InventoryHandler != nil {
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
	}
	if params.TicketsHandler != nil {
		r.Route("/cases", params.TicketsHandler.MountRoutes)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
