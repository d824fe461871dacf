package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	receiptsFinalized *prometheus.CounterVec
	casesOpened       prometheus.Counter
	movementsPosted   *prometheus.CounterVec
}

// NewMetrics initialises the registry and base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warelog_http_requests_total",
		Help: "HTTP requests partitioned by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warelog_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	finalized := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warelog_receipts_finalized_total",
		Help: "Finalized goods receipts partitioned by resolved status.",
	}, []string{"status"})
	cases := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warelog_cases_opened_total",
		Help: "Follow-up cases opened during receipt finalization.",
	})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warelog_stock_movements_total",
		Help: "Stock ledger movements partitioned by context.",
	}, []string{"context"})
	registry.MustRegister(requests, duration, finalized, cases, movements)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		receiptsFinalized: finalized,
		casesOpened:       cases,
		movementsPosted:   movements,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ReceiptFinalized records one finalized receipt and its generated cases.
func (m *Metrics) ReceiptFinalized(status string, caseCount int) {
	if m == nil {
		return
	}
	m.receiptsFinalized.WithLabelValues(status).Inc()
	if caseCount > 0 {
		m.casesOpened.Add(float64(caseCount))
	}
}

// MovementPosted records one stock ledger posting.
func (m *Metrics) MovementPosted(context string) {
	if m == nil {
		return
	}
	m.movementsPosted.WithLabelValues(context).Inc()
}

// Registerer exposes the registry for custom collector registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
