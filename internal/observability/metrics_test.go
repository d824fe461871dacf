package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.ReceiptFinalized("PARTIAL_DELIVERY", 2)
	metrics.MovementPosted("NORMAL")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	metrics.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	body := rr.Body.String()
	if !strings.Contains(body, `warelog_receipts_finalized_total{status="PARTIAL_DELIVERY"} 1`) {
		t.Fatalf("expected finalized counter, got: %s", body)
	}
	if !strings.Contains(body, "warelog_cases_opened_total 2") {
		t.Fatalf("expected case counter, got: %s", body)
	}
	if !strings.Contains(body, `warelog_stock_movements_total{context="NORMAL"} 1`) {
		t.Fatalf("expected movement counter, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/receipts")

	req := httptest.NewRequest(http.MethodGet, "/receipts", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	metricsBody := metricsRR.Body.String()
	if !strings.Contains(metricsBody, `warelog_http_requests_total{code="418",route="/receipts"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, `warelog_http_request_duration_seconds_bucket{route="/receipts"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}
