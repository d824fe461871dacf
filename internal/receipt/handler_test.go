package receipt

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/warelog-erp/warelog-erp/internal/observability"
)

func newTestRouter(t *testing.T) (*fixture, http.Handler) {
	t.Helper()
	f := newFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, f.service, observability.NewMetrics())
	r := chi.NewRouter()
	r.Route("/receipts", handler.MountRoutes)
	return f, r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandlerReceiptLifecycle(t *testing.T) {
	_, router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/receipts", `{"delivery_note":"LS-1","order_id":"PO-1"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created receiptResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "Schmidt GmbH", created.Header.Supplier)
	require.Len(t, created.Cart, 2)

	rr = doJSON(t, router, http.MethodGet, "/receipts", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"LS-1"`)

	rr = doJSON(t, router, http.MethodPut, "/receipts/1/lines/A", `{"qty_received":3,"qty_rejected":0}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/receipts/1/preview", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "PARTIAL_DELIVERY")

	rr = doJSON(t, router, http.MethodPost, "/receipts/1/finalize", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var result FinalizeResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	require.Equal(t, StatusPartialDelivery, result.Status)
	require.True(t, strings.HasPrefix(result.BatchID, "b-"))

	// Second finalize conflicts.
	rr = doJSON(t, router, http.MethodPost, "/receipts/1/finalize", "")
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandlerFinalizeValidationProblem(t *testing.T) {
	_, router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/receipts", `{"order_id":"PO-1"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/receipts/1/finalize", "")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "delivery note")
}

func TestHandlerNotFound(t *testing.T) {
	_, router := newTestRouter(t)
	rr := doJSON(t, router, http.MethodGet, "/receipts/99", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerRejectsUnknownFields(t *testing.T) {
	_, router := newTestRouter(t)
	rr := doJSON(t, router, http.MethodPost, "/receipts", `{"delivery_note":"LS-1","bogus":true}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerInvalidMode(t *testing.T) {
	_, router := newTestRouter(t)
	rr := doJSON(t, router, http.MethodPost, "/receipts", `{"delivery_note":"LS-1","mode":"SIDEWAYS"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "Validation Failed")
}
