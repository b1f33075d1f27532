package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/stockgrid/stockgrid/internal/inventory"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	body := scrape(t, NewMetrics())
	if !strings.Contains(body, `stockgrid_ledger_operations_total{operation="transfer",result="ok"} 0`) {
		t.Fatalf("expected ledger counters to be initialised, got: %s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected runtime collector output")
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsBody := scrape(t, metrics)
	if !strings.Contains(metricsBody, "stockgrid_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "stockgrid_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestObserveLedger(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveLedger(inventory.LedgerEvent{Operation: inventory.OpTransfer, Quantity: 30, Result: "ok"})
	metrics.ObserveLedger(inventory.LedgerEvent{Operation: inventory.OpTransfer, Quantity: 30, Result: "insufficient_stock"})

	body := scrape(t, metrics)
	for _, want := range []string{
		`stockgrid_ledger_operations_total{operation="transfer",result="ok"} 1`,
		`stockgrid_ledger_operations_total{operation="transfer",result="insufficient_stock"} 1`,
		`stockgrid_ledger_units_total{operation="transfer"} 30`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}
