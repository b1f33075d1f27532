package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stockgrid/stockgrid/internal/inventory"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ledgerOps       *prometheus.CounterVec
	ledgerUnits     *prometheus.CounterVec
}

// NewMetrics initialises the registry and the application metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgrid_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockgrid_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	ledgerOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgrid_ledger_operations_total",
		Help: "Ledger operations by operation and result.",
	}, []string{"operation", "result"})
	ledgerUnits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockgrid_ledger_units_total",
		Help: "Units touched by successful ledger operations.",
	}, []string{"operation"})
	registry.MustRegister(
		requests, duration, ledgerOps, ledgerUnits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, op := range []string{inventory.OpAssign, inventory.OpAdjust, inventory.OpRemove, inventory.OpTransfer} {
		ledgerOps.WithLabelValues(op, "ok")
		ledgerUnits.WithLabelValues(op)
	}
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		ledgerOps:       ledgerOps,
		ledgerUnits:     ledgerUnits,
	}
}

// ObserveLedger counts a ledger operation outcome.
func (m *Metrics) ObserveLedger(evt inventory.LedgerEvent) {
	if m == nil {
		return
	}
	m.ledgerOps.WithLabelValues(evt.Operation, evt.Result).Inc()
	if evt.Result == "ok" && evt.Quantity > 0 {
		m.ledgerUnits.WithLabelValues(evt.Operation).Add(float64(evt.Quantity))
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and duration per route pattern.
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

// Registerer exposes the registry for custom collectors.
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
