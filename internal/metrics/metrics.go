// Package metrics exposes Prometheus collectors for the POS services.
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"restaurant-pos/internal/models"
)

const namespace = "pos"

// Metrics holds the collectors of one process
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpInFlight  prometheus.Gauge
	ordersPlaced  *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	ledgerAmount  *prometheus.CounterVec
	commandFailed *prometheus.CounterVec
	ticketsSeen   *prometheus.CounterVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders placed by dining mode.",
		}, []string{"dining_mode"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status transitions by target status.",
		}, []string{"status"}),
		ledgerAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_amount_total",
			Help:      "Sum of recorded ledger amounts by transaction type.",
		}, []string{"type"}),
		commandFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_failed_total",
			Help:      "Rejected or failed engine commands by error code.",
		}, []string{"code"}),
		ticketsSeen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kitchen",
			Name:      "tickets_total",
			Help:      "Kitchen tickets received by station and status.",
		}, []string{"station", "status"}),
	}

	m.Registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.httpInFlight,
		m.ordersPlaced,
		m.transitions,
		m.ledgerAmount,
		m.commandFailed,
		m.ticketsSeen,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler returns an HTTP handler exposing the registered metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// OrderPlaced counts a new order
func (m *Metrics) OrderPlaced(mode models.DiningMode) {
	m.ordersPlaced.WithLabelValues(string(mode)).Inc()
}

// OrderTransitioned counts a status change
func (m *Metrics) OrderTransitioned(status models.OrderStatus) {
	m.transitions.WithLabelValues(string(status)).Inc()
}

// LedgerRecorded adds a ledger amount
func (m *Metrics) LedgerRecorded(txType models.TransactionType, amount decimal.Decimal) {
	m.ledgerAmount.WithLabelValues(string(txType)).Add(amount.InexactFloat64())
}

// CommandFailed counts a rejected command
func (m *Metrics) CommandFailed(code string) {
	if code == "" {
		code = "unknown"
	}
	m.commandFailed.WithLabelValues(code).Inc()
}

// TicketSeen counts a kitchen ticket update
func (m *Metrics) TicketSeen(station string, status models.OrderStatus) {
	m.ticketsSeen.WithLabelValues(station, string(status)).Inc()
}

// Instrument wraps next with request count and latency collection. Routes
// are labelled with the chi pattern so ids do not explode cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routePattern(r)
		method := strings.ToUpper(r.Method)
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack hands the connection to websocket upgrades
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(r.ResponseWriter).Hijack()
}
