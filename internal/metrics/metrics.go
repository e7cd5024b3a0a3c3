// Package metrics exposes exchange counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the exchange's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	orders        *prometheus.CounterVec
	rejects       *prometheus.CounterVec
	trades        *prometheus.CounterVec
	volume        *prometheus.CounterVec
	settlementErr *prometheus.CounterVec
	persistErr    *prometheus.CounterVec
	resting       *prometheus.GaugeVec
	durations     *prometheus.SummaryVec
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clob_orders_total",
			Help: "Orders accepted by the engine",
		}, []string{"pair", "side", "kind"}),
		rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clob_rejects_total",
			Help: "Operations rejected, by error code",
		}, []string{"pair", "op", "code"}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clob_trades_total",
			Help: "Fills executed",
		}, []string{"pair", "auction"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clob_quote_volume_total",
			Help: "Traded quote amount",
		}, []string{"pair"}),
		settlementErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clob_settlement_errors_total",
			Help: "Settlement calls that failed after the book changed",
		}, []string{"pair"}),
		persistErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clob_persist_errors_total",
			Help: "Failed writes to order/trade stores or the event stream",
		}, []string{"sink"}),
		resting: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "clob_resting_orders",
			Help: "Orders resting in the book",
		}, []string{"pair"}),
		durations: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "clob_operation_duration_seconds",
			Help:       "Engine operation latency under the pair lock",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clob_http_requests_total",
			Help: "HTTP requests served, by route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clob_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		m.orders, m.rejects, m.trades, m.volume, m.settlementErr, m.persistErr, m.resting, m.durations,
		m.httpRequests, m.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the registry to tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) OrderAccepted(pair, side, kind string) {
	m.orders.WithLabelValues(pair, side, kind).Inc()
}

func (m *Metrics) Rejected(pair, op, code string) {
	m.rejects.WithLabelValues(pair, op, code).Inc()
}

func (m *Metrics) Trade(pair string, auction bool, quote float64) {
	label := "false"
	if auction {
		label = "true"
	}
	m.trades.WithLabelValues(pair, label).Inc()
	m.volume.WithLabelValues(pair).Add(quote)
}

func (m *Metrics) SettlementError(pair string) {
	m.settlementErr.WithLabelValues(pair).Inc()
}

func (m *Metrics) PersistError(sink string) {
	m.persistErr.WithLabelValues(sink).Inc()
}

func (m *Metrics) Resting(pair string, n int) {
	m.resting.WithLabelValues(pair).Set(float64(n))
}

// Observe records how long op took since start.
func (m *Metrics) Observe(op string, start time.Time) {
	m.durations.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// HTTPRequest records one served request. route is the mux pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) HTTPRequest(method, route string, status int, start time.Time) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
}
