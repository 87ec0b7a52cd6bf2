// Package metrics owns the Prometheus collectors of the storefront.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "boxoffice"

// Checkout outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeConflict  = "conflict"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	CheckoutOutcomes *prometheus.CounterVec
	ResolverTiers    *prometheus.CounterVec
	SnapshotFetches  *prometheus.CounterVec
	SelectionOps     *prometheus.CounterVec
	Refunds          prometheus.Counter
	HoldsReleased    prometheus.Counter
	ActiveSessions   prometheus.Gauge
	HTTPDuration     *prometheus.HistogramVec
}

// New builds a fresh registry so tests and several servers in one process
// never collide on the global one.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CheckoutOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Checkouts by outcome.",
		}, []string{"outcome"}),
		ResolverTiers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zone_resolutions_total",
			Help:      "Zone shape resolutions by matching tier.",
		}, []string{"tier"}),
		SnapshotFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_fetches_total",
			Help:      "Inventory snapshot fetches by result.",
		}, []string{"result"}),
		SelectionOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_operations_total",
			Help:      "Selection changes by operation and result.",
		}, []string{"op", "result"}),
		Refunds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refunds_total",
			Help:      "Orders refunded.",
		}),
		HoldsReleased: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "holds_released_total",
			Help:      "Held tickets released after their hold expired.",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Open shopper sessions.",
		}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterDB exports the connection pool statistics of db.
func (m *Metrics) RegisterDB(db *sql.DB) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, namespace))
}

// SelectionResult labels a selection operation.
func SelectionResult(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
