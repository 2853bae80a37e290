package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Inventory reconciliation metrics
	FetchTotal       *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	RecordsGauge     prometheus.Gauge
	LedgerLookups    *prometheus.CounterVec
	LedgerConfirmed  prometheus.Counter
	LedgerPending    prometheus.Counter

	// External client metrics
	DocstoreOperations *prometheus.CounterVec
	DocstoreLatency    *prometheus.HistogramVec
	LedgerOperations   *prometheus.CounterVec
	LedgerLatency      *prometheus.HistogramVec

	// Event publication metrics
	EventsPublished *prometheus.CounterVec
	EventsFailed    *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		FetchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fetch_total",
			Help:      "Total number of inventory fetches by outcome",
		}, []string{"status"}),
		FetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent reconciling the full inventory",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		RecordsGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "records",
			Help:      "Number of medicine records in the current snapshot",
		}),
		LedgerLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ledger_lookups_total",
			Help:      "Per-record ledger lookups during fetch by outcome",
		}, []string{"status"}),
		LedgerConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ledger_confirmed_total",
			Help:      "Records observed on-chain during reconciliation",
		}),
		LedgerPending: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ledger_pending_total",
			Help:      "Records awaiting ledger confirmation during reconciliation",
		}),

		DocstoreOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "docstore_operations_total",
			Help:      "Total number of document store operations",
		}, []string{"operation", "status"}),
		DocstoreLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "docstore_operation_duration_seconds",
			Help:      "Duration of document store operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		LedgerOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ledger_operations_total",
			Help:      "Total number of ledger gateway operations",
		}, []string{"operation", "status"}),
		LedgerLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ledger_operation_duration_seconds",
			Help:      "Duration of ledger gateway operations",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"operation"}),

		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_published_total",
			Help:      "Inventory events published to the broker",
		}, []string{"event_type"}),
		EventsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_failed_total",
			Help:      "Inventory events that failed to publish",
		}, []string{"event_type"}),
	}
}
