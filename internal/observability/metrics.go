// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Engine metrics
	SwapsExecuted *prometheus.CounterVec
	SwapsRejected *prometheus.CounterVec
	QuotesServed  prometheus.Counter
	LiquidityAdds prometheus.Counter
	LiquidityRems prometheus.Counter
	PoolsCreated  prometheus.Counter
	SwapVolumeIn  *prometheus.CounterVec
	FeesCollected *prometheus.CounterVec

	// Pool state metrics
	PoolReserves    *prometheus.GaugeVec
	PoolTotalShares *prometheus.GaugeVec
	ActivePools     prometheus.Gauge

	// Latency metrics
	SwapLatency  prometheus.Histogram
	QuoteLatency prometheus.Histogram

	// Ledger metrics
	LedgerAppends      *prometheus.CounterVec
	JournalWriteErrors prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Feed metrics
	FeedSubscribers prometheus.Gauge
	FeedDropped     prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "datadex"
	}

	return &Metrics{
		SwapsExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "swaps_executed_total",
			Help:      "Total number of swaps executed per pool",
		}, []string{"pool_id"}),
		SwapsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "swaps_rejected_total",
			Help:      "Total number of swaps rejected by reason",
		}, []string{"reason"}),
		QuotesServed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "quotes_served_total",
			Help:      "Total number of quotes served",
		}),
		LiquidityAdds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "liquidity_adds_total",
			Help:      "Total number of liquidity additions",
		}),
		LiquidityRems: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "liquidity_removals_total",
			Help:      "Total number of liquidity removals",
		}),
		PoolsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "pools_created_total",
			Help:      "Total number of pools created",
		}),
		SwapVolumeIn: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "swap_volume_in_total",
			Help:      "Cumulative raw input volume per pool",
		}, []string{"pool_id"}),
		FeesCollected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "fees_collected_total",
			Help:      "Cumulative raw fee amounts retained per pool",
		}, []string{"pool_id"}),

		PoolReserves: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "reserves",
			Help:      "Current raw reserves per pool and side",
		}, []string{"pool_id", "side"}),
		PoolTotalShares: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "total_shares",
			Help:      "Current total liquidity shares per pool",
		}, []string{"pool_id"}),
		ActivePools: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "active_pools",
			Help:      "Number of registered pools",
		}),

		SwapLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "swap_latency_seconds",
			Help:      "Swap execution latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		QuoteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "quote_latency_seconds",
			Help:      "Quote computation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		LedgerAppends: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "appends_total",
			Help:      "Total number of ledger appends by entry kind",
		}, []string{"kind"}),
		JournalWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "journal_write_errors_total",
			Help:      "Total number of failed journal writes",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		FeedSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "subscribers",
			Help:      "Number of connected trade feed subscribers",
		}),
		FeedDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "dropped_messages_total",
			Help:      "Total number of feed messages dropped on slow subscribers",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSwapExecuted records a committed swap.
func RecordSwapExecuted(poolID string, amountIn, feeAmount uint64, seconds float64) {
	DefaultMetrics.SwapsExecuted.WithLabelValues(poolID).Inc()
	DefaultMetrics.SwapVolumeIn.WithLabelValues(poolID).Add(float64(amountIn))
	DefaultMetrics.FeesCollected.WithLabelValues(poolID).Add(float64(feeAmount))
	DefaultMetrics.SwapLatency.Observe(seconds)
}

// RecordSwapRejected records a swap rejected before commit.
func RecordSwapRejected(reason string) {
	DefaultMetrics.SwapsRejected.WithLabelValues(reason).Inc()
}

// RecordQuote records a served quote.
func RecordQuote(seconds float64) {
	DefaultMetrics.QuotesServed.Inc()
	DefaultMetrics.QuoteLatency.Observe(seconds)
}

// UpdatePoolState updates the per-pool state gauges from a snapshot.
func UpdatePoolState(poolID string, reserveA, reserveB, totalShares uint64) {
	DefaultMetrics.PoolReserves.WithLabelValues(poolID, "a").Set(float64(reserveA))
	DefaultMetrics.PoolReserves.WithLabelValues(poolID, "b").Set(float64(reserveB))
	DefaultMetrics.PoolTotalShares.WithLabelValues(poolID).Set(float64(totalShares))
}

// RecordLedgerAppend records a ledger append by entry kind.
func RecordLedgerAppend(kind string) {
	DefaultMetrics.LedgerAppends.WithLabelValues(kind).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
