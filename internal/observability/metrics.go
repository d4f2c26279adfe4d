package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pool ledger.
type Metrics struct {
	// --- Core Processing ---
	CallsApplied  *prometheus.CounterVec
	CallsRejected *prometheus.CounterVec
	CallDuration  *prometheus.HistogramVec
	StateHashDur  prometheus.Histogram
	Sequence      prometheus.Gauge

	// --- Pool State ---
	ReserveNative prometheus.Gauge
	ReserveAlt    prometheus.Gauge
	LPSupply      prometheus.Gauge
	PendingTotal  *prometheus.GaugeVec
	SwapVolume    *prometheus.CounterVec

	// --- Channel & Backpressure ---
	ChannelSize         *prometheus.GaugeVec
	ChannelCapacity     *prometheus.GaugeVec
	ChannelUtilization  *prometheus.GaugeVec
	PublishDrops        prometheus.Counter
	PersistBackpressure prometheus.Counter

	// --- Idempotency ---
	IdempotencyDuplicates *prometheus.CounterVec
	DedupLRUSize          prometheus.Gauge
	DedupTier2Duration    prometheus.Histogram

	// --- Persistence ---
	PersistCallsWritten prometheus.Counter
	PersistBatchDur     prometheus.Histogram
	PersistBatchSize    prometheus.Histogram
	PersistErrors       *prometheus.CounterVec
	PersistRetry        prometheus.Counter
	PersistLastSequence prometheus.Gauge

	// --- Snapshot & Replay ---
	SnapshotTaken     prometheus.Counter
	SnapshotDuration  prometheus.Histogram
	SnapshotSizeBytes prometheus.Gauge
	SnapshotLastSeq   prometheus.Gauge
	ReplayCallsTotal  prometheus.Counter
	ReplayDuration    prometheus.Gauge

	// --- Query API ---
	QueryRequests *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	latencyBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		// Core Processing
		CallsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_core_calls_applied_total",
			Help: "Calls successfully applied by the exchange core",
		}, []string{"op"}),

		CallsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_core_calls_rejected_total",
			Help: "Calls rejected (dedup, validation)",
		}, []string{"op", "reason"}),

		CallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pool_core_call_apply_duration_seconds",
			Help:    "Time to apply a single call in the core",
			Buckets: latencyBuckets,
		}, []string{"op"}),

		StateHashDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pool_core_state_hash_duration_seconds",
			Help:    "Time to compute state hash",
			Buckets: latencyBuckets,
		}),

		Sequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pool_core_sequence",
			Help: "Current global sequence number",
		}),

		// Pool State
		ReserveNative: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pool_reserve_native",
			Help: "Native asset reserve",
		}),

		ReserveAlt: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pool_reserve_alt",
			Help: "Alt asset reserve",
		}),

		LPSupply: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pool_lp_supply",
			Help: "Outstanding pool-share supply",
		}),

		PendingTotal: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pool_pending_total",
			Help: "Sum of pending balances per asset kind",
		}, []string{"asset"}),

		SwapVolume: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_swap_volume_total",
			Help: "Swap input volume per direction",
		}, []string{"direction"}),

		// Channel & Backpressure
		ChannelSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pool_channel_size",
			Help: "Current items in channel",
		}, []string{"name"}),

		ChannelCapacity: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pool_channel_capacity",
			Help: "Channel capacity (constant)",
		}, []string{"name"}),

		ChannelUtilization: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pool_channel_utilization",
			Help: "Channel size / capacity (0.0-1.0)",
		}, []string{"name"}),

		PublishDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pool_publish_drops_total",
			Help: "Calls dropped due to full publish channel",
		}),

		PersistBackpressure: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pool_persist_backpressure_total",
			Help: "Times the core blocked on the persist channel",
		}),

		// Idempotency
		IdempotencyDuplicates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_idempotency_duplicates_total",
			Help: "Duplicates caught (lru/postgres)",
		}, []string{"op", "tier"}),

		DedupLRUSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pool_dedup_lru_size",
			Help: "Current LRU occupancy",
		}),

		DedupTier2Duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pool_dedup_tier2_duration_seconds",
			Help:    "Postgres dedup lookup latency",
			Buckets: latencyBuckets,
		}),

		// Persistence
		PersistCallsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pool_persist_calls_written_total",
			Help: "Calls written to Postgres",
		}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pool_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pool_persist_batch_size",
			Help:    "Calls per batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_persist_errors_total",
			Help: "Persistence errors",
		}, []string{"error_type"}),

		PersistRetry: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pool_persist_retry_total",
			Help: "Persistence retries",
		}),

		PersistLastSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pool_persist_last_sequence",
			Help: "Last persisted sequence",
		}),

		// Snapshot & Replay
		SnapshotTaken: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pool_snapshot_taken_total",
			Help: "Snapshots created",
		}),

		SnapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pool_snapshot_duration_seconds",
			Help:    "Snapshot creation time",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		}),

		SnapshotSizeBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pool_snapshot_size_bytes",
			Help: "Last snapshot size",
		}),

		SnapshotLastSeq: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pool_snapshot_last_sequence",
			Help: "Sequence of last snapshot",
		}),

		ReplayCallsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pool_replay_calls_total",
			Help: "Calls replayed on startup",
		}),

		ReplayDuration: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pool_replay_duration_seconds",
			Help: "Total replay time",
		}),

		// Query API
		QueryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_query_requests_total",
			Help: "Query requests",
		}, []string{"endpoint", "status"}),

		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pool_query_duration_seconds",
			Help:    "Query latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"endpoint"}),

		QueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_query_errors_total",
			Help: "Query errors",
		}, []string{"endpoint", "code"}),
	}
}

// SetChannelMetrics updates channel utilization metrics.
func (m *Metrics) SetChannelMetrics(name string, size, capacity int) {
	m.ChannelSize.WithLabelValues(name).Set(float64(size))
	m.ChannelCapacity.WithLabelValues(name).Set(float64(capacity))
	if capacity > 0 {
		m.ChannelUtilization.WithLabelValues(name).Set(float64(size) / float64(capacity))
	}
}

// SetPoolState updates the pool reserve and supply gauges.
func (m *Metrics) SetPoolState(reserveNative, reserveAlt, lpSupply uint64) {
	m.ReserveNative.Set(float64(reserveNative))
	m.ReserveAlt.Set(float64(reserveAlt))
	m.LPSupply.Set(float64(lpSupply))
}
