package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cache metrics
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protobase_cache_hits_total",
			Help: "Total number of cache hits by cache kind and queue",
		},
		[]string{"kind", "queue"},
	)

	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protobase_cache_misses_total",
			Help: "Total number of cache misses by cache kind",
		},
		[]string{"kind"},
	)

	CacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protobase_cache_evictions_total",
			Help: "Total number of cache evictions by cache kind and queue",
		},
		[]string{"kind", "queue"},
	)

	CacheEntriesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "protobase_cache_entries",
			Help: "Current number of cached entries by cache kind and queue",
		},
		[]string{"kind", "queue"},
	)

	CacheBytesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "protobase_cache_bytes",
			Help: "Current estimated bytes held by cache kind",
		},
		[]string{"kind"},
	)

	CacheLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "protobase_cache_load_duration_seconds",
			Help:    "Time taken to load a value on a cache miss, in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// WAL / block metrics
	WALAppendsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "protobase_wal_appends_total",
			Help: "Total number of atoms appended to the write-ahead log",
		},
	)

	WALAppendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "protobase_wal_append_duration_seconds",
			Help:    "Time taken to append an atom frame to the write-ahead log",
			Buckets: prometheus.DefBuckets,
		},
	)

	WALFlushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "protobase_wal_flush_duration_seconds",
			Help:    "Time taken to flush and optionally fsync the write-ahead log",
			Buckets: prometheus.DefBuckets,
		},
	)

	WALSegmentsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "protobase_wal_segments_total",
			Help: "Total number of open write-ahead log segments",
		},
	)

	WALBytesWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "protobase_wal_bytes_written_total",
			Help: "Total number of bytes written to the write-ahead log",
		},
	)

	WALCorruptionErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "protobase_wal_corruption_errors_total",
			Help: "Total number of frame corruption errors detected while reading the write-ahead log",
		},
	)

	// Transaction metrics
	TxnStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "protobase_txn_started_total",
			Help: "Total number of transactions started",
		},
	)

	TxnCommitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "protobase_txn_commits_total",
			Help: "Total number of successful transaction commits",
		},
	)

	TxnAbortsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "protobase_txn_aborts_total",
			Help: "Total number of explicit transaction aborts",
		},
	)

	TxnConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "protobase_txn_conflicts_total",
			Help: "Total number of commit attempts that lost the root CAS race",
		},
	)

	TxnRebasesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "protobase_txn_rebases_total",
			Help: "Total number of commit conflicts resolved by rebasing onto the new root",
		},
	)

	TxnCommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "protobase_txn_commit_duration_seconds",
			Help:    "Time taken to commit a transaction, including the rebase check",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Query / parallel scan metrics
	QueryPlansExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protobase_query_plans_executed_total",
			Help: "Total number of physical query plans executed, by root plan kind",
		},
		[]string{"plan"},
	)

	QueryExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "protobase_query_execution_duration_seconds",
			Help:    "Time taken to execute a query plan to completion, by root plan kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"plan"},
	)

	ParallelChunkSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "protobase_parallel_chunk_size",
			Help:    "Distribution of adaptive chunk sizes handed out by the parallel scan scheduler",
			Buckets: []float64{32, 64, 128, 256, 512, 1024, 2048, 4096, 8192},
		},
	)

	ParallelStealsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "protobase_parallel_steals_total",
			Help: "Total number of successful work-stealing steals across scan workers",
		},
	)

	ParallelWorkersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "protobase_parallel_workers_active",
			Help: "Number of parallel scan workers currently running",
		},
	)
)

func init() {
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CacheEvictionsTotal)
	prometheus.MustRegister(CacheEntriesTotal)
	prometheus.MustRegister(CacheBytesTotal)
	prometheus.MustRegister(CacheLoadDuration)

	prometheus.MustRegister(WALAppendsTotal)
	prometheus.MustRegister(WALAppendDuration)
	prometheus.MustRegister(WALFlushDuration)
	prometheus.MustRegister(WALSegmentsTotal)
	prometheus.MustRegister(WALBytesWrittenTotal)
	prometheus.MustRegister(WALCorruptionErrorsTotal)

	prometheus.MustRegister(TxnStartedTotal)
	prometheus.MustRegister(TxnCommitsTotal)
	prometheus.MustRegister(TxnAbortsTotal)
	prometheus.MustRegister(TxnConflictsTotal)
	prometheus.MustRegister(TxnRebasesTotal)
	prometheus.MustRegister(TxnCommitDuration)

	prometheus.MustRegister(QueryPlansExecutedTotal)
	prometheus.MustRegister(QueryExecutionDuration)
	prometheus.MustRegister(ParallelChunkSize)
	prometheus.MustRegister(ParallelStealsTotal)
	prometheus.MustRegister(ParallelWorkersActive)
}

// Handler returns the Prometheus HTTP handler, for embedders that want
// to expose /metrics alongside their own application endpoints.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
