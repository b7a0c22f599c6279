/*
Package metrics provides Prometheus metrics collection and exposition
for the storage engine.

The metrics package defines and registers all engine metrics using the
Prometheus client library, providing observability into cache
behavior, write-ahead log throughput, transaction outcomes, and
parallel scan scheduling. Metrics are exposed via an HTTP endpoint for
scraping by Prometheus servers.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └────────────────────────────────────────────┘          │
	│                                                            │
	│  ┌──────────────┐  ┌──────────────┐  ┌───────────────┐   │
	│  │ Counter       │  │ Gauge         │  │ Histogram      │   │
	│  │ (monotonic)   │  │ (point-in-time)│  │ (distribution) │   │
	│  └──────────────┘  └──────────────┘  └───────────────┘   │
	│                                                            │
	│  Recorded inline by the cache/wal/txn/parallel            │
	│  packages as events happen. Collector only samples the    │
	│  gauges that require a periodic point-in-time snapshot.   │
	│                                                            │
	└────────────────────────────────────────────────────────────┘

# Metric families

Cache:
  - protobase_cache_hits_total{kind,queue}: hits, split by bytes/object
    cache and by probation/protected queue.
  - protobase_cache_misses_total{kind}
  - protobase_cache_evictions_total{kind,queue}
  - protobase_cache_entries{kind,queue}: current entry counts, sampled
    by Collector.
  - protobase_cache_bytes{kind}: current estimated byte usage, sampled
    by Collector.
  - protobase_cache_load_duration_seconds{kind}: time to satisfy a
    cache miss via the underlying loader.

Write-ahead log:
  - protobase_wal_appends_total
  - protobase_wal_append_duration_seconds
  - protobase_wal_flush_duration_seconds
  - protobase_wal_segments_total: sampled by Collector.
  - protobase_wal_bytes_written_total
  - protobase_wal_corruption_errors_total

Transactions:
  - protobase_txn_started_total
  - protobase_txn_commits_total
  - protobase_txn_aborts_total
  - protobase_txn_conflicts_total
  - protobase_txn_rebases_total
  - protobase_txn_commit_duration_seconds

Query / parallel scan:
  - protobase_query_plans_executed_total{plan}: registered, but no
    package of the module records it.
  - protobase_query_execution_duration_seconds{plan}: registered, but
    no package of the module records it.
  - protobase_parallel_chunk_size
  - protobase_parallel_steals_total
  - protobase_parallel_workers_active

# Usage

	import "github.com/cuemby/protobase/pkg/metrics"

	metrics.CacheHitsTotal.WithLabelValues("object", "protected").Inc()
	metrics.TxnCommitsTotal.Inc()

	timer := metrics.NewTimer()
	// ... do work ...
	timer.ObserveDuration(metrics.TxnCommitDuration)

The Collector samples the gauges that need periodic refresh rather
than inline updates:

	collector := metrics.NewCollector(atomCache, atomStore)
	collector.Start()
	defer collector.Stop()

Health and readiness are tracked independently via RegisterComponent /
GetHealth / GetReadiness, keyed by component name ("wal", "block",
"cache" are treated as critical for readiness).
*/
package metrics
