package metrics

import "time"

// CacheQueueStats is a snapshot of one cache queue (bytes cache or
// object cache) at a point in time.
type CacheQueueStats struct {
	Kind             string // "bytes" or "object"
	ProbationEntries int
	ProtectedEntries int
	Bytes            int64
}

// CacheStatsSource is satisfied by *cache.AtomCache. It is declared
// here, rather than imported, so the metrics package never depends on
// the cache package it instruments.
type CacheStatsSource interface {
	Stats() []CacheQueueStats
}

// WALStats is a snapshot of write-ahead log state at a point in time.
type WALStats struct {
	OpenSegments int
	BytesWritten uint64
}

// WALStatsSource is satisfied by *wal.AtomStore.
type WALStatsSource interface {
	Stats() WALStats
}

// Collector periodically samples gauges from the cache and WAL layers.
// Counters and histograms (hits, misses, append durations) are
// recorded inline by those packages as events happen; the collector
// only owns the metrics that require a point-in-time snapshot.
type Collector struct {
	cache  CacheStatsSource
	wal    WALStatsSource
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector. Either source may be
// nil, in which case that family of gauges is left unset.
func NewCollector(cache CacheStatsSource, wal WALStatsSource) *Collector {
	return &Collector{
		cache:  cache,
		wal:    wal,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a fixed interval.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectCacheMetrics()
	c.collectWALMetrics()
}

func (c *Collector) collectCacheMetrics() {
	if c.cache == nil {
		return
	}
	for _, q := range c.cache.Stats() {
		CacheEntriesTotal.WithLabelValues(q.Kind, "probation").Set(float64(q.ProbationEntries))
		CacheEntriesTotal.WithLabelValues(q.Kind, "protected").Set(float64(q.ProtectedEntries))
		CacheBytesTotal.WithLabelValues(q.Kind).Set(float64(q.Bytes))
	}
}

func (c *Collector) collectWALMetrics() {
	if c.wal == nil {
		return
	}
	stats := c.wal.Stats()
	WALSegmentsTotal.Set(float64(stats.OpenSegments))
}
