package cache

import (
	"hash/fnv"
	"strconv"

	"github.com/cuemby/protobase/pkg/metrics"
	"github.com/cuemby/protobase/pkg/types"
	"golang.org/x/sync/singleflight"
)

// bytesKey and objectKey are the lookup keys for the two caches, per
// spec §4.3: bytes are keyed by pointer alone, objects additionally by
// schema_epoch so bumping it isolates object-cache entries without
// touching the bytes cache.
type bytesKey struct {
	ptr types.AtomPointer
}

type objectKey struct {
	ptr         types.AtomPointer
	schemaEpoch uint64
}

func stripeIndex(key any, n int) int {
	h := fnv.New64a()
	switch k := key.(type) {
	case bytesKey:
		h.Write(k.ptr.TransactionID[:])
		_, _ = h.Write([]byte(strconv.FormatUint(k.ptr.Offset, 10)))
	case objectKey:
		h.Write(k.ptr.TransactionID[:])
		_, _ = h.Write([]byte(strconv.FormatUint(k.ptr.Offset, 10)))
		_, _ = h.Write([]byte(strconv.FormatUint(k.schemaEpoch, 10)))
	}
	return int(h.Sum64() % uint64(n))
}

// Loader fetches the bytes for a pointer on a cache miss, normally
// backed by *wal.AtomStore.GetBytes.
type Loader func(ptr types.AtomPointer) ([]byte, error)

// AtomCache implements the two-tier bytes/object cache described in
// spec §4.3, each striped by hash(pointer) mod N and each run under
// an independent 2Q eviction policy.
type AtomCache struct {
	cfg    types.Config
	loader Loader

	bytesStripes  []*stripe
	objectStripes []*stripe

	bytesInflight  singleflight.Group
	objectInflight singleflight.Group
}

// New builds an AtomCache per cfg. loader is consulted on a bytes-cache
// miss.
func New(cfg types.Config, loader Loader) *AtomCache {
	n := cfg.CacheStripes
	if n <= 0 {
		n = 1
	}
	c := &AtomCache{cfg: cfg, loader: loader}

	perStripeBytesEntries := divideCeil(cfg.BytesCacheMaxEntries, n)
	perStripeBytesBytes := int64(divideCeil(cfg.BytesCacheMaxBytes, n))
	perStripeObjectEntries := divideCeil(cfg.ObjectCacheMaxEntries, n)
	perStripeObjectBytes := int64(divideCeil(cfg.ObjectCacheMaxBytes, n))

	for i := 0; i < n; i++ {
		c.bytesStripes = append(c.bytesStripes, newStripe(perStripeBytesEntries, perStripeBytesBytes, cfg.CacheProbationRatio))
		c.objectStripes = append(c.objectStripes, newStripe(perStripeObjectEntries, perStripeObjectBytes, cfg.CacheProbationRatio))
	}
	return c
}

func divideCeil(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

// GetBytes implements the bytes half of the §4.3 read path: cache
// lookup, then single-flighted load via loader on miss.
func (c *AtomCache) GetBytes(ptr types.AtomPointer) ([]byte, error) {
	if !c.cfg.EnableBytesCache {
		return c.loader(ptr)
	}

	key := bytesKey{ptr: ptr}
	s := c.bytesStripes[stripeIndex(key, len(c.bytesStripes))]

	v, result := s.get(key)
	if result != lookupMiss {
		metrics.CacheHitsTotal.WithLabelValues("bytes", queueLabel(result)).Inc()
		return v.([]byte), nil
	}
	metrics.CacheMissesTotal.WithLabelValues("bytes").Inc()

	loadTimer := metrics.NewTimer()
	v, err, _ := c.bytesInflight.Do(bytesInflightKey(ptr), func() (any, error) {
		data, err := c.loader(ptr)
		if err != nil {
			return nil, err
		}
		s.put(key, data, int64(len(data)))
		return data, nil
	})
	loadTimer.ObserveDurationVec(metrics.CacheLoadDuration, "bytes")
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// GetObject implements the full §4.3 read path for a deserialized
// atom: object cache, then bytes cache, then single-flighted load.
// decode is called to turn raw bytes into a map only when neither
// cache already has the decoded form.
func (c *AtomCache) GetObject(ptr types.AtomPointer, decode func([]byte) (map[string]any, error)) (map[string]any, error) {
	if !c.cfg.EnableObjectCache {
		data, err := c.GetBytes(ptr)
		if err != nil {
			return nil, err
		}
		return decode(data)
	}

	okey := objectKey{ptr: ptr, schemaEpoch: c.cfg.SchemaEpoch}
	os := c.objectStripes[stripeIndex(okey, len(c.objectStripes))]

	if v, result := os.get(okey); result != lookupMiss {
		metrics.CacheHitsTotal.WithLabelValues("object", queueLabel(result)).Inc()
		return v.(map[string]any), nil
	}
	metrics.CacheMissesTotal.WithLabelValues("object").Inc()

	timer := metrics.NewTimer()
	v, err, _ := c.objectInflight.Do(objectInflightKey(ptr, c.cfg.SchemaEpoch), func() (any, error) {
		data, err := c.GetBytes(ptr)
		if err != nil {
			return nil, err
		}
		obj, err := decode(data)
		if err != nil {
			return nil, err
		}
		os.put(okey, obj, estimateObjectSize(obj))
		return obj, nil
	})
	timer.ObserveDurationVec(metrics.CacheLoadDuration, "object")
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// PutBytes write-through inserts data for ptr so it is warm on first
// read. Neither AtomStore's push path nor the transaction commit calls
// it; commit warms only the object cache, through PutObject.
func (c *AtomCache) PutBytes(ptr types.AtomPointer, data []byte) {
	if !c.cfg.EnableBytesCache {
		return
	}
	key := bytesKey{ptr: ptr}
	s := c.bytesStripes[stripeIndex(key, len(c.bytesStripes))]
	s.put(key, data, int64(len(data)))
}

// PutObject write-through inserts a decoded map for ptr.
func (c *AtomCache) PutObject(ptr types.AtomPointer, obj map[string]any) {
	if !c.cfg.EnableObjectCache {
		return
	}
	okey := objectKey{ptr: ptr, schemaEpoch: c.cfg.SchemaEpoch}
	s := c.objectStripes[stripeIndex(okey, len(c.objectStripes))]
	s.put(okey, obj, estimateObjectSize(obj))
}

// Stats implements metrics.CacheStatsSource.
func (c *AtomCache) Stats() []metrics.CacheQueueStats {
	out := make([]metrics.CacheQueueStats, 0, 2)
	out = append(out, aggregateStripeStats("bytes", c.bytesStripes))
	out = append(out, aggregateStripeStats("object", c.objectStripes))
	return out
}

func aggregateStripeStats(kind string, stripes []*stripe) metrics.CacheQueueStats {
	var q metrics.CacheQueueStats
	q.Kind = kind
	for _, s := range stripes {
		p, pr, b := s.stats()
		q.ProbationEntries += p
		q.ProtectedEntries += pr
		q.Bytes += b
	}
	return q
}

func queueLabel(r lookupResult) string {
	if r == lookupHitProtected {
		return "protected"
	}
	return "probation"
}

func bytesInflightKey(ptr types.AtomPointer) string {
	return "b:" + ptr.String()
}

func objectInflightKey(ptr types.AtomPointer, epoch uint64) string {
	return "o:" + ptr.String() + ":" + strconv.FormatUint(epoch, 10)
}

// estimateObjectSize is a coarse byte estimate for capacity
// accounting; exactness is not required since the cache is a best
// -effort latency optimization, not an allocator.
func estimateObjectSize(obj map[string]any) int64 {
	return int64(64 + 32*len(obj))
}
