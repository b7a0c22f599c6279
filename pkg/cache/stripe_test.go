package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStripeTwoQPromotion mirrors spec §8's seed scenario: with
// max_entries=3, probation_ratio=0.5, reading p1, p2, p3 once each
// fills probation; re-reading p1 promotes it to protected; inserting
// p4 then p5 evicts p2 first, and p1 survives.
func TestStripeTwoQPromotion(t *testing.T) {
	s := newStripe(3, 1<<20, 0.5)

	s.put("p1", "v1", 1)
	s.put("p2", "v2", 1)
	s.put("p3", "v3", 1)

	_, result := s.get("p1")
	require.Equal(t, lookupHitProbation, result)

	s.put("p4", "v4", 1)
	_, ok := s.byKey["p2"]
	require.False(t, ok, "p2 should be the first evicted")

	s.put("p5", "v5", 1)

	_, ok = s.byKey["p1"]
	require.True(t, ok, "p1 should survive eviction, having been promoted")
	require.Equal(t, queueProtected, s.byKey["p1"].queue)
}

func TestStripeGetMissReturnsLookupMiss(t *testing.T) {
	s := newStripe(10, 1<<20, 0.5)
	_, result := s.get("missing")
	require.Equal(t, lookupMiss, result)
}

func TestStripePutOverwritesExistingEntry(t *testing.T) {
	s := newStripe(10, 1<<20, 0.5)
	s.put("k", "v1", 1)
	s.put("k", "v2", 1)
	v, result := s.get("k")
	require.Equal(t, lookupHitProbation, result)
	require.Equal(t, "v2", v)
}
