/*
Package cache implements AtomCache: a pair of striped 2Q caches
(BytesCache and ObjectCache) sitting in front of pkg/wal, per spec
§4.3.

# Architecture

	┌──────────────────── ATOMCACHE ─────────────────────────────┐
	│                                                             │
	│  stripe = hash(pointer) mod N                              │
	│                                                             │
	│  ┌─────────────stripe 0──────────────┐  ...  ┌─stripe N-1─┐│
	│  │  probation queue (intrusive LRU)   │       │            ││
	│  │  protected queue (intrusive LRU)   │       │            ││
	│  │                                    │       │            ││
	│  └────────────────────────────────────┘       └────────────┘│
	│                                                             │
	└─────────────────────────────────────────────────────────────┘

Each stripe's queues are plain intrusive doubly-linked lists with
sentinel head/tail nodes, the same shape used across the pack's
LRU-style caches: no nil checks at the ends, O(1) unlink/relink on
every hit and eviction. Promotion from probation to protected happens
on a second probation hit or any protected hit; eviction drains
probation tail-first, then protected tail once probation is empty.

Concurrent misses for the same key are deduplicated with
golang.org/x/sync/singleflight so only one loader runs per key. There
is one singleflight.Group per cache (bytes and object), shared by all
of that cache's stripes.
*/
package cache
