package txn

import "github.com/cuemby/protobase/pkg/collection"

// StagedAtom is an ephemeral, not-yet-persisted value held inside a
// transaction, per spec §9's design note on ephemeral vs persistent
// staging: computing a hash over a draft value must not itself force
// a write. Its Hash is content-derived and never changes, so code
// that placed a StagedAtom into a hash-keyed structure during staging
// never needs to re-hash or relocate it once the enclosing root object
// is persisted — each collection root flattens to a single atom and an
// index registry to one atom per index (see DESIGN.md's root-object
// persistence granularity note), so no staged member ever
// independently transitions to a pointer-derived
// identity; its hash is stable by construction, trivially satisfying
// the design note's requirement.
type StagedAtom struct {
	value any
	hash  uint64
}

// Stage wraps value for ephemeral use within this transaction (for
// example as a key or member of a collection under construction)
// without writing anything to the WAL. Call Value to retrieve it back
// for staging into a root object with SetRootObject.
func (t *Transaction) Stage(value any) *StagedAtom {
	return &StagedAtom{value: value, hash: collection.CanonicalHash(value)}
}

// Value returns the staged value.
func (s *StagedAtom) Value() any { return s.value }

// Hash returns the staged value's canonical content hash.
func (s *StagedAtom) Hash() uint64 { return s.hash }
