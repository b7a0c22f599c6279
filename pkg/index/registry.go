package index

import "github.com/cuemby/protobase/pkg/collection"

// perIndex holds the key -> record-id-set tree for a single named
// index, wrapped so it can sit as a value inside the name-keyed
// collection.Dictionary below.
type perIndex struct {
	root *keyNode
}

// Registry is the immutable index_name -> key -> frozenset<record_id>
// mapping from spec §4.5. Add/Remove/Replace return a new Registry
// sharing every untouched index and key bucket with the receiver.
type Registry struct {
	byName *collection.Dictionary
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: &collection.Dictionary{}}
}

func (r *Registry) indexFor(name string) *perIndex {
	if r == nil || r.byName == nil {
		return &perIndex{}
	}
	v, ok := r.byName.GetAt(name)
	if !ok {
		return &perIndex{}
	}
	return v.(*perIndex)
}

// Add files recordID under key in the named index.
func (r *Registry) Add(indexName string, key, recordID any) *Registry {
	pi := r.indexFor(indexName)
	existing, _ := ktGet(pi.root, key)
	var set *collection.Set
	if existing != nil {
		set = existing
	} else {
		set = &collection.Set{}
	}
	newSet := set.Add(recordID)
	newRoot := ktSet(pi.root, key, newSet)
	return r.withIndex(indexName, &perIndex{root: newRoot})
}

// Remove unfiles recordID from key in the named index, dropping the
// key's bucket entirely once it becomes empty.
func (r *Registry) Remove(indexName string, key, recordID any) *Registry {
	pi := r.indexFor(indexName)
	existing, ok := ktGet(pi.root, key)
	if !ok {
		return r
	}
	newSet := existing.RemoveAt(recordID)
	var newRoot *keyNode
	if newSet.Count() == 0 {
		newRoot = ktRemove(pi.root, key)
	} else {
		newRoot = ktSet(pi.root, key, newSet)
	}
	return r.withIndex(indexName, &perIndex{root: newRoot})
}

// Replace moves a record id from oldID to newID under the same key,
// used when a record is updated in place without changing the key it
// is filed under.
func (r *Registry) Replace(indexName string, key, oldID, newID any) *Registry {
	return r.Remove(indexName, key, oldID).Add(indexName, key, newID)
}

// Get returns the record-id set filed under key in the named index,
// or an empty set if absent.
func (r *Registry) Get(indexName string, key any) *collection.Set {
	pi := r.indexFor(indexName)
	if set, ok := ktGet(pi.root, key); ok {
		return set
	}
	return &collection.Set{}
}

// Keys returns every key in the named index in ascending order, for
// plans that need a range-scannable ordered iterator.
func (r *Registry) Keys(indexName string) []any {
	pi := r.indexFor(indexName)
	var out []any
	ktInOrder(pi.root, func(k any, _ *collection.Set) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Range walks (key, record-id-set) pairs in the named index in
// ascending order, bounded by [low, high] or any open/closed
// combination of those ends. hasLow/hasHigh disable a bound entirely
// (an open range endpoint); lowInclusive/highInclusive control whether
// a present bound itself is matched, covering all four inclusivity
// combinations IndexedRangeSearchPlan needs (spec §4.6).
func (r *Registry) Range(indexName string, low, high any, hasLow, lowInclusive, hasHigh, highInclusive bool, visit func(key any, ids *collection.Set) bool) {
	pi := r.indexFor(indexName)
	inLower := func(k any) bool {
		if !hasLow {
			return true
		}
		c := cmpKey(k, low)
		if lowInclusive {
			return c >= 0
		}
		return c > 0
	}
	withinUpper := func(k any) bool {
		if !hasHigh {
			return true
		}
		c := cmpKey(k, high)
		if highInclusive {
			return c <= 0
		}
		return c < 0
	}
	ktRange(pi.root, inLower, withinUpper, visit)
}

// HasIndex reports whether the registry has ever seen the named
// index populated.
func (r *Registry) HasIndex(indexName string) bool {
	if r == nil || r.byName == nil {
		return false
	}
	return r.byName.Has(indexName)
}

// KeyCount returns the number of distinct keys in the named index,
// used by the query optimizer's selectivity tie-break (spec §4.5 rule
// 4: prefer the index with fewer total keys when cardinalities tie).
func (r *Registry) KeyCount(indexName string) int {
	pi := r.indexFor(indexName)
	n := 0
	ktInOrder(pi.root, func(any, *collection.Set) bool {
		n++
		return true
	})
	return n
}

// IndexNames returns every index name the registry has ever seen
// populated, in ascending order, for callers that need to enumerate
// indexes (e.g. persisting each one as a separate atom).
func (r *Registry) IndexNames() []string {
	if r == nil || r.byName == nil {
		return nil
	}
	return r.byName.Keys()
}

func (r *Registry) withIndex(name string, pi *perIndex) *Registry {
	base := r.byName
	if base == nil {
		base = &collection.Dictionary{}
	}
	return &Registry{byName: base.SetAt(name, pi)}
}
