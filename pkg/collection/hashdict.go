package collection

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// hashEntry is what HashDictionary actually stores at each bucket: the
// original key alongside its value, so two keys that collide under
// CanonicalHash remain distinguishable (spec §4.4.3 treats the 64-bit
// hash as a bucket selector, not an identity).
type hashEntry struct {
	key   any
	value any
}

// HashDictionary is the persistent, AVL-balanced map keyed by a
// canonical 64-bit hash from spec §4.4.3. Collisions are resolved by
// chaining same-hash entries in a slice at the bucket.
type HashDictionary struct {
	root *avlNode[uint64, []hashEntry]
}

// Count returns the number of bindings (not buckets).
func (h *HashDictionary) Count() int {
	total := 0
	avlInOrder(h.root, func(_ uint64, bucket []hashEntry) bool {
		total += len(bucket)
		return true
	})
	return total
}

// GetAt returns the value bound to a key equal to key, if present.
func (h *HashDictionary) GetAt(key any) (any, bool) {
	bucket, ok := avlGet(h.root, CanonicalHash(key), cmpUint64)
	if !ok {
		return nil, false
	}
	for _, e := range bucket {
		if CanonicalHash(e.key) == CanonicalHash(key) && canonicalEqual(e.key, key) {
			return e.value, true
		}
	}
	return nil, false
}

// Has reports whether key is bound.
func (h *HashDictionary) Has(key any) bool {
	_, ok := h.GetAt(key)
	return ok
}

// SetAt returns a new HashDictionary with key bound to value.
func (h *HashDictionary) SetAt(key, value any) *HashDictionary {
	hk := CanonicalHash(key)
	bucket, _ := avlGet(h.root, hk, cmpUint64)
	newBucket := make([]hashEntry, 0, len(bucket)+1)
	replaced := false
	for _, e := range bucket {
		if canonicalEqual(e.key, key) {
			newBucket = append(newBucket, hashEntry{key: key, value: value})
			replaced = true
		} else {
			newBucket = append(newBucket, e)
		}
	}
	if !replaced {
		newBucket = append(newBucket, hashEntry{key: key, value: value})
	}
	return &HashDictionary{root: avlInsert(h.root, hk, newBucket, cmpUint64)}
}

// RemoveAt returns a new HashDictionary with key unbound; a missing
// key is a no-op that returns the receiver.
func (h *HashDictionary) RemoveAt(key any) *HashDictionary {
	hk := CanonicalHash(key)
	bucket, ok := avlGet(h.root, hk, cmpUint64)
	if !ok {
		return h
	}
	newBucket := make([]hashEntry, 0, len(bucket))
	found := false
	for _, e := range bucket {
		if canonicalEqual(e.key, key) {
			found = true
			continue
		}
		newBucket = append(newBucket, e)
	}
	if !found {
		return h
	}
	if len(newBucket) == 0 {
		return &HashDictionary{root: avlRemove(h.root, hk, cmpUint64)}
	}
	return &HashDictionary{root: avlInsert(h.root, hk, newBucket, cmpUint64)}
}

// Merge returns a new HashDictionary containing every binding from h
// and other; bindings in other win on key collision (right-biased per
// spec §4.4.3).
func (h *HashDictionary) Merge(other *HashDictionary) *HashDictionary {
	result := h
	other.AsIterable(func(k, v any) bool {
		result = result.SetAt(k, v)
		return true
	})
	return result
}

// First returns the binding with the smallest hash, if any.
func (h *HashDictionary) First() (key, value any, ok bool) {
	if h.root == nil {
		return nil, nil, false
	}
	n := avlMin(h.root)
	return n.value[0].key, n.value[0].value, true
}

// Last returns the binding with the largest hash, if any.
func (h *HashDictionary) Last() (key, value any, ok bool) {
	if h.root == nil {
		return nil, nil, false
	}
	n := avlMax(h.root)
	last := n.value[len(n.value)-1]
	return last.key, last.value, true
}

// AsIterable calls visit for every (key, value) pair in ascending hash
// order, stopping early if visit returns false.
func (h *HashDictionary) AsIterable(visit func(key, value any) bool) {
	avlInOrder(h.root, func(_ uint64, bucket []hashEntry) bool {
		for _, e := range bucket {
			if !visit(e.key, e.value) {
				return false
			}
		}
		return true
	})
}

// canonicalEqual compares two keys by their canonical encoding rather
// than Go equality, so e.g. differently-typed-but-equivalent numeric
// keys collide the way spec §4.4.6 intends. Atom-backed keys compare
// by AtomPointer.
func canonicalEqual(a, b any) bool {
	if ah, ok := a.(HashableAsAtom); ok {
		bh, ok := b.(HashableAsAtom)
		return ok && ah.AtomPointer() == bh.AtomPointer()
	}
	return CanonicalHash(a) == CanonicalHash(b) && canonicalEncodingEqual(a, b)
}
