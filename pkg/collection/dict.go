package collection

import "strings"

func cmpString(a, b string) int { return strings.Compare(a, b) }

// Dictionary is the persistent, AVL-balanced, string-keyed map from
// spec §4.4.2. The zero value is an empty dictionary.
type Dictionary struct {
	root *avlNode[string, any]
}

// Count returns the number of bindings.
func (d *Dictionary) Count() int { return count(d.root) }

// GetAt returns the value bound to key, if present.
func (d *Dictionary) GetAt(key string) (any, bool) {
	return avlGet(d.root, key, cmpString)
}

// Has reports whether key is bound.
func (d *Dictionary) Has(key string) bool {
	_, ok := d.GetAt(key)
	return ok
}

// SetAt returns a new Dictionary with key bound to value.
func (d *Dictionary) SetAt(key string, value any) *Dictionary {
	return &Dictionary{root: avlInsert(d.root, key, value, cmpString)}
}

// RemoveAt returns a new Dictionary with key unbound; a missing key is
// a no-op that returns the receiver.
func (d *Dictionary) RemoveAt(key string) *Dictionary {
	newRoot := avlRemove(d.root, key, cmpString)
	if newRoot == d.root {
		return d
	}
	return &Dictionary{root: newRoot}
}

// AsIterable calls visit for every (key, value) pair in ascending key
// order, stopping early if visit returns false.
func (d *Dictionary) AsIterable(visit func(string, any) bool) {
	avlInOrder(d.root, visit)
}

// Range calls visit for every binding whose key lies in [low, high)
// (hasLow or hasHigh set to false disables that side, matching an
// open range).
// Keys are compared with strings.Compare, matching the tree's
// ordering.
func (d *Dictionary) Range(low, high string, hasLow, hasHigh bool, visit func(string, any) bool) {
	inLower := func(k string) bool {
		return !hasLow || strings.Compare(k, low) >= 0
	}
	withinUpper := func(k string) bool {
		return !hasHigh || strings.Compare(k, high) < 0
	}
	avlRange(d.root, inLower, withinUpper, visit)
}

// Keys returns every key in ascending order.
func (d *Dictionary) Keys() []string {
	out := make([]string, 0, d.Count())
	d.AsIterable(func(k string, _ any) bool {
		out = append(out, k)
		return true
	})
	return out
}
