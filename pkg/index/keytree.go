package index

import (
	"fmt"

	"github.com/cuemby/protobase/pkg/collection"
)

// cmpKey imposes a total order over index keys, honoring spec §4.5's
// numeric semantics: integer and float keys compare numerically
// against each other regardless of concrete Go type, strings compare
// lexicographically, and keys are never coerced to strings to compare
// against a number. Mixed numeric/string comparisons fall back to a
// stable (but otherwise unspecified) string-form comparison — callers
// should not build a single index across incompatible key types.
func cmpKey(a, b any) int {
	af, aIsNum := asFloat(a)
	bf, bIsNum := asFloat(b)
	if aIsNum && bIsNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	af2 := fmt.Sprintf("%v", a)
	bf2 := fmt.Sprintf("%v", b)
	switch {
	case af2 < bf2:
		return -1
	case af2 > bf2:
		return 1
	default:
		return 0
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// keyNode is a persistent AVL node mapping a single index key to the
// set of record ids filed under it. Structurally identical to
// pkg/collection's generic core, kept as its own small copy here since
// the key comparator is index-specific (cmpKey) rather than a fixed
// Go type parameter.
type keyNode struct {
	key         any
	ids         *collection.Set
	left, right *keyNode
	height      int
}

func ktHeight(n *keyNode) int {
	if n == nil {
		return 0
	}
	return n.height
}

func ktNew(key any, ids *collection.Set, left, right *keyNode) *keyNode {
	h := ktHeight(left)
	if rh := ktHeight(right); rh > h {
		h = rh
	}
	return &keyNode{key: key, ids: ids, left: left, right: right, height: h + 1}
}

func ktBalance(n *keyNode) int { return ktHeight(n.left) - ktHeight(n.right) }

func ktRotateRight(n *keyNode) *keyNode {
	l := n.left
	return ktNew(l.key, l.ids, l.left, ktNew(n.key, n.ids, l.right, n.right))
}

func ktRotateLeft(n *keyNode) *keyNode {
	r := n.right
	return ktNew(r.key, r.ids, ktNew(n.key, n.ids, n.left, r.left), r.right)
}

func ktRebalance(n *keyNode) *keyNode {
	if n == nil {
		return nil
	}
	bf := ktBalance(n)
	if bf > 1 {
		if ktBalance(n.left) < 0 {
			n = ktNew(n.key, n.ids, ktRotateLeft(n.left), n.right)
		}
		return ktRotateRight(n)
	}
	if bf < -1 {
		if ktBalance(n.right) > 0 {
			n = ktNew(n.key, n.ids, n.left, ktRotateRight(n.right))
		}
		return ktRotateLeft(n)
	}
	return n
}

func ktSet(n *keyNode, key any, ids *collection.Set) *keyNode {
	if n == nil {
		return ktNew(key, ids, nil, nil)
	}
	c := cmpKey(key, n.key)
	switch {
	case c < 0:
		return ktRebalance(ktNew(n.key, n.ids, ktSet(n.left, key, ids), n.right))
	case c > 0:
		return ktRebalance(ktNew(n.key, n.ids, n.left, ktSet(n.right, key, ids)))
	default:
		return ktNew(key, ids, n.left, n.right)
	}
}

func ktGet(n *keyNode, key any) (*collection.Set, bool) {
	for n != nil {
		c := cmpKey(key, n.key)
		switch {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n.ids, true
		}
	}
	return nil, false
}

func ktRemove(n *keyNode, key any) *keyNode {
	if n == nil {
		return nil
	}
	c := cmpKey(key, n.key)
	switch {
	case c < 0:
		newLeft := ktRemove(n.left, key)
		if newLeft == n.left {
			return n
		}
		return ktRebalance(ktNew(n.key, n.ids, newLeft, n.right))
	case c > 0:
		newRight := ktRemove(n.right, key)
		if newRight == n.right {
			return n
		}
		return ktRebalance(ktNew(n.key, n.ids, n.left, newRight))
	default:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		succ := ktMin(n.right)
		newRight := ktRemove(n.right, succ.key)
		return ktRebalance(ktNew(succ.key, succ.ids, n.left, newRight))
	}
}

func ktMin(n *keyNode) *keyNode {
	for n.left != nil {
		n = n.left
	}
	return n
}

func ktInOrder(n *keyNode, visit func(any, *collection.Set) bool) bool {
	if n == nil {
		return true
	}
	if !ktInOrder(n.left, visit) {
		return false
	}
	if !visit(n.key, n.ids) {
		return false
	}
	return ktInOrder(n.right, visit)
}

// ktRange walks keys in ascending order, restricted by inLower/
// withinUpper predicates, implementing the lower-bound-descent +
// in-order-walk traversal spec §4.5 requires of IndexedRangeSearchPlan.
func ktRange(n *keyNode, inLower func(any) bool, withinUpper func(any) bool, visit func(any, *collection.Set) bool) bool {
	if n == nil {
		return true
	}
	if inLower(n.key) {
		if !ktRange(n.left, inLower, withinUpper, visit) {
			return false
		}
		if !withinUpper(n.key) {
			return false
		}
		if !visit(n.key, n.ids) {
			return false
		}
	}
	return ktRange(n.right, inLower, withinUpper, visit)
}
