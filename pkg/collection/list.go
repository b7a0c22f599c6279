package collection

// listNode is an order-statistics AVL node: position within the list
// is derived from subtree sizes rather than stored explicitly, so
// insert_at/remove_at only touch the path from the root.
type listNode struct {
	value       any
	left, right *listNode
	height      int
	size        int
}

func lHeight(n *listNode) int {
	if n == nil {
		return 0
	}
	return n.height
}

func lSize(n *listNode) int {
	if n == nil {
		return 0
	}
	return n.size
}

func lNew(value any, left, right *listNode) *listNode {
	h := lHeight(left)
	if rh := lHeight(right); rh > h {
		h = rh
	}
	return &listNode{
		value: value, left: left, right: right,
		height: h + 1,
		size:   lSize(left) + lSize(right) + 1,
	}
}

func lBalance(n *listNode) int { return lHeight(n.left) - lHeight(n.right) }

func lRotateRight(n *listNode) *listNode {
	l := n.left
	return lNew(l.value, l.left, lNew(n.value, l.right, n.right))
}

func lRotateLeft(n *listNode) *listNode {
	r := n.right
	return lNew(r.value, lNew(n.value, n.left, r.left), r.right)
}

func lRebalance(n *listNode) *listNode {
	if n == nil {
		return nil
	}
	bf := lBalance(n)
	if bf > 1 {
		if lBalance(n.left) < 0 {
			n = lNew(n.value, lRotateLeft(n.left), n.right)
		}
		return lRotateRight(n)
	}
	if bf < -1 {
		if lBalance(n.right) > 0 {
			n = lNew(n.value, n.left, lRotateRight(n.right))
		}
		return lRotateLeft(n)
	}
	return n
}

// lInsertAt inserts value at position i (clamped to [0, size]).
func lInsertAt(n *listNode, i int, value any) *listNode {
	if n == nil {
		return lNew(value, nil, nil)
	}
	leftSize := lSize(n.left)
	if i <= leftSize {
		return lRebalance(lNew(n.value, lInsertAt(n.left, i, value), n.right))
	}
	return lRebalance(lNew(n.value, n.left, lInsertAt(n.right, i-leftSize-1, value)))
}

// lSetAt overwrites the value at position i; i must be in range.
func lSetAt(n *listNode, i int, value any) *listNode {
	leftSize := lSize(n.left)
	switch {
	case i < leftSize:
		return lNew(n.value, lSetAt(n.left, i, value), n.right)
	case i > leftSize:
		return lNew(n.value, n.left, lSetAt(n.right, i-leftSize-1, value))
	default:
		return lNew(value, n.left, n.right)
	}
}

// lRemoveAt removes the element at position i; absent index is a
// no-op handled by the caller bounds-checking before calling this.
func lRemoveAt(n *listNode, i int) *listNode {
	if n == nil {
		return nil
	}
	leftSize := lSize(n.left)
	switch {
	case i < leftSize:
		return lRebalance(lNew(n.value, lRemoveAt(n.left, i), n.right))
	case i > leftSize:
		return lRebalance(lNew(n.value, n.left, lRemoveAt(n.right, i-leftSize-1)))
	default:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		succ := lMin(n.right)
		newRight := lRemoveAt(n.right, 0)
		return lRebalance(lNew(succ.value, n.left, newRight))
	}
}

func lMin(n *listNode) *listNode {
	for n.left != nil {
		n = n.left
	}
	return n
}

func lGetAt(n *listNode, i int) (any, bool) {
	for n != nil {
		leftSize := lSize(n.left)
		switch {
		case i < leftSize:
			n = n.left
		case i > leftSize:
			n = n.right
			i -= leftSize + 1
		default:
			return n.value, true
		}
	}
	return nil, false
}

func lInOrder(n *listNode, visit func(any) bool) bool {
	if n == nil {
		return true
	}
	if !lInOrder(n.left, visit) {
		return false
	}
	if !visit(n.value) {
		return false
	}
	return lInOrder(n.right, visit)
}

// List is the persistent, AVL-balanced, positional collection from
// spec §4.4.1. The zero value is an empty list.
type List struct {
	root *listNode
}

// Count returns the number of elements.
func (l *List) Count() int { return lSize(l.root) }

func (l *List) normalizeIndex(i int) int {
	n := l.Count()
	if i < 0 {
		i += n
	}
	return i
}

// GetAt supports negative indices; out-of-range returns (nil, false).
func (l *List) GetAt(i int) (any, bool) {
	idx := l.normalizeIndex(i)
	if idx < 0 || idx >= l.Count() {
		return nil, false
	}
	return lGetAt(l.root, idx)
}

// SetAt overwrites the value at position i; if i equals Count it
// appends. Returns a new List.
func (l *List) SetAt(i int, v any) *List {
	idx := l.normalizeIndex(i)
	n := l.Count()
	if idx == n {
		return l.AppendLast(v)
	}
	if idx < 0 || idx > n {
		return l
	}
	return &List{root: lSetAt(l.root, idx, v)}
}

// InsertAt shifts elements right; i is clamped to [0, count].
func (l *List) InsertAt(i int, v any) *List {
	idx := l.normalizeIndex(i)
	n := l.Count()
	if idx < 0 {
		idx = 0
	}
	if idx > n {
		idx = n
	}
	return &List{root: lInsertAt(l.root, idx, v)}
}

// RemoveAt removes the element at position i; an absent index is a
// no-op.
func (l *List) RemoveAt(i int) *List {
	idx := l.normalizeIndex(i)
	if idx < 0 || idx >= l.Count() {
		return l
	}
	return &List{root: lRemoveAt(l.root, idx)}
}

// AppendFirst prepends v.
func (l *List) AppendFirst(v any) *List {
	return &List{root: lInsertAt(l.root, 0, v)}
}

// AppendLast appends v.
func (l *List) AppendLast(v any) *List {
	return &List{root: lInsertAt(l.root, l.Count(), v)}
}

// Extend concatenates other onto the end of l.
func (l *List) Extend(other *List) *List {
	result := l
	for _, v := range other.AsSlice() {
		result = result.AppendLast(v)
	}
	return result
}

// Head returns a prefix view of length n (negative n means "from the
// end", matching spec §4.4.1).
func (l *List) Head(n int) *List {
	count := l.Count()
	if n < 0 {
		n = count + n
	}
	if n < 0 {
		n = 0
	}
	if n > count {
		n = count
	}
	return l.Slice(0, n)
}

// Tail returns a suffix view of length n (negative n means "from the
// end").
func (l *List) Tail(n int) *List {
	count := l.Count()
	if n < 0 {
		n = count + n
	}
	if n < 0 {
		n = 0
	}
	if n > count {
		n = count
	}
	return l.Slice(count-n, count)
}

// Slice returns a bounded copy [from, to).
func (l *List) Slice(from, to int) *List {
	count := l.Count()
	if from < 0 {
		from = 0
	}
	if to > count {
		to = count
	}
	if from >= to {
		return &List{}
	}
	out := &List{}
	for i := from; i < to; i++ {
		v, _ := l.GetAt(i)
		out = out.AppendLast(v)
	}
	return out
}

// AsSlice materializes the list in order. Prefer AsIterable for large
// lists to avoid the allocation.
func (l *List) AsSlice() []any {
	out := make([]any, 0, l.Count())
	lInOrder(l.root, func(v any) bool {
		out = append(out, v)
		return true
	})
	return out
}

// AsIterable calls visit for every value in order, stopping early if
// visit returns false.
func (l *List) AsIterable(visit func(any) bool) {
	lInOrder(l.root, visit)
}
