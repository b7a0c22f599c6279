package query

import (
	"fmt"
	"sort"

	"github.com/cuemby/protobase/pkg/collection"
)

// ExplainNode is one node of a plan's explain tree.
type ExplainNode struct {
	Name     string
	Detail   string
	Children []*ExplainNode
}

// Plan is a physical query plan: an iterator factory plus a
// description of its own shape, per spec §4.6.
type Plan interface {
	Execute() (Stream, error)
	Explain() *ExplainNode
}

// ReferenceSetPlan is implemented by plans that can produce their
// matching record ids cheaply, without materializing full records —
// the property AndMerge/OrMerge need to intersect/union before
// touching storage.
type ReferenceSetPlan interface {
	Plan
	ReferenceSet() (*collection.Set, error)
}

// KeyCounter is implemented by ReferenceSetPlan children that are
// backed by a single named index, exposing that index's total key
// count as the secondary sort key AndMerge.Execute uses for spec
// §4.5 rule 4: when two index sets tie on cardinality, prefer the
// index with fewer total keys.
type KeyCounter interface {
	KeyCount() int
}

func leaf(name, detail string) *ExplainNode {
	return &ExplainNode{Name: name, Detail: detail}
}

// ListPlan scans every record of source in its defined order.
type ListPlan struct {
	Source Source
}

func (p *ListPlan) Execute() (Stream, error) {
	var out []Record
	p.Source.AsIterable(func(r Record) bool {
		out = append(out, r)
		return true
	})
	return newSliceStream(out), nil
}

func (p *ListPlan) Explain() *ExplainNode {
	return leaf("ListPlan", fmt.Sprintf("records=%d", p.Source.Len()))
}

// WherePlan applies a residual predicate over its child's output.
type WherePlan struct {
	Predicate Expr
	Child     Plan
}

func (p *WherePlan) Execute() (Stream, error) {
	childStream, err := p.Child.Execute()
	if err != nil {
		return nil, err
	}
	records, err := drain(childStream)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range records {
		ok, err := Eval(p.Predicate, r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return newSliceStream(out), nil
}

func (p *WherePlan) Explain() *ExplainNode {
	return &ExplainNode{Name: "WherePlan", Children: []*ExplainNode{p.Child.Explain()}}
}

// IndexedSearchPlan yields the reference set for an exact-key lookup
// on a named index, then materializes the matching records.
type IndexedSearchPlan struct {
	Source Source
	Index  string
	Key    any
}

func (p *IndexedSearchPlan) ReferenceSet() (*collection.Set, error) {
	reg := p.Source.Indexes()
	if reg == nil {
		return &collection.Set{}, nil
	}
	return reg.Get(p.Index, p.Key), nil
}

func (p *IndexedSearchPlan) Execute() (Stream, error) {
	set, err := p.ReferenceSet()
	if err != nil {
		return nil, err
	}
	return materialize(p.Source, set)
}

func (p *IndexedSearchPlan) Explain() *ExplainNode {
	return leaf("IndexedSearchPlan", fmt.Sprintf("index=%s key=%v", p.Index, p.Key))
}

// KeyCount reports the backing index's total distinct key count, for
// AndMerge's selectivity tie-break.
func (p *IndexedSearchPlan) KeyCount() int {
	reg := p.Source.Indexes()
	if reg == nil {
		return 0
	}
	return reg.KeyCount(p.Index)
}

// IndexedRangeSearchPlan yields every record whose indexed field key
// falls between Low and High (each bound enabled by HasLow/HasHigh and
// made inclusive or exclusive by LowInclusive/HighInclusive), via
// lower-bound descent then in-order walk.
type IndexedRangeSearchPlan struct {
	Source                      Source
	Index                       string
	Low, High                   any
	HasLow, HasHigh             bool
	LowInclusive, HighInclusive bool
}

func (p *IndexedRangeSearchPlan) ReferenceSet() (*collection.Set, error) {
	reg := p.Source.Indexes()
	if reg == nil {
		return &collection.Set{}, nil
	}
	result := &collection.Set{}
	reg.Range(p.Index, p.Low, p.High, p.HasLow, p.LowInclusive, p.HasHigh, p.HighInclusive, func(_ any, ids *collection.Set) bool {
		result = result.Union(ids)
		return true
	})
	return result, nil
}

func (p *IndexedRangeSearchPlan) Execute() (Stream, error) {
	set, err := p.ReferenceSet()
	if err != nil {
		return nil, err
	}
	return materialize(p.Source, set)
}

func (p *IndexedRangeSearchPlan) Explain() *ExplainNode {
	return leaf("IndexedRangeSearchPlan", fmt.Sprintf("index=%s low=%v high=%v", p.Index, p.Low, p.High))
}

// KeyCount reports the backing index's total distinct key count, for
// AndMerge's selectivity tie-break.
func (p *IndexedRangeSearchPlan) KeyCount() int {
	reg := p.Source.Indexes()
	if reg == nil {
		return 0
	}
	return reg.KeyCount(p.Index)
}

func materialize(source Source, set *collection.Set) (Stream, error) {
	var out []Record
	set.AsIterable(func(id any) bool {
		if r, ok := source.GetAt(id); ok {
			out = append(out, r)
		}
		return true
	})
	return newSliceStream(out), nil
}

// AndMerge intersects the reference sets of children that can produce
// them cheaply (smallest set first), materializes the intersection,
// then applies an optional residual predicate — spec §4.6 rule 2.
type AndMerge struct {
	Children []ReferenceSetPlan
	Source   Source
	Residual Expr
}

func (p *AndMerge) Execute() (Stream, error) {
	if len(p.Children) == 0 {
		return newSliceStream(nil), nil
	}
	type childSet struct {
		set      *collection.Set
		keyCount int
	}
	sets := make([]childSet, len(p.Children))
	for i, c := range p.Children {
		set, err := c.ReferenceSet()
		if err != nil {
			return nil, err
		}
		kc := 0
		if counter, ok := c.(KeyCounter); ok {
			kc = counter.KeyCount()
		}
		sets[i] = childSet{set: set, keyCount: kc}
	}
	sort.Slice(sets, func(i, j int) bool {
		if sets[i].set.Count() != sets[j].set.Count() {
			return sets[i].set.Count() < sets[j].set.Count()
		}
		return sets[i].keyCount < sets[j].keyCount
	})

	result := sets[0].set
	for _, s := range sets[1:] {
		result = result.Intersection(s.set)
	}

	stream, err := materialize(p.Source, result)
	if err != nil {
		return nil, err
	}
	if p.Residual == nil {
		return stream, nil
	}
	records, err := drain(stream)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range records {
		ok, err := Eval(p.Residual, r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return newSliceStream(out), nil
}

func (p *AndMerge) Explain() *ExplainNode {
	n := &ExplainNode{Name: "AndMerge"}
	if p.Residual != nil {
		n.Detail = "residual=yes"
	}
	for _, c := range p.Children {
		n.Children = append(n.Children, c.Explain())
	}
	return n
}

// OrMerge unions the reference sets of its children and deduplicates —
// spec §4.6 rule 3.
type OrMerge struct {
	Children []ReferenceSetPlan
	Source   Source
}

func (p *OrMerge) ReferenceSet() (*collection.Set, error) {
	result := &collection.Set{}
	for _, c := range p.Children {
		set, err := c.ReferenceSet()
		if err != nil {
			return nil, err
		}
		result = result.Union(set)
	}
	return result, nil
}

func (p *OrMerge) Execute() (Stream, error) {
	set, err := p.ReferenceSet()
	if err != nil {
		return nil, err
	}
	return materialize(p.Source, set)
}

func (p *OrMerge) Explain() *ExplainNode {
	n := &ExplainNode{Name: "OrMerge"}
	for _, c := range p.Children {
		n.Children = append(n.Children, c.Explain())
	}
	return n
}

// JoinKind selects the semantics of JoinPlan.
type JoinKind string

const (
	JoinInner JoinKind = "inner"
	JoinLeft  JoinKind = "left"
	JoinRight JoinKind = "right"
	JoinOuter JoinKind = "outer"
)

// JoinPlan is a nested-loop join over two child plans; Condition
// receives the left and right record and reports a match.
type JoinPlan struct {
	Left, Right Plan
	Condition   func(left, right Record) bool
	Kind        JoinKind
}

func (p *JoinPlan) Execute() (Stream, error) {
	leftStream, err := p.Left.Execute()
	if err != nil {
		return nil, err
	}
	leftRecords, err := drain(leftStream)
	if err != nil {
		return nil, err
	}
	rightStream, err := p.Right.Execute()
	if err != nil {
		return nil, err
	}
	rightRecords, err := drain(rightStream)
	if err != nil {
		return nil, err
	}

	var out []Record
	rightMatched := make([]bool, len(rightRecords))
	for _, l := range leftRecords {
		matched := false
		for ri, r := range rightRecords {
			if p.Condition(l, r) {
				matched = true
				rightMatched[ri] = true
				out = append(out, joinRecord(l, r))
			}
		}
		if !matched && (p.Kind == JoinLeft || p.Kind == JoinOuter) {
			out = append(out, joinRecord(l, Record{}))
		}
	}
	if p.Kind == JoinRight || p.Kind == JoinOuter {
		for ri, r := range rightRecords {
			if !rightMatched[ri] {
				out = append(out, joinRecord(Record{}, r))
			}
		}
	}
	return newSliceStream(out), nil
}

func joinRecord(l, r Record) Record {
	fields := make(map[string]any, len(l.Fields)+len(r.Fields))
	for k, v := range l.Fields {
		fields["left."+k] = v
	}
	for k, v := range r.Fields {
		fields["right."+k] = v
	}
	return Record{ID: [2]any{l.ID, r.ID}, Fields: fields}
}

func (p *JoinPlan) Explain() *ExplainNode {
	return &ExplainNode{
		Name:     "JoinPlan",
		Detail:   string(p.Kind),
		Children: []*ExplainNode{p.Left.Explain(), p.Right.Explain()},
	}
}

// AggregateFunc folds a group's records into a single value.
type AggregateFunc func(group []Record) any

// GroupByPlan groups the child's output by KeyFn and applies
// Aggregates, emitting one record per distinct key.
type GroupByPlan struct {
	KeyFn      func(Record) any
	Aggregates map[string]AggregateFunc
	Child      Plan
}

func (p *GroupByPlan) Execute() (Stream, error) {
	childStream, err := p.Child.Execute()
	if err != nil {
		return nil, err
	}
	records, err := drain(childStream)
	if err != nil {
		return nil, err
	}

	order := make([]any, 0)
	groups := make(map[any][]Record)
	for _, r := range records {
		k := p.KeyFn(r)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	var out []Record
	for _, k := range order {
		members := groups[k]
		fields := map[string]any{"key": k}
		for name, agg := range p.Aggregates {
			fields[name] = agg(members)
		}
		out = append(out, Record{ID: k, Fields: fields})
	}
	return newSliceStream(out), nil
}

func (p *GroupByPlan) Explain() *ExplainNode {
	return &ExplainNode{Name: "GroupByPlan", Children: []*ExplainNode{p.Child.Explain()}}
}

// OrderByPlan sorts the child's output by Keys in order, each
// direction controlled by the matching entry in Ascending.
type OrderByPlan struct {
	Keys      []string
	Ascending []bool
	Child     Plan
}

func (p *OrderByPlan) Execute() (Stream, error) {
	childStream, err := p.Child.Execute()
	if err != nil {
		return nil, err
	}
	records, err := drain(childStream)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		for idx, key := range p.Keys {
			asc := idx >= len(p.Ascending) || p.Ascending[idx]
			vi, _ := resolveField(records[i].Fields, key)
			vj, _ := resolveField(records[j].Fields, key)
			c := compareAny(vi, vj)
			if c == 0 {
				continue
			}
			if asc {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return newSliceStream(records), nil
}

func compareAny(a, b any) int {
	af, aIsNum := numericOf(a)
	bf, bIsNum := numericOf(b)
	if aIsNum && bIsNum {
		return cmpFloat(af, bf)
	}
	as := fmt.Sprintf("%v", a)
	bs := fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func (p *OrderByPlan) Explain() *ExplainNode {
	return &ExplainNode{Name: "OrderByPlan", Detail: fmt.Sprintf("keys=%v", p.Keys), Children: []*ExplainNode{p.Child.Explain()}}
}

// SelectPlan projects each record down to Projection's field names.
type SelectPlan struct {
	Projection []string
	Child      Plan
}

func (p *SelectPlan) Execute() (Stream, error) {
	childStream, err := p.Child.Execute()
	if err != nil {
		return nil, err
	}
	records, err := drain(childStream)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		fields := make(map[string]any, len(p.Projection))
		for _, name := range p.Projection {
			if v, ok := resolveField(r.Fields, name); ok {
				fields[name] = v
			}
		}
		out = append(out, Record{ID: r.ID, Fields: fields})
	}
	return newSliceStream(out), nil
}

func (p *SelectPlan) Explain() *ExplainNode {
	return &ExplainNode{Name: "SelectPlan", Detail: fmt.Sprintf("fields=%v", p.Projection), Children: []*ExplainNode{p.Child.Explain()}}
}

// LimitPlan caps the child's output at N records.
type LimitPlan struct {
	N     int
	Child Plan
}

func (p *LimitPlan) Execute() (Stream, error) {
	childStream, err := p.Child.Execute()
	if err != nil {
		return nil, err
	}
	records, err := drain(childStream)
	if err != nil {
		return nil, err
	}
	if p.N < len(records) {
		records = records[:p.N]
	}
	return newSliceStream(records), nil
}

func (p *LimitPlan) Explain() *ExplainNode {
	return &ExplainNode{Name: "LimitPlan", Detail: fmt.Sprintf("n=%d", p.N), Children: []*ExplainNode{p.Child.Explain()}}
}

// OffsetPlan skips the first N records of the child's output.
type OffsetPlan struct {
	N     int
	Child Plan
}

func (p *OffsetPlan) Execute() (Stream, error) {
	childStream, err := p.Child.Execute()
	if err != nil {
		return nil, err
	}
	records, err := drain(childStream)
	if err != nil {
		return nil, err
	}
	if p.N >= len(records) {
		return newSliceStream(nil), nil
	}
	return newSliceStream(records[p.N:]), nil
}

func (p *OffsetPlan) Explain() *ExplainNode {
	return &ExplainNode{Name: "OffsetPlan", Detail: fmt.Sprintf("n=%d", p.N), Children: []*ExplainNode{p.Child.Explain()}}
}
