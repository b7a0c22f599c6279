package query

// Optimize builds a physical plan for predicate over source, applying
// spec §4.6's bottom-up rewrite rules: indexed equality/IN/CONTAINS/
// range terms become IndexedSearchPlan/IndexedRangeSearchPlan nodes,
// conjunctions of indexed terms become an ascending-cardinality
// AndMerge, disjunctions become OrMerge, and anything left over stays
// a residual WherePlan. A nil predicate is a plain ListPlan.
func Optimize(source Source, predicate Expr) Plan {
	if predicate == nil {
		return &ListPlan{Source: source}
	}
	if plan, ok := planFor(source, predicate); ok {
		return plan
	}
	return &WherePlan{Predicate: predicate, Child: &ListPlan{Source: source}}
}

// planFor attempts to build an indexed (or partially indexed) plan for
// expr. ok is false when no part of expr could be served by an index,
// leaving the caller to fall back to a residual scan.
func planFor(source Source, expr Expr) (Plan, bool) {
	switch x := expr.(type) {
	case And:
		return planAnd(source, x.Terms)
	case Or:
		return planOr(source, x.Terms)
	default:
		if leafPlan, ok := indexedLeaf(source, expr); ok {
			return leafPlan, true
		}
		return nil, false
	}
}

// planAnd implements rule 2: build reference sets for every indexed
// conjunct, merge them with AndMerge (ascending-cardinality ordering
// happens inside AndMerge.Execute), and apply whatever remains as a
// residual predicate over the merge's output.
func planAnd(source Source, terms []Expr) (Plan, bool) {
	var indexed []ReferenceSetPlan
	var residual []Expr
	for _, t := range terms {
		if leafPlan, ok := indexedLeaf(source, t); ok {
			indexed = append(indexed, leafPlan)
		} else {
			residual = append(residual, t)
		}
	}
	if len(indexed) == 0 {
		return nil, false
	}
	merge := &AndMerge{Children: indexed, Source: source}
	if len(residual) == 1 {
		merge.Residual = residual[0]
	} else if len(residual) > 1 {
		merge.Residual = And{Terms: residual}
	}
	return merge, true
}

// planOr implements rule 3: every disjunct must be indexable, or the
// whole disjunction falls back to a residual scan (a partial OR
// rewrite would silently drop records matched only by the unindexed
// branch).
func planOr(source Source, terms []Expr) (Plan, bool) {
	children := make([]ReferenceSetPlan, 0, len(terms))
	for _, t := range terms {
		leafPlan, ok := indexedLeaf(source, t)
		if !ok {
			return nil, false
		}
		children = append(children, leafPlan)
	}
	return &OrMerge{Children: children, Source: source}, true
}

// indexedLeaf rewrites a single comparison term into an indexed plan
// when its field has a covering index, per rule 1.
func indexedLeaf(source Source, expr Expr) (ReferenceSetPlan, bool) {
	cmp, ok := expr.(Cmp)
	if !ok {
		return nil, false
	}
	field, ok := cmp.Left.(Field)
	if !ok {
		return nil, false
	}
	indexName, ok := source.FieldIndex(field.Path)
	if !ok {
		return nil, false
	}

	switch cmp.Op {
	case OpEq:
		c, ok := cmp.Right.(Const)
		if !ok {
			return nil, false
		}
		return &IndexedSearchPlan{Source: source, Index: indexName, Key: c.Value}, true
	case OpIn:
		c, ok := cmp.Right.(Const)
		if !ok {
			return nil, false
		}
		values, ok := c.Value.([]any)
		if !ok {
			return nil, false
		}
		children := make([]ReferenceSetPlan, 0, len(values))
		for _, v := range values {
			children = append(children, &IndexedSearchPlan{Source: source, Index: indexName, Key: v})
		}
		return &OrMerge{Children: children, Source: source}, true
	case OpContains:
		c, ok := cmp.Right.(Const)
		if !ok {
			return nil, false
		}
		return &IndexedSearchPlan{Source: source, Index: indexName, Key: c.Value}, true
	case OpLt, OpLe, OpGt, OpGe:
		bound, ok := cmp.Right.(Const)
		if !ok {
			return nil, false
		}
		return rangeFromInequality(source, indexName, cmp.Op, bound.Value), true
	case OpBetweenCC, OpBetweenCO, OpBetweenOC, OpBetweenOO:
		c, ok := cmp.Right.(Const)
		if !ok {
			return nil, false
		}
		bounds, ok := c.Value.([2]any)
		if !ok {
			return nil, false
		}
		return rangeFromBetween(source, indexName, cmp.Op, bounds[0], bounds[1]), true
	default:
		return nil, false
	}
}

func rangeFromInequality(source Source, indexName string, op CmpOp, bound any) *IndexedRangeSearchPlan {
	switch op {
	case OpGe:
		return &IndexedRangeSearchPlan{Source: source, Index: indexName, Low: bound, HasLow: true, LowInclusive: true}
	case OpGt:
		return &IndexedRangeSearchPlan{Source: source, Index: indexName, Low: bound, HasLow: true, LowInclusive: false}
	case OpLt:
		return &IndexedRangeSearchPlan{Source: source, Index: indexName, High: bound, HasHigh: true, HighInclusive: false}
	case OpLe:
		return &IndexedRangeSearchPlan{Source: source, Index: indexName, High: bound, HasHigh: true, HighInclusive: true}
	default:
		return &IndexedRangeSearchPlan{Source: source, Index: indexName}
	}
}

func rangeFromBetween(source Source, indexName string, op CmpOp, low, high any) *IndexedRangeSearchPlan {
	lowInclusive := op == OpBetweenCC || op == OpBetweenCO
	highInclusive := op == OpBetweenCC || op == OpBetweenOC
	return &IndexedRangeSearchPlan{
		Source: source, Index: indexName,
		Low: low, High: high,
		HasLow: true, HasHigh: true,
		LowInclusive: lowInclusive, HighInclusive: highInclusive,
	}
}
