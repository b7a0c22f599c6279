package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndexedTable(n int) *memSource {
	categories := []string{"A", "B", "C"}
	statuses := []string{"active", "inactive"}
	records := make([]Record, n)
	for i := 0; i < n; i++ {
		records[i] = Record{
			ID: fmt.Sprintf("rec-%d", i),
			Fields: map[string]any{
				"category": categories[i%len(categories)],
				"status":   statuses[i%len(statuses)],
				"value":    i % 1000,
			},
		}
	}
	return newMemSource(records, map[string]string{
		"category": "idx_category",
		"status":   "idx_status",
		"value":    "idx_value",
	})
}

// TestOptimizeIndexedAndRangeMatchesLinearFilter mirrors spec §8's
// "indexed AND+range" scenario: category=A AND status=active AND
// value BETWEEN [100, 110) must return the same set an unindexed
// linear filter would, and the optimizer must choose an AndMerge
// with an IndexedRangeSearchPlan child rather than a full ListPlan.
func TestOptimizeIndexedAndRangeMatchesLinearFilter(t *testing.T) {
	source := buildIndexedTable(10000)

	predicate := And{Terms: []Expr{
		Cmp{Op: OpEq, Left: Field{Path: "category"}, Right: Const{Value: "A"}},
		Cmp{Op: OpEq, Left: Field{Path: "status"}, Right: Const{Value: "active"}},
		Cmp{Op: OpBetweenCO, Left: Field{Path: "value"}, Right: Const{Value: [2]any{100, 110}}},
	}}

	plan := Optimize(source, predicate)
	andMerge, ok := plan.(*AndMerge)
	require.True(t, ok, "optimizer must produce an AndMerge, got %T", plan)

	foundRange := false
	for _, c := range andMerge.Children {
		if _, ok := c.(*IndexedRangeSearchPlan); ok {
			foundRange = true
		}
	}
	assert.True(t, foundRange, "AndMerge must include an IndexedRangeSearchPlan child")

	optimizedStream, err := plan.Execute()
	require.NoError(t, err)
	optimizedResults, err := drain(optimizedStream)
	require.NoError(t, err)

	linear := &WherePlan{Predicate: predicate, Child: &ListPlan{Source: source}}
	linearStream, err := linear.Execute()
	require.NoError(t, err)
	linearResults, err := drain(linearStream)
	require.NoError(t, err)

	assert.ElementsMatch(t, idsOf(optimizedResults), idsOf(linearResults))
}

func TestOptimizeWithoutIndexFallsBackToListPlan(t *testing.T) {
	source := newMemSource(buildSampleRecords(5), nil)
	plan := Optimize(source, Cmp{Op: OpEq, Left: Field{Path: "category"}, Right: Const{Value: "A"}})
	where, ok := plan.(*WherePlan)
	require.True(t, ok)
	_, ok = where.Child.(*ListPlan)
	assert.True(t, ok)
}

func TestOptimizeOrOfIndexedTermsProducesOrMerge(t *testing.T) {
	source := buildIndexedTable(50)
	predicate := Or{Terms: []Expr{
		Cmp{Op: OpEq, Left: Field{Path: "category"}, Right: Const{Value: "A"}},
		Cmp{Op: OpEq, Left: Field{Path: "category"}, Right: Const{Value: "B"}},
	}}
	plan := Optimize(source, predicate)
	_, ok := plan.(*OrMerge)
	assert.True(t, ok)
}

func TestOptimizeNilPredicateIsListPlan(t *testing.T) {
	source := newMemSource(buildSampleRecords(3), nil)
	plan := Optimize(source, nil)
	_, ok := plan.(*ListPlan)
	assert.True(t, ok)
}

func TestExplainTreeShape(t *testing.T) {
	source := buildIndexedTable(20)
	predicate := Cmp{Op: OpEq, Left: Field{Path: "category"}, Right: Const{Value: "A"}}
	plan := Optimize(source, predicate)
	explain := plan.Explain()
	assert.Equal(t, "IndexedSearchPlan", explain.Name)
}
