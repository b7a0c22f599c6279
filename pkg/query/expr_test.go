package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(fields map[string]any) Record {
	return Record{ID: fields["id"], Fields: fields}
}

func TestEvalFieldComparisons(t *testing.T) {
	r := rec(map[string]any{"category": "A", "value": 42})

	ok, err := Eval(Cmp{Op: OpEq, Left: Field{Path: "category"}, Right: Const{Value: "A"}}, r)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eval(Cmp{Op: OpGt, Left: Field{Path: "value"}, Right: Const{Value: 10}}, r)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalUnresolvableFieldErrors(t *testing.T) {
	r := rec(map[string]any{"a": 1})
	_, err := Eval(Cmp{Op: OpEq, Left: Field{Path: "missing"}, Right: Const{Value: 1}}, r)
	require.Error(t, err)
}

func TestEvalAndOrNot(t *testing.T) {
	r := rec(map[string]any{"a": 1, "b": 2})
	expr := And{Terms: []Expr{
		Cmp{Op: OpEq, Left: Field{Path: "a"}, Right: Const{Value: 1}},
		Or{Terms: []Expr{
			Cmp{Op: OpEq, Left: Field{Path: "b"}, Right: Const{Value: 99}},
			Not{Term: Cmp{Op: OpEq, Left: Field{Path: "b"}, Right: Const{Value: 3}}},
		}},
	}}
	ok, err := Eval(expr, r)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalBetween(t *testing.T) {
	r := rec(map[string]any{"v": 105})
	ok, err := Eval(Cmp{Op: OpBetweenCC, Left: Field{Path: "v"}, Right: Const{Value: [2]any{100, 110}}}, r)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eval(Cmp{Op: OpBetweenOO, Left: Field{Path: "v"}, Right: Const{Value: [2]any{105, 110}}}, r)
	require.NoError(t, err)
	assert.False(t, ok, "open-open excludes the low boundary")
}

func TestEvalInAndContains(t *testing.T) {
	r := rec(map[string]any{"category": "B", "tags": []any{"x", "y"}})

	ok, err := Eval(Cmp{Op: OpIn, Left: Field{Path: "category"}, Right: Const{Value: []any{"A", "B", "C"}}}, r)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Eval(Cmp{Op: OpContains, Left: Field{Path: "tags"}, Right: Const{Value: "y"}}, r)
	require.NoError(t, err)
	assert.True(t, ok)
}
