package query

import (
	"fmt"
	"strings"

	"github.com/cuemby/protobase/pkg/types"
)

// CmpOp is a comparison operator usable inside Cmp, per spec §4.6.
type CmpOp string

const (
	OpEq        CmpOp = "=="
	OpNe        CmpOp = "!="
	OpLt        CmpOp = "<"
	OpLe        CmpOp = "<="
	OpGt        CmpOp = ">"
	OpGe        CmpOp = ">="
	OpIn        CmpOp = "in"
	OpContains  CmpOp = "contains"
	OpBetweenCC CmpOp = "between_cc" // [low, high] closed-closed
	OpBetweenCO CmpOp = "between_co" // [low, high) closed-open
	OpBetweenOC CmpOp = "between_oc" // (low, high] open-closed
	OpBetweenOO CmpOp = "between_oo" // (low, high) open-open
	OpNear      CmpOp = "near"
)

// Expr is a node in the logical expression AST.
type Expr interface {
	isExpr()
}

// Field references a dotted field path, e.g. "address.city".
type Field struct{ Path string }

// Const is a literal value.
type Const struct{ Value any }

// Cmp compares Left against Right with Op. For Between*, Right must be
// a [2]any{low, high} pair; for In, Right must be a []any of
// candidates; for Near, Right carries {value, tolerance} as [2]any.
type Cmp struct {
	Op    CmpOp
	Left  Expr
	Right Expr
}

// And is a conjunction of terms (empty And is trivially true).
type And struct{ Terms []Expr }

// Or is a disjunction of terms (empty Or is trivially false).
type Or struct{ Terms []Expr }

// Not negates a single term.
type Not struct{ Term Expr }

func (Field) isExpr() {}
func (Const) isExpr() {}
func (Cmp) isExpr()   {}
func (And) isExpr()   {}
func (Or) isExpr()    {}
func (Not) isExpr()   {}

// resolveField looks up a dotted path inside a record's fields,
// descending through nested map[string]any values.
func resolveField(fields map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = fields
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Eval evaluates e against record, returning ExprError-wrapped errors
// for unresolvable fields or type mismatches, per spec §4.6's failure
// semantics.
func Eval(e Expr, record Record) (bool, error) {
	v, err := evalValue(e, record)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expression did not evaluate to a boolean", types.ErrExpression)
	}
	return b, nil
}

func evalValue(e Expr, record Record) (any, error) {
	switch x := e.(type) {
	case Field:
		v, ok := resolveField(record.Fields, x.Path)
		if !ok {
			return nil, fmt.Errorf("%w: unresolvable field %q", types.ErrExpression, x.Path)
		}
		return v, nil
	case Const:
		return x.Value, nil
	case Cmp:
		return evalCmp(x, record)
	case And:
		for _, t := range x.Terms {
			ok, err := Eval(t, record)
			if err != nil {
				return nil, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case Or:
		for _, t := range x.Terms {
			ok, err := Eval(t, record)
			if err != nil {
				return nil, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case Not:
		ok, err := Eval(x.Term, record)
		if err != nil {
			return nil, err
		}
		return !ok, nil
	default:
		return nil, fmt.Errorf("%w: unknown expression node %T", types.ErrExpression, e)
	}
}

func evalCmp(c Cmp, record Record) (bool, error) {
	left, err := evalValue(c.Left, record)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case OpEq:
		right, err := evalValue(c.Right, record)
		if err != nil {
			return false, err
		}
		return compareEqual(left, right), nil
	case OpNe:
		right, err := evalValue(c.Right, record)
		if err != nil {
			return false, err
		}
		return !compareEqual(left, right), nil
	case OpLt, OpLe, OpGt, OpGe:
		right, err := evalValue(c.Right, record)
		if err != nil {
			return false, err
		}
		return compareOrdered(c.Op, left, right)
	case OpIn:
		candidates, ok := valueOf(c.Right).([]any)
		if !ok {
			return false, fmt.Errorf("%w: 'in' requires a list of candidates", types.ErrExpression)
		}
		for _, cand := range candidates {
			if compareEqual(left, cand) {
				return true, nil
			}
		}
		return false, nil
	case OpContains:
		right, err := evalValue(c.Right, record)
		if err != nil {
			return false, err
		}
		items, ok := left.([]any)
		if !ok {
			return false, fmt.Errorf("%w: 'contains' requires a list-valued field", types.ErrExpression)
		}
		for _, item := range items {
			if compareEqual(item, right) {
				return true, nil
			}
		}
		return false, nil
	case OpBetweenCC, OpBetweenCO, OpBetweenOC, OpBetweenOO:
		bounds, ok := valueOf(c.Right).([2]any)
		if !ok {
			return false, fmt.Errorf("%w: 'between' requires a [low, high] pair", types.ErrExpression)
		}
		return evalBetween(c.Op, left, bounds[0], bounds[1])
	case OpNear:
		return false, fmt.Errorf("%w: 'near' requires a vector index, not supported by this engine", types.ErrExpression)
	default:
		return false, fmt.Errorf("%w: unknown comparison operator %q", types.ErrExpression, c.Op)
	}
}

func valueOf(e Expr) any {
	if c, ok := e.(Const); ok {
		return c.Value
	}
	return nil
}

func evalBetween(op CmpOp, v, low, high any) (bool, error) {
	lowOK, err := compareOrdered(OpGe, v, low)
	if err != nil {
		return false, err
	}
	if op == OpBetweenOC || op == OpBetweenOO {
		lowOK, err = compareOrdered(OpGt, v, low)
		if err != nil {
			return false, err
		}
	}
	highOK, err := compareOrdered(OpLe, v, high)
	if err != nil {
		return false, err
	}
	if op == OpBetweenCO || op == OpBetweenOO {
		highOK, err = compareOrdered(OpLt, v, high)
		if err != nil {
			return false, err
		}
	}
	return lowOK && highOK, nil
}

func compareEqual(a, b any) bool {
	af, aIsNum := numericOf(a)
	bf, bIsNum := numericOf(b)
	if aIsNum && bIsNum {
		return af == bf
	}
	return a == b
}

func compareOrdered(op CmpOp, a, b any) (bool, error) {
	af, aIsNum := numericOf(a)
	bf, bIsNum := numericOf(b)
	if aIsNum && bIsNum {
		return applyOrdered(op, cmpFloat(af, bf)), nil
	}
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return applyOrdered(op, strings.Compare(as, bs)), nil
	}
	return false, fmt.Errorf("%w: cannot order-compare %T and %T", types.ErrExpression, a, b)
}

func applyOrdered(op CmpOp, c int) bool {
	switch op {
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	default:
		return false
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func numericOf(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
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
