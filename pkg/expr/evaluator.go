// Package expr reduces a WHERE/value expression tree to a value under a
// binding context and graph. Values are represented as Go values: nil
// stands for Cypher's NULL, bool/float64/string/[]any for the corresponding
// scalar and list kinds, and *graphcore.Node/*graphcore.Edge for
// entity-valued property/variable lookups.
package expr

import (
	"strconv"

	"github.com/orneryd/graphrules/pkg/binding"
	"github.com/orneryd/graphrules/pkg/graphcore"
)

// Evaluator reduces an Expression tree to a value. NumericCoercion controls
// whether "42" and 42 compare equal; it is opt-in via configuration.
type Evaluator struct {
	NumericCoercion bool
}

// New returns an Evaluator with numeric coercion disabled by default.
func New() *Evaluator {
	return &Evaluator{}
}

// Eval reduces expr to a value under ctx. Property access on an unbound
// variable returns UnboundVariableError; on a bound non-entity value returns
// TypeError.
func (ev *Evaluator) Eval(e *graphcore.Expression, ctx *binding.Context) (any, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Kind {
	case graphcore.ExprLiteral:
		return e.Literal, nil

	case graphcore.ExprVariable:
		v, err := ctx.MustGet(e.Variable)
		if err != nil {
			return nil, err
		}
		return v, nil

	case graphcore.ExprProperty:
		return ev.evalProperty(e, ctx)

	case graphcore.ExprNot:
		operand, err := ev.Eval(e.Operand, ctx)
		if err != nil {
			return nil, err
		}
		b, isNull := asBool(operand)
		if isNull {
			return nil, nil
		}
		return !b, nil

	case graphcore.ExprAnd:
		return ev.evalAnd(e, ctx)

	case graphcore.ExprOr:
		return ev.evalOr(e, ctx)

	case graphcore.ExprIsNull:
		v, err := ev.Eval(e.Operand, ctx)
		if err != nil {
			return nil, err
		}
		return v == nil, nil

	case graphcore.ExprIsNotNull:
		v, err := ev.Eval(e.Operand, ctx)
		if err != nil {
			return nil, err
		}
		return v != nil, nil

	case graphcore.ExprIn:
		return ev.evalIn(e, ctx)

	case graphcore.ExprBinary:
		return ev.evalBinary(e, ctx)
	}

	return nil, &graphcore.TypeError{Op: "eval", Reason: "unknown expression kind"}
}

func (ev *Evaluator) evalProperty(e *graphcore.Expression, ctx *binding.Context) (any, error) {
	v, err := ctx.MustGet(e.Target)
	if err != nil {
		return nil, err
	}

	switch entity := v.(type) {
	case *graphcore.Node:
		if e.Property == "id" {
			return string(entity.ID), nil
		}
		val, ok := entity.Properties[e.Property]
		if !ok {
			return nil, nil
		}
		return val, nil
	case *graphcore.Edge:
		val, ok := entity.Properties[e.Property]
		if !ok {
			return nil, nil
		}
		return val, nil
	default:
		return nil, &graphcore.TypeError{
			Op:     "property access",
			Reason: "variable " + e.Target + " is not bound to a node or relationship",
		}
	}
}

// evalAnd implements SQL-style three-valued AND: false dominates, otherwise
// null dominates, otherwise true.
func (ev *Evaluator) evalAnd(e *graphcore.Expression, ctx *binding.Context) (any, error) {
	l, err := ev.Eval(e.Left, ctx)
	if err != nil {
		return nil, err
	}
	lb, lNull := asBool(l)
	if !lNull && !lb {
		return false, nil
	}

	r, err := ev.Eval(e.Right, ctx)
	if err != nil {
		return nil, err
	}
	rb, rNull := asBool(r)
	if !rNull && !rb {
		return false, nil
	}

	if lNull || rNull {
		return nil, nil
	}
	return lb && rb, nil
}

// evalOr implements SQL-style three-valued OR: true dominates, otherwise
// null dominates, otherwise false.
func (ev *Evaluator) evalOr(e *graphcore.Expression, ctx *binding.Context) (any, error) {
	l, err := ev.Eval(e.Left, ctx)
	if err != nil {
		return nil, err
	}
	lb, lNull := asBool(l)
	if !lNull && lb {
		return true, nil
	}

	r, err := ev.Eval(e.Right, ctx)
	if err != nil {
		return nil, err
	}
	rb, rNull := asBool(r)
	if !rNull && rb {
		return true, nil
	}

	if lNull || rNull {
		return nil, nil
	}
	return lb || rb, nil
}

func (ev *Evaluator) evalIn(e *graphcore.Expression, ctx *binding.Context) (any, error) {
	l, err := ev.Eval(e.Left, ctx)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, nil
	}
	sawNull := false
	for _, item := range e.List {
		v, err := ev.Eval(item, ctx)
		if err != nil {
			return nil, err
		}
		if v == nil {
			sawNull = true
			continue
		}
		if ev.equal(l, v) {
			return true, nil
		}
	}
	if sawNull {
		return nil, nil
	}
	return false, nil
}

func (ev *Evaluator) evalBinary(e *graphcore.Expression, ctx *binding.Context) (any, error) {
	l, err := ev.Eval(e.Left, ctx)
	if err != nil {
		return nil, err
	}
	r, err := ev.Eval(e.Right, ctx)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case graphcore.OpEq:
		if l == nil || r == nil {
			return nil, nil
		}
		return ev.equal(l, r), nil
	case graphcore.OpNeq:
		if l == nil || r == nil {
			return nil, nil
		}
		return !ev.equal(l, r), nil
	case graphcore.OpLt, graphcore.OpLte, graphcore.OpGt, graphcore.OpGte:
		return ev.compareOrdered(e.Op, l, r)
	case graphcore.OpAdd, graphcore.OpSub, graphcore.OpMul, graphcore.OpDiv, graphcore.OpMod:
		return ev.arithmetic(e.Op, l, r)
	}
	return nil, &graphcore.TypeError{Op: "binary", Reason: "unknown operator"}
}

func (ev *Evaluator) compareOrdered(op graphcore.BinaryOp, l, r any) (any, error) {
	if l == nil || r == nil {
		return nil, nil
	}

	if lf, rf, ok := ev.bothNumeric(l, r); ok {
		return compareNumbers(op, lf, rf), nil
	}
	if ls, ok := l.(string); ok {
		if rs, ok := r.(string); ok {
			return compareStrings(op, ls, rs), nil
		}
	}
	return nil, &graphcore.TypeError{Op: "comparison", Reason: "incomparable operand types"}
}

func compareNumbers(op graphcore.BinaryOp, l, r float64) bool {
	switch op {
	case graphcore.OpLt:
		return l < r
	case graphcore.OpLte:
		return l <= r
	case graphcore.OpGt:
		return l > r
	case graphcore.OpGte:
		return l >= r
	}
	return false
}

func compareStrings(op graphcore.BinaryOp, l, r string) bool {
	switch op {
	case graphcore.OpLt:
		return l < r
	case graphcore.OpLte:
		return l <= r
	case graphcore.OpGt:
		return l > r
	case graphcore.OpGte:
		return l >= r
	}
	return false
}

func (ev *Evaluator) arithmetic(op graphcore.BinaryOp, l, r any) (any, error) {
	lf, rf, ok := ev.bothNumeric(l, r)
	if !ok {
		return nil, &graphcore.TypeError{Op: "arithmetic", Reason: "non-numeric operand"}
	}
	switch op {
	case graphcore.OpAdd:
		return lf + rf, nil
	case graphcore.OpSub:
		return lf - rf, nil
	case graphcore.OpMul:
		return lf * rf, nil
	case graphcore.OpDiv:
		if rf == 0 {
			return nil, &graphcore.NumericError{Op: "/", Reason: "division by zero"}
		}
		return lf / rf, nil
	case graphcore.OpMod:
		if rf == 0 {
			return nil, &graphcore.NumericError{Op: "%", Reason: "modulo by zero"}
		}
		return float64(int64(lf) % int64(rf)), nil
	}
	return nil, &graphcore.TypeError{Op: "arithmetic", Reason: "unknown operator"}
}

// equal implements structural equality with optional numeric coercion: when
// disabled, "42" != 42.
func (ev *Evaluator) equal(l, r any) bool {
	if lf, rf, ok := ev.bothNumeric(l, r); ok {
		return lf == rf
	}
	return l == r
}

// bothNumeric reports whether l and r can both be treated as numbers, either
// because they already are, or because NumericCoercion is enabled and a
// string parses cleanly.
func (ev *Evaluator) bothNumeric(l, r any) (float64, float64, bool) {
	lf, lok := ev.toNumber(l)
	rf, rok := ev.toNumber(r)
	return lf, rf, lok && rok
}

func (ev *Evaluator) toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if !ev.NumericCoercion {
			return 0, false
		}
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// asBool coerces a value to a (bool, isNull) pair for three-valued logic.
// Any non-bool, non-nil value is treated as a type mismatch collapsed to
// null, since the caller (WHERE filtering) only ever needs true/false/null.
func asBool(v any) (value bool, isNull bool) {
	if v == nil {
		return false, true
	}
	b, ok := v.(bool)
	if !ok {
		return false, true
	}
	return b, false
}

// Equal implements the same structural-equality-with-optional-coercion rule
// as (*Evaluator).equal, exported for pkg/matcher's property-constraint
// checks so both components share one definition of "equal."
func Equal(coerce bool, l, r any) bool {
	ev := &Evaluator{NumericCoercion: coerce}
	return ev.equal(l, r)
}

// Truth reduces a WHERE expression's result to the admit/reject decision: a
// binding is admitted iff the expression evaluates to true; null or false
// reject it.
func Truth(v any) bool {
	b, isNull := asBool(v)
	return !isNull && b
}
