package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphrules/pkg/binding"
	"github.com/orneryd/graphrules/pkg/graphcore"
)

func TestEvalLiteralAndVariable(t *testing.T) {
	ev := New()
	ctx := binding.New()
	ctx.Set("p", "alice")

	v, err := ev.Eval(graphcore.Lit(42), ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = ev.Eval(graphcore.Var("p"), ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
}

func TestEvalPropertyAccessUnboundVariable(t *testing.T) {
	ev := New()
	ctx := binding.New()

	_, err := ev.Eval(graphcore.Prop("n", "name"), ctx)
	require.Error(t, err)
	var unbound *graphcore.UnboundVariableError
	assert.ErrorAs(t, err, &unbound)
}

func TestEvalPropertyAccessOnScalarIsTypeError(t *testing.T) {
	ev := New()
	ctx := binding.New()
	ctx.Set("n", 42)

	_, err := ev.Eval(graphcore.Prop("n", "name"), ctx)
	require.Error(t, err)
	var typeErr *graphcore.TypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestEvalPropertyAccessOnNode(t *testing.T) {
	ev := New()
	ctx := binding.New()
	ctx.Set("n", &graphcore.Node{ID: "n1", Label: "Person", Properties: map[string]any{"name": "Alice"}})

	v, err := ev.Eval(graphcore.Prop("n", "name"), ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alice", v)

	v, err = ev.Eval(graphcore.Prop("n", "id"), ctx)
	require.NoError(t, err)
	assert.Equal(t, "n1", v)

	v, err = ev.Eval(graphcore.Prop("n", "missing"), ctx)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestThreeValuedAnd(t *testing.T) {
	ev := New()
	ctx := binding.New()

	cases := []struct {
		name     string
		expr     *graphcore.Expression
		expected any
	}{
		{"false and null is false", &graphcore.Expression{Kind: graphcore.ExprAnd, Left: graphcore.Lit(false), Right: graphcore.Lit(nil)}, false},
		{"true and null is null", &graphcore.Expression{Kind: graphcore.ExprAnd, Left: graphcore.Lit(true), Right: graphcore.Lit(nil)}, nil},
		{"true and true is true", &graphcore.Expression{Kind: graphcore.ExprAnd, Left: graphcore.Lit(true), Right: graphcore.Lit(true)}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := ev.Eval(c.expr, ctx)
			require.NoError(t, err)
			assert.Equal(t, c.expected, v)
		})
	}
}

func TestThreeValuedOr(t *testing.T) {
	ev := New()
	ctx := binding.New()

	v, err := ev.Eval(&graphcore.Expression{Kind: graphcore.ExprOr, Left: graphcore.Lit(true), Right: graphcore.Lit(nil)}, ctx)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = ev.Eval(&graphcore.Expression{Kind: graphcore.ExprOr, Left: graphcore.Lit(false), Right: graphcore.Lit(nil)}, ctx)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestComparisonWithNullYieldsNull(t *testing.T) {
	ev := New()
	ctx := binding.New()

	v, err := ev.Eval(&graphcore.Expression{Kind: graphcore.ExprBinary, Op: graphcore.OpEq, Left: graphcore.Lit(1), Right: graphcore.Lit(nil)}, ctx)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestNumericCoercionOptIn(t *testing.T) {
	ctx := binding.New()
	eq := &graphcore.Expression{Kind: graphcore.ExprBinary, Op: graphcore.OpEq, Left: graphcore.Lit("42"), Right: graphcore.Lit(42.0)}

	strict := New()
	v, err := strict.Eval(eq, ctx)
	require.NoError(t, err)
	assert.Equal(t, false, v, `"42" != 42 when coercion is disabled`)

	coercing := &Evaluator{NumericCoercion: true}
	v, err = coercing.Eval(eq, ctx)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestDivisionByZero(t *testing.T) {
	ev := New()
	ctx := binding.New()

	_, err := ev.Eval(&graphcore.Expression{Kind: graphcore.ExprBinary, Op: graphcore.OpDiv, Left: graphcore.Lit(1.0), Right: graphcore.Lit(0.0)}, ctx)
	require.Error(t, err)
	var numErr *graphcore.NumericError
	assert.ErrorAs(t, err, &numErr)
}

func TestInOperator(t *testing.T) {
	ev := New()
	ctx := binding.New()

	in := &graphcore.Expression{
		Kind: graphcore.ExprIn,
		Left: graphcore.Lit("active"),
		List: []*graphcore.Expression{graphcore.Lit("active"), graphcore.Lit("pending")},
	}
	v, err := ev.Eval(in, ctx)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	in.Left = graphcore.Lit("archived")
	v, err = ev.Eval(in, ctx)
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestTruthRejectsNullAndFalse(t *testing.T) {
	assert.False(t, Truth(nil))
	assert.False(t, Truth(false))
	assert.True(t, Truth(true))
}
