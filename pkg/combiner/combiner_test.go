package combiner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphrules/pkg/binding"
)

func ctxWith(kv ...any) *binding.Context {
	c := binding.New()
	for i := 0; i+1 < len(kv); i += 2 {
		c.Set(kv[i].(string), kv[i+1])
	}
	return c
}

func TestCombineNoPatternsYieldsOneEmptyContext(t *testing.T) {
	out := Combine(nil)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Names())
}

func TestCombineSinglePatternPassesThrough(t *testing.T) {
	set := []*binding.Context{ctxWith("p", "alice"), ctxWith("p", "bob")}
	out := Combine([][]*binding.Context{set})
	require.Len(t, out, 2)
	v, _ := out[0].Get("p")
	assert.Equal(t, "alice", v)
}

func TestCombineCartesianProductCount(t *testing.T) {
	a := []*binding.Context{ctxWith("p", 1), ctxWith("p", 2), ctxWith("p", 3)}
	b := []*binding.Context{ctxWith("q", "x"), ctxWith("q", "y")}
	out := Combine([][]*binding.Context{a, b})
	assert.Len(t, out, len(a)*len(b))
}

func TestCombineAnyEmptySetYieldsEmptyResult(t *testing.T) {
	a := []*binding.Context{ctxWith("p", 1)}
	b := []*binding.Context{}
	out := Combine([][]*binding.Context{a, b})
	assert.Empty(t, out)
}

func TestCombineDoesNotDeduplicate(t *testing.T) {
	a := []*binding.Context{ctxWith("p", 1), ctxWith("p", 1)}
	out := Combine([][]*binding.Context{a})
	assert.Len(t, out, 2)
}

func TestCombineMergesDistinctVariables(t *testing.T) {
	a := []*binding.Context{ctxWith("p", "alice")}
	b := []*binding.Context{ctxWith("q", "bob")}
	out := Combine([][]*binding.Context{a, b})
	require.Len(t, out, 1)
	p, _ := out[0].Get("p")
	q, _ := out[0].Get("q")
	assert.Equal(t, "alice", p)
	assert.Equal(t, "bob", q)
}
