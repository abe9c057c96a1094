package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextSetGet(t *testing.T) {
	ctx := New()
	assert.False(t, ctx.Has("p"))

	ctx.Set("p", "alice")
	assert.True(t, ctx.Has("p"))

	v, ok := ctx.Get("p")
	require.True(t, ok)
	assert.Equal(t, "alice", v)

	ctx.Set("p", "bob")
	v, _ = ctx.Get("p")
	assert.Equal(t, "bob", v, "Set on an existing name must overwrite")
}

func TestContextGetMissing(t *testing.T) {
	ctx := New()
	_, ok := ctx.Get("missing")
	assert.False(t, ok)

	_, err := ctx.MustGet("missing")
	require.Error(t, err)
}

func TestContextCloneIsIndependent(t *testing.T) {
	ctx := New()
	ctx.Set("p", "alice")

	clone := ctx.Clone()
	clone.Set("p", "bob")
	clone.Set("q", "new")

	v, _ := ctx.Get("p")
	assert.Equal(t, "alice", v, "mutating the clone must not affect the original")
	assert.False(t, ctx.Has("q"))
}

func TestContextMergeOverwritesOnConflict(t *testing.T) {
	a := New()
	a.Set("p", "alice")
	a.Set("shared", 1)

	b := New()
	b.Set("t", "task1")
	b.Set("shared", 2)

	a.Merge(b)

	pv, _ := a.Get("p")
	tv, _ := a.Get("t")
	sv, _ := a.Get("shared")
	assert.Equal(t, "alice", pv)
	assert.Equal(t, "task1", tv)
	assert.Equal(t, 2, sv, "merge overwrites on conflict")
}

func TestContextNamesPreservesInsertionOrder(t *testing.T) {
	ctx := New()
	ctx.Set("b", 1)
	ctx.Set("a", 2)
	ctx.Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, ctx.Names())
}
