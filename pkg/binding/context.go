// Package binding implements the ordered name-to-value map the matcher,
// combiner, and executor pass between stages of one rule evaluation. A
// Context is short-lived: one per candidate match.
package binding

import "github.com/orneryd/graphrules/pkg/graphcore"

// entry preserves insertion order so two contexts built from the same
// sequence of sets/merges produce a deterministic iteration order, which
// pkg/ruleengine's undo-log and describe() output rely on for stable
// diagnostics.
type entry struct {
	name  string
	value any
}

// Context is a name -> value map of per-match variable bindings. Values are
// graphcore.Node, graphcore.Edge, graphcore.Path, or a scalar. Within one
// Context a name binds to exactly one value; Set on an existing name
// overwrites.
type Context struct {
	entries []entry
	index   map[string]int
}

// New returns an empty binding context.
func New() *Context {
	return &Context{index: make(map[string]int)}
}

// Has reports whether name is bound.
func (c *Context) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Get returns the bound value and true, or (nil, false) if name is not
// bound. It is the caller's responsibility to signal UnboundVariable; Get
// itself just reports absence.
func (c *Context) Get(name string) (any, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.entries[i].value, true
}

// MustGet is a convenience for callers that have already checked Has, or
// that want an UnboundVariableError instead of a bare ok=false.
func (c *Context) MustGet(name string) (any, error) {
	v, ok := c.Get(name)
	if !ok {
		return nil, &graphcore.UnboundVariableError{Variable: name}
	}
	return v, nil
}

// Set binds name to value, overwriting any prior binding.
func (c *Context) Set(name string, value any) {
	if i, ok := c.index[name]; ok {
		c.entries[i].value = value
		return
	}
	c.index[name] = len(c.entries)
	c.entries = append(c.entries, entry{name: name, value: value})
}

// Names returns the bound variable names in insertion order.
func (c *Context) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}
	return names
}

// Clone returns an independent copy: subsequent mutations to either the
// original or the clone never affect the other.
func (c *Context) Clone() *Context {
	clone := &Context{
		entries: make([]entry, len(c.entries)),
		index:   make(map[string]int, len(c.index)),
	}
	copy(clone.entries, c.entries)
	for k, v := range c.index {
		clone.index[k] = v
	}
	return clone
}

// Merge copies every entry of other into c, overwriting on conflict. Used by
// pkg/combiner to fold per-pattern binding sets into one unified context.
func (c *Context) Merge(other *Context) {
	for _, e := range other.entries {
		c.Set(e.name, e.value)
	}
}
