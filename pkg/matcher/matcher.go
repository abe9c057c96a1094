// Package matcher enumerates nodes, relationships, and paths satisfying a
// graph pattern, the hardest subsystem in the engine. It honors pre-bound
// variables via enrichPatternWithBindings and guards traversal with
// configurable depth/result caps.
package matcher

import (
	"strings"
	"sync"

	"github.com/orneryd/graphrules/pkg/binding"
	"github.com/orneryd/graphrules/pkg/expr"
	"github.com/orneryd/graphrules/pkg/graphcore"
	"github.com/orneryd/graphrules/pkg/graphstore"
)

// Config tunes matcher behavior. Zero value is valid and resolves to
// DefaultConfig's values.
type Config struct {
	// CaseInsensitiveLabels controls label and type comparison. Defaults to
	// true: case-insensitive unless configured otherwise.
	CaseInsensitiveLabels bool
	// NumericCoercion controls property-constraint equality the same way it
	// controls WHERE-clause equality.
	NumericCoercion bool
	// MaxPathDepth caps total edges traversed per path. Defaults to 10.
	MaxPathDepth int
	// MaxPathResults caps the number of paths findMatchingPaths returns.
	// Defaults to 1000.
	MaxPathResults int
}

func (c Config) resolved() Config {
	out := c
	if out.MaxPathDepth == 0 {
		out.MaxPathDepth = 10
	}
	if out.MaxPathResults == 0 {
		out.MaxPathResults = 1000
	}
	return out
}

// DefaultConfig returns the conservative defaults: case-insensitive
// labels, strict numeric equality, depth 10, result cap 1000.
func DefaultConfig() Config {
	return Config{CaseInsensitiveLabels: true, MaxPathDepth: 10, MaxPathResults: 1000}
}

// Matcher runs pattern queries against a Graph, maintaining lazily built
// label/type caches that are invalidated in bulk — not patched incrementally
// — on every graph mutation.
type Matcher struct {
	graph  *graphstore.Graph
	config Config

	mu         sync.Mutex
	cacheEpoch uint64
	labelCache map[string][]graphcore.NodeID
	typeCache  map[string][]*graphcore.Edge
	built      bool
}

// New returns a Matcher over graph using cfg (zero value resolves to
// DefaultConfig's values).
func New(graph *graphstore.Graph, cfg Config) *Matcher {
	return &Matcher{graph: graph, config: cfg.resolved()}
}

// ClearCache discards the label/type caches. The next query rebuilds them
// lazily. Exposed so callers can force a rebuild and confirm a repeated
// query yields the same result set as before clearing.
func (m *Matcher) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.built = false
	m.labelCache = nil
	m.typeCache = nil
}

func (m *Matcher) ensureCache() {
	m.mu.Lock()
	defer m.mu.Unlock()

	epoch := m.graph.Epoch()
	if m.built && epoch == m.cacheEpoch {
		return
	}

	m.labelCache = make(map[string][]graphcore.NodeID)
	m.typeCache = make(map[string][]*graphcore.Edge)
	for _, n := range m.graph.GetAllNodes() {
		for _, label := range n.Labels() {
			key := m.normalizeLabel(label)
			m.labelCache[key] = append(m.labelCache[key], n.ID)
		}
	}
	for _, e := range m.graph.GetAllEdges() {
		key := m.normalizeLabel(e.Label)
		m.typeCache[key] = append(m.typeCache[key], e)
	}
	m.cacheEpoch = epoch
	m.built = true
}

func (m *Matcher) normalizeLabel(s string) string {
	if m.config.CaseInsensitiveLabels {
		return strings.ToLower(s)
	}
	return s
}

func (m *Matcher) labelEquals(a, b string) bool {
	if m.config.CaseInsensitiveLabels {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// MatchesNodePattern reports whether node satisfies pattern, independent of
// any index — the ground truth the matcher's indexed lookups must agree
// with.
func (m *Matcher) MatchesNodePattern(node *graphcore.Node, pattern graphcore.NodePattern) bool {
	if node == nil {
		return false
	}
	for _, want := range pattern.Labels {
		found := false
		for _, have := range node.Labels() {
			if m.labelEquals(want, have) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return m.matchesProperties(pattern.Properties, string(node.ID), node.Properties)
}

// MatchesRelationshipPattern reports whether edge satisfies pattern,
// ignoring direction (the caller applies direction relative to a traversal
// anchor; see findMatchingRelationships).
func (m *Matcher) MatchesRelationshipPattern(edge *graphcore.Edge, pattern graphcore.RelationshipPattern) bool {
	if edge == nil {
		return false
	}
	if pattern.Type != "" && !m.labelEquals(pattern.Type, edge.Label) {
		return false
	}
	return m.matchesProperties(pattern.Properties, "", edge.Properties)
}

// matchesProperties checks structural equality with optional coercion. The
// reserved key "id" compares against identity rather than a property.
func (m *Matcher) matchesProperties(want map[string]any, id string, have map[string]any) bool {
	for key, expected := range want {
		if key == "id" {
			if id != "" {
				if s, ok := expected.(string); !ok || s != id {
					return false
				}
			}
			continue
		}
		actual, ok := have[key]
		if !ok {
			return false
		}
		if !expr.Equal(m.config.NumericCoercion, expected, actual) {
			return false
		}
	}
	return true
}

// FindMatchingNodes returns every node satisfying pattern. When pattern
// carries labels it consults the label index; otherwise it falls back to a
// full scan.
func (m *Matcher) FindMatchingNodes(pattern graphcore.NodePattern) []*graphcore.Node {
	if idVal, ok := pattern.Properties["id"]; ok {
		if idStr, ok := idVal.(string); ok {
			node := m.graph.GetNode(graphcore.NodeID(idStr))
			if node != nil && m.MatchesNodePattern(node, pattern) {
				return []*graphcore.Node{node}
			}
			return nil
		}
	}

	if len(pattern.Labels) == 0 {
		return m.graph.FindNodes(func(n *graphcore.Node) bool {
			return m.MatchesNodePattern(n, pattern)
		})
	}

	m.ensureCache()
	m.mu.Lock()
	candidates := append([]graphcore.NodeID(nil), m.labelCache[m.normalizeLabel(pattern.Labels[0])]...)
	m.mu.Unlock()

	var out []*graphcore.Node
	for _, id := range candidates {
		node := m.graph.GetNode(id)
		if node != nil && m.MatchesNodePattern(node, pattern) {
			out = append(out, node)
		}
	}
	return out
}

// FindMatchingRelationships returns every edge satisfying pattern. When
// sourceID is non-nil, only edges incident to that node in the pattern's
// direction are considered; when direction is incoming, the pattern is
// flipped internally before the directional check.
func (m *Matcher) FindMatchingRelationships(pattern graphcore.RelationshipPattern, sourceID *graphcore.NodeID) []*graphcore.Edge {
	if sourceID != nil {
		var dir graphstore.EdgeDirection
		switch pattern.Direction {
		case graphcore.DirectionOutgoing:
			dir = graphstore.Outgoing
		case graphcore.DirectionIncoming:
			dir = graphstore.Incoming
		default:
			dir = graphstore.Both
		}
		var out []*graphcore.Edge
		for _, e := range m.graph.GetEdgesForNode(*sourceID, dir) {
			if m.MatchesRelationshipPattern(e, pattern) {
				out = append(out, e)
			}
		}
		return out
	}

	if pattern.Type == "" {
		return m.graph.FindEdges(func(e *graphcore.Edge) bool {
			return m.MatchesRelationshipPattern(e, pattern)
		})
	}

	m.ensureCache()
	m.mu.Lock()
	candidates := append([]*graphcore.Edge(nil), m.typeCache[m.normalizeLabel(pattern.Type)]...)
	m.mu.Unlock()

	var out []*graphcore.Edge
	for _, e := range candidates {
		if m.MatchesRelationshipPattern(e, pattern) {
			out = append(out, e)
		}
	}
	return out
}

// EnrichPatternWithBindings returns a clone of pattern where every node
// pattern whose variable is already bound in ctx gains an "id" constraint
// equal to the bound node's id. This drives pre-joined pattern evaluation
// across comma-separated MATCH patterns and across successive rule clauses.
func EnrichPatternWithBindings(pattern *graphcore.PathPattern, ctx *binding.Context) *graphcore.PathPattern {
	clone := pattern.Clone()
	enrichNode(&clone.Start, ctx)
	for i := range clone.Segments {
		enrichNode(&clone.Segments[i].Node, ctx)
	}
	return clone
}

func enrichNode(np *graphcore.NodePattern, ctx *binding.Context) {
	if np.Variable == "" {
		return
	}
	v, ok := ctx.Get(np.Variable)
	if !ok {
		return
	}
	node, ok := v.(*graphcore.Node)
	if !ok {
		return
	}
	if np.Properties == nil {
		np.Properties = make(map[string]any)
	}
	np.Properties["id"] = string(node.ID)
}
