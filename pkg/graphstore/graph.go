// Package graphstore implements the in-memory property graph: node/edge CRUD,
// adjacency lookups by direction, and predicate-based scans.
//
// The store is the single source of truth for identity. Patterns and binding
// contexts never own a Node or Edge; they carry an opaque NodeID and ask the
// store to resolve it, and the store returns a defensive copy on every read.
package graphstore

import (
	"strings"
	"sync"

	"github.com/orneryd/graphrules/pkg/graphcore"
)

// EdgeDirection selects which incident edges getEdgesForNode returns.
type EdgeDirection int

const (
	Outgoing EdgeDirection = iota
	Incoming
	Both
)

// Graph is a thread-safe, in-memory directed labeled property multigraph.
//
// Mutations invalidate the label/type caches that pkg/matcher builds on top
// of findNodes/findEdges; Graph itself keeps only the indexes it needs for
// its own O(1) identity and adjacency lookups (nodesByLabel, adjacency maps).
type Graph struct {
	mu    sync.RWMutex
	nodes map[graphcore.NodeID]*graphcore.Node
	edges map[string]*graphcore.Edge // keyed by graphcore.EdgeKey(src, tgt, label)

	nodesByLabel map[string]map[graphcore.NodeID]struct{}
	outgoing     map[graphcore.NodeID]map[string]struct{}
	incoming     map[graphcore.NodeID]map[string]struct{}

	// epoch increments on every mutation; pkg/matcher's caches key off it to
	// decide when to rebuild. Invalidation is bulk, not fine-grained: any
	// mutation discards the whole cache rather than patching one entry.
	epoch uint64
}

// New creates an empty Graph ready for concurrent use.
func New() *Graph {
	return &Graph{
		nodes:        make(map[graphcore.NodeID]*graphcore.Node),
		edges:        make(map[string]*graphcore.Edge),
		nodesByLabel: make(map[string]map[graphcore.NodeID]struct{}),
		outgoing:     make(map[graphcore.NodeID]map[string]struct{}),
		incoming:     make(map[graphcore.NodeID]map[string]struct{}),
	}
}

func normalizeLabel(label string) string { return strings.ToLower(label) }

// Epoch returns the current mutation counter. A matcher cache remains valid
// only for as long as the epoch it was built under is unchanged.
func (g *Graph) Epoch() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.epoch
}

// AddNode creates a node with the given id, primary label, and property
// bag. Returns graphcore.ErrDuplicateNode if id already exists.
func (g *Graph) AddNode(id graphcore.NodeID, label string, data map[string]any) (*graphcore.Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		return nil, graphcore.ErrDuplicateNode
	}

	props := make(map[string]any, len(data))
	for k, v := range data {
		props[k] = v
	}
	node := &graphcore.Node{ID: id, Label: label, Properties: props}
	g.nodes[id] = node
	g.indexNodeLabels(node)
	g.epoch++

	return node.Clone(), nil
}

func (g *Graph) indexNodeLabels(node *graphcore.Node) {
	for _, label := range node.Labels() {
		norm := normalizeLabel(label)
		if g.nodesByLabel[norm] == nil {
			g.nodesByLabel[norm] = make(map[graphcore.NodeID]struct{})
		}
		g.nodesByLabel[norm][node.ID] = struct{}{}
	}
}

func (g *Graph) unindexNodeLabels(node *graphcore.Node) {
	for _, label := range node.Labels() {
		norm := normalizeLabel(label)
		if set := g.nodesByLabel[norm]; set != nil {
			delete(set, node.ID)
		}
	}
}

// GetNode returns a copy of the node, or nil if absent.
func (g *Graph) GetNode(id graphcore.NodeID) *graphcore.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	node, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return node.Clone()
}

// GetEdge returns a copy of the edge identified by (src, tgt, label), or nil
// if absent.
func (g *Graph) GetEdge(src, tgt graphcore.NodeID, label string) *graphcore.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edge, ok := g.edges[graphcore.EdgeKey(src, tgt, label)]
	if !ok {
		return nil
	}
	return edge.Clone()
}

// AddEdge creates or replaces the edge identified by (src, tgt, label).
// Fails with graphcore.ErrUnknownNode if either endpoint does not exist.
// Creating against an existing triple replaces its properties rather than
// erroring or merging, keeping (Source, Target, Label) a stable identity.
func (g *Graph) AddEdge(src, tgt graphcore.NodeID, label string, data map[string]any) (*graphcore.Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[src]; !ok {
		return nil, graphcore.ErrUnknownNode
	}
	if _, ok := g.nodes[tgt]; !ok {
		return nil, graphcore.ErrUnknownNode
	}

	props := make(map[string]any, len(data))
	for k, v := range data {
		props[k] = v
	}
	edge := &graphcore.Edge{Source: src, Target: tgt, Label: label, Properties: props}
	key := edge.Key()

	if _, existed := g.edges[key]; !existed {
		g.addAdjacency(src, tgt, key)
	}
	g.edges[key] = edge
	g.epoch++

	return edge.Clone(), nil
}

func (g *Graph) addAdjacency(src, tgt graphcore.NodeID, key string) {
	if g.outgoing[src] == nil {
		g.outgoing[src] = make(map[string]struct{})
	}
	g.outgoing[src][key] = struct{}{}
	if g.incoming[tgt] == nil {
		g.incoming[tgt] = make(map[string]struct{})
	}
	g.incoming[tgt][key] = struct{}{}
}

// RemoveNode deletes a node and every edge incident to it, atomically.
// No-op if the node is absent.
func (g *Graph) RemoveNode(id graphcore.NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[id]
	if !ok {
		return
	}

	g.unindexNodeLabels(node)

	for key := range g.outgoing[id] {
		g.removeEdgeByKeyLocked(key)
	}
	for key := range g.incoming[id] {
		g.removeEdgeByKeyLocked(key)
	}
	delete(g.outgoing, id)
	delete(g.incoming, id)
	delete(g.nodes, id)
	g.epoch++
}

// RemoveEdge deletes the edge identified by (src, tgt, label). No-op if
// absent.
func (g *Graph) RemoveEdge(src, tgt graphcore.NodeID, label string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := graphcore.EdgeKey(src, tgt, label)
	if _, ok := g.edges[key]; !ok {
		return
	}
	g.removeEdgeByKeyLocked(key)
	g.epoch++
}

// removeEdgeByKeyLocked removes an edge and its adjacency entries; caller
// holds g.mu and is responsible for bumping the epoch once per logical op.
func (g *Graph) removeEdgeByKeyLocked(key string) {
	edge, ok := g.edges[key]
	if !ok {
		return
	}
	if set := g.outgoing[edge.Source]; set != nil {
		delete(set, key)
	}
	if set := g.incoming[edge.Target]; set != nil {
		delete(set, key)
	}
	delete(g.edges, key)
}

// SetNodeProperty assigns key on node id to value, returning the prior value
// (if any) so pkg/actions can build an undo record. Fails with
// graphcore.ErrUnknownNode if id is absent.
func (g *Graph) SetNodeProperty(id graphcore.NodeID, key string, value any) (prior any, existed bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	node, ok := g.nodes[id]
	if !ok {
		return nil, false, graphcore.ErrUnknownNode
	}
	prior, existed = node.Properties[key]
	node.Properties[key] = value
	g.epoch++
	return prior, existed, nil
}

// SetEdgeProperty assigns key on the edge (src, tgt, label) to value,
// returning the prior value for undo purposes. Fails with
// graphcore.ErrUnknownNode if the edge is absent.
func (g *Graph) SetEdgeProperty(src, tgt graphcore.NodeID, label, key string, value any) (prior any, existed bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	edge, ok := g.edges[graphcore.EdgeKey(src, tgt, label)]
	if !ok {
		return nil, false, graphcore.ErrUnknownNode
	}
	prior, existed = edge.Properties[key]
	edge.Properties[key] = value
	g.epoch++
	return prior, existed, nil
}

// RemoveNodeProperty deletes key from node id's property bag, returning the
// prior value so it can be restored on undo. No-op (existed=false) if the
// key was already absent.
func (g *Graph) RemoveNodeProperty(id graphcore.NodeID, key string) (prior any, existed bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	node, ok := g.nodes[id]
	if !ok {
		return nil, false, graphcore.ErrUnknownNode
	}
	prior, existed = node.Properties[key]
	if existed {
		delete(node.Properties, key)
		g.epoch++
	}
	return prior, existed, nil
}

// RemoveEdgeProperty deletes key from the edge (src, tgt, label)'s property
// bag, returning the prior value so it can be restored on undo. No-op
// (existed=false) if the key was already absent.
func (g *Graph) RemoveEdgeProperty(src, tgt graphcore.NodeID, label, key string) (prior any, existed bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	edge, ok := g.edges[graphcore.EdgeKey(src, tgt, label)]
	if !ok {
		return nil, false, graphcore.ErrUnknownNode
	}
	prior, existed = edge.Properties[key]
	if existed {
		delete(edge.Properties, key)
		g.epoch++
	}
	return prior, existed, nil
}

// RemoveNodeLabel deletes label from node id's `labels` array property. The
// primary Label is structural, not removable via REMOVE, so a label matching
// it is left untouched regardless of this call. Reports whether the label
// was present in the array.
func (g *Graph) RemoveNodeLabel(id graphcore.NodeID, label string) (removed bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	node, ok := g.nodes[id]
	if !ok {
		return false, graphcore.ErrUnknownNode
	}
	raw, ok := node.Properties["labels"]
	if !ok {
		return false, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return false, nil
	}
	out := make([]any, 0, len(list))
	for _, l := range list {
		s, ok := l.(string)
		if ok && strings.EqualFold(s, label) {
			removed = true
			continue
		}
		out = append(out, l)
	}
	if removed {
		g.unindexNodeLabels(node)
		node.Properties["labels"] = out
		g.indexNodeLabels(node)
		g.epoch++
	}
	return removed, nil
}

// AddNodeLabel appends label to node id's `labels` array property if not
// already present, re-indexing so subsequent pattern matches see it.
func (g *Graph) AddNodeLabel(id graphcore.NodeID, label string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	node, ok := g.nodes[id]
	if !ok {
		return graphcore.ErrUnknownNode
	}
	for _, have := range node.Labels() {
		if strings.EqualFold(have, label) {
			return nil
		}
	}
	g.unindexNodeLabels(node)
	var list []any
	if raw, ok := node.Properties["labels"]; ok {
		if existing, ok := raw.([]any); ok {
			list = existing
		}
	}
	list = append(list, label)
	node.Properties["labels"] = list
	g.indexNodeLabels(node)
	g.epoch++
	return nil
}

// GetAllNodes returns every node in the graph. Order is unspecified but
// stable within one mutation epoch.
func (g *Graph) GetAllNodes() []*graphcore.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*graphcore.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.Clone())
	}
	return out
}

// GetAllEdges returns every edge in the graph.
func (g *Graph) GetAllEdges() []*graphcore.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*graphcore.Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e.Clone())
	}
	return out
}

// FindNodes returns a materialized list of every node satisfying pred, via a
// linear scan. Callers needing label-indexed lookups should use
// pkg/matcher, which consults NodesByLabel before falling back to this.
func (g *Graph) FindNodes(pred func(*graphcore.Node) bool) []*graphcore.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*graphcore.Node
	for _, n := range g.nodes {
		if pred(n) {
			out = append(out, n.Clone())
		}
	}
	return out
}

// FindEdges returns a materialized list of every edge satisfying pred.
func (g *Graph) FindEdges(pred func(*graphcore.Edge) bool) []*graphcore.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*graphcore.Edge
	for _, e := range g.edges {
		if pred(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// NodesByLabel returns the ids of nodes carrying the given label
// (case-insensitive), backing pkg/matcher's label index without requiring
// it to reimplement graph-internal bookkeeping.
func (g *Graph) NodesByLabel(label string) []graphcore.NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	set := g.nodesByLabel[normalizeLabel(label)]
	ids := make([]graphcore.NodeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// GetEdgesForNode returns the edges incident to id in the requested
// direction.
func (g *Graph) GetEdgesForNode(id graphcore.NodeID, dir EdgeDirection) []*graphcore.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []*graphcore.Edge
	if dir == Outgoing || dir == Both {
		for key := range g.outgoing[id] {
			out = append(out, g.edges[key].Clone())
		}
	}
	if dir == Incoming || dir == Both {
		for key := range g.incoming[id] {
			out = append(out, g.edges[key].Clone())
		}
	}
	return out
}
