package graphcore

import "fmt"

// NodeID uniquely identifies a node within a Graph. Opaque by design: the
// graph store is the only component that manufactures identity, patterns and
// bindings merely carry it around.
type NodeID string

// Node is a labeled, property-bearing vertex in the graph.
//
// A node carries exactly one primary Label; additional labels may be stored
// under the reserved "labels" property key, and pattern matching treats the
// union of Label and that array as the node's label set.
type Node struct {
	ID         NodeID
	Label      string
	Properties map[string]any
}

// Labels returns every label the node answers to: its primary Label plus any
// strings found in the "labels" property array.
func (n *Node) Labels() []string {
	labels := make([]string, 0, 1)
	if n.Label != "" {
		labels = append(labels, n.Label)
	}
	if extra, ok := n.Properties["labels"]; ok {
		if arr, ok := extra.([]string); ok {
			labels = append(labels, arr...)
		} else if arr, ok := extra.([]any); ok {
			for _, v := range arr {
				if s, ok := v.(string); ok {
					labels = append(labels, s)
				}
			}
		}
	}
	return labels
}

// Clone returns a deep copy so callers (binding contexts, undo records) never
// observe mutation through a shared pointer.
func (n *Node) Clone() *Node {
	props := make(map[string]any, len(n.Properties))
	for k, v := range n.Properties {
		props[k] = v
	}
	return &Node{ID: n.ID, Label: n.Label, Properties: props}
}

// Edge is a directed, typed, property-bearing relationship between two
// nodes. The triple (Source, Target, Label) is its identity: a second
// CreateRelationship on the same triple replaces it.
type Edge struct {
	Source     NodeID
	Target     NodeID
	Label      string
	Properties map[string]any
}

// Clone returns a deep copy of the edge.
func (e *Edge) Clone() *Edge {
	props := make(map[string]any, len(e.Properties))
	for k, v := range e.Properties {
		props[k] = v
	}
	return &Edge{Source: e.Source, Target: e.Target, Label: e.Label, Properties: props}
}

// Key returns the canonical (source, label, target) identity string used by
// the graph store's edge index.
func (e *Edge) Key() string {
	return edgeKey(e.Source, e.Target, e.Label)
}

func edgeKey(src, tgt NodeID, label string) string {
	return fmt.Sprintf("%s\x00%s\x00%s", src, tgt, label)
}

// EdgeKey builds the canonical identity string for an edge triple without
// requiring an Edge value, e.g. for index lookups before construction.
func EdgeKey(src, tgt NodeID, label string) string {
	return edgeKey(src, tgt, label)
}

// Path is an alternating node/edge sequence n0, e0, n1, e1, ..., nk. Paths
// are values produced by the matcher; they are never stored.
type Path struct {
	Nodes []*Node
	Edges []*Edge
}

// Canonical returns the dedup key the matcher uses to collapse paths reached
// via different BFS interleavings into one result.
func (p *Path) Canonical() string {
	nodeIDs := make([]byte, 0, 32)
	for i, n := range p.Nodes {
		if i > 0 {
			nodeIDs = append(nodeIDs, ',')
		}
		nodeIDs = append(nodeIDs, []byte(n.ID)...)
	}
	edgeParts := make([]byte, 0, 32)
	for i, e := range p.Edges {
		if i > 0 {
			edgeParts = append(edgeParts, ',')
		}
		edgeParts = append(edgeParts, []byte(fmt.Sprintf("%s-%s-%s", e.Source, e.Label, e.Target))...)
	}
	return string(nodeIDs) + "|" + string(edgeParts)
}

// Clone returns a deep copy of the path (and the nodes/edges it carries),
// matching the clone discipline of Node/Edge.
func (p *Path) Clone() *Path {
	nodes := make([]*Node, len(p.Nodes))
	for i, n := range p.Nodes {
		nodes[i] = n.Clone()
	}
	edges := make([]*Edge, len(p.Edges))
	for i, e := range p.Edges {
		edges[i] = e.Clone()
	}
	return &Path{Nodes: nodes, Edges: edges}
}
