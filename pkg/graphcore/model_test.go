package graphcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeLabelsCombinesPrimaryAndSecondaryLabels(t *testing.T) {
	n := &Node{ID: "p1", Label: "Person", Properties: map[string]any{"labels": []any{"Employee", "Manager"}}}
	assert.Equal(t, []string{"Person", "Employee", "Manager"}, n.Labels())
}

func TestNodeLabelsHandlesStringSliceVariant(t *testing.T) {
	n := &Node{ID: "p1", Label: "Person", Properties: map[string]any{"labels": []string{"Employee"}}}
	assert.Equal(t, []string{"Person", "Employee"}, n.Labels())
}

func TestNodeCloneIsIndependent(t *testing.T) {
	n := &Node{ID: "p1", Label: "Person", Properties: map[string]any{"name": "Alice"}}
	clone := n.Clone()
	clone.Properties["name"] = "Bob"
	assert.Equal(t, "Alice", n.Properties["name"])
}

func TestEdgeKeyIsStableAcrossConstructionPaths(t *testing.T) {
	e := &Edge{Source: "a", Target: "b", Label: "KNOWS"}
	assert.Equal(t, EdgeKey("a", "b", "KNOWS"), e.Key())
}

func TestEdgeCloneIsIndependent(t *testing.T) {
	e := &Edge{Source: "a", Target: "b", Label: "KNOWS", Properties: map[string]any{"since": "2020"}}
	clone := e.Clone()
	clone.Properties["since"] = "2021"
	assert.Equal(t, "2020", e.Properties["since"])
}

func TestPathCanonicalIsOrderSensitiveAndStable(t *testing.T) {
	p1 := &Path{
		Nodes: []*Node{{ID: "a"}, {ID: "b"}},
		Edges: []*Edge{{Source: "a", Target: "b", Label: "KNOWS"}},
	}
	p2 := &Path{
		Nodes: []*Node{{ID: "a"}, {ID: "b"}},
		Edges: []*Edge{{Source: "a", Target: "b", Label: "KNOWS"}},
	}
	p3 := &Path{
		Nodes: []*Node{{ID: "b"}, {ID: "a"}},
		Edges: []*Edge{{Source: "b", Target: "a", Label: "KNOWS"}},
	}
	assert.Equal(t, p1.Canonical(), p2.Canonical())
	assert.NotEqual(t, p1.Canonical(), p3.Canonical())
}

func TestPathCloneDeepCopiesNodesAndEdges(t *testing.T) {
	p := &Path{
		Nodes: []*Node{{ID: "a", Properties: map[string]any{"x": 1}}},
		Edges: []*Edge{{Source: "a", Target: "a", Label: "SELF", Properties: map[string]any{"y": 1}}},
	}
	clone := p.Clone()
	clone.Nodes[0].Properties["x"] = 2
	clone.Edges[0].Properties["y"] = 2
	assert.Equal(t, 1, p.Nodes[0].Properties["x"])
	assert.Equal(t, 1, p.Edges[0].Properties["y"])
}
