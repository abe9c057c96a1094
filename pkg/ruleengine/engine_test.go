package ruleengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphrules/pkg/executor"
	"github.com/orneryd/graphrules/pkg/graphcore"
	"github.com/orneryd/graphrules/pkg/graphstore"
)

func TestExecuteQueryBasicCreate(t *testing.T) {
	g := graphstore.New()
	e := New()

	result := e.ExecuteQuery(g, `CREATE (n:NewNode {name: "x"})`)

	require.True(t, result.Success)
	assert.Equal(t, 1, result.MatchCount)

	nodes := g.FindNodes(func(n *graphcore.Node) bool { return n.Label == "NewNode" })
	require.Len(t, nodes, 1)
	assert.Equal(t, "x", nodes[0].Properties["name"])
}

func TestExecuteQueryCommaSeparatedMatchCrossProduct(t *testing.T) {
	g := graphstore.New()
	mustAddNode(t, g, "person1", "Person")
	mustAddNode(t, g, "person2", "Person")
	mustAddNode(t, g, "task1", "Task")
	mustAddNode(t, g, "task2", "Task")

	e := New()
	result := e.ExecuteQuery(g, `MATCH (p:Person), (t:Task) CREATE (p)-[r:WORKS_ON {date: "2023-01-15"}]->(t)`)

	require.True(t, result.Success)
	assert.Equal(t, 4, result.MatchCount)

	edges := g.FindEdges(func(ed *graphcore.Edge) bool { return ed.Label == "WORKS_ON" })
	assert.Len(t, edges, 4)

	pairs := make(map[string]bool)
	for _, ed := range edges {
		pairs[string(ed.Source)+"->"+string(ed.Target)] = true
	}
	assert.True(t, pairs["person1->task1"])
	assert.True(t, pairs["person1->task2"])
	assert.True(t, pairs["person2->task1"])
	assert.True(t, pairs["person2->task2"])
}

func TestExecuteQueryEmptyPartnerSetYieldsZeroMatchesAndSucceeds(t *testing.T) {
	g := graphstore.New()
	mustAddNode(t, g, "person1", "Person")

	e := New()
	result := e.ExecuteQuery(g, `MATCH (p:Person), (c:Category) CREATE (p)-[r:BELONGS_TO]->(c)`)

	require.True(t, result.Success)
	assert.Equal(t, 0, result.MatchCount)
	assert.Empty(t, g.GetAllEdges())
}

func TestExecuteQueryRollbackOnFailureLeavesGraphEmpty(t *testing.T) {
	g := graphstore.New()
	e := New()
	e.ExecutorOptions = executor.Options{RollbackOnFailure: true}

	result := e.ExecuteQuery(g, `CREATE (p:Person) CREATE (t:Task) CREATE (p)-[:OWNS]->(x)`)

	require.False(t, result.Success)
	assert.Empty(t, g.GetAllNodes())
	assert.Contains(t, result.Error, "not found in bindings")
}

func TestExecuteQueryContinueOnFailureRecordsEachActionOutcome(t *testing.T) {
	g := graphstore.New()
	e := New()
	e.ExecutorOptions = executor.Options{ContinueOnFailure: true}

	result := e.ExecuteQuery(g, `CREATE (p:Person) CREATE (p:Task) CREATE (t:Task)`)

	require.False(t, result.Success)
	require.Len(t, result.Actions, 3)
	assert.True(t, result.Actions[0].Success)
	assert.False(t, result.Actions[1].Success)
	assert.True(t, result.Actions[2].Success)
}

func TestExecuteQueryWhereFilterNarrowsToMatchingBinding(t *testing.T) {
	g := graphstore.New()
	mustAddNode(t, g, "alice", "Person", map[string]any{"name": "Alice"})
	mustAddNode(t, g, "bob", "Person", map[string]any{"name": "Bob"})

	e := New()
	result := e.ExecuteQuery(g, `MATCH (p:Person) WHERE p.name = "Alice" SET p.status = "Active"`)

	require.True(t, result.Success)
	assert.Equal(t, 1, result.MatchCount)

	alice := g.GetNode("alice")
	bob := g.GetNode("bob")
	assert.Equal(t, "Active", alice.Properties["status"])
	_, exists := bob.Properties["status"]
	assert.False(t, exists)
}

func TestExecuteQueryReturnProjection(t *testing.T) {
	g := graphstore.New()
	mustAddNode(t, g, "alice", "Person", map[string]any{"name": "Alice"})

	e := New()
	result := e.ExecuteQuery(g, `MATCH (p:Person) RETURN p.name AS name`)

	require.True(t, result.Success)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Alice", result.Rows[0][0])
}

func TestExecuteQueriesFromMarkdownOrdersByDescendingPriority(t *testing.T) {
	g := graphstore.New()
	e := New()

	markdown := "# doc\n\n" +
		"```graphrule\n" +
		"priority: 1\n" +
		"CREATE (a:Low)\n" +
		"```\n\n" +
		"```graphrule\n" +
		"priority: 5\n" +
		"CREATE (b:High)\n" +
		"```\n"

	results := e.ExecuteQueriesFromMarkdown(g, markdown)
	require.Len(t, results, 2)

	highNode := g.FindNodes(func(n *graphcore.Node) bool { return n.Label == "High" })
	lowNode := g.FindNodes(func(n *graphcore.Node) bool { return n.Label == "Low" })
	require.Len(t, highNode, 1)
	require.Len(t, lowNode, 1)
}

func TestExecuteQueryOptionalMatchPadsEmptySetInsteadOfZeroingOut(t *testing.T) {
	g := graphstore.New()
	mustAddNode(t, g, "alice", "Person", map[string]any{"name": "Alice"})

	e := New()
	result := e.ExecuteQuery(g, `OPTIONAL MATCH (p:Person), (pet:Pet) RETURN p.name AS name`)

	require.True(t, result.Success)
	assert.Equal(t, 1, result.MatchCount)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Alice", result.Rows[0][0])
}

func TestExecuteQueriesFromMarkdownCarriesNameAndDescriptionHeaders(t *testing.T) {
	g := graphstore.New()
	e := New()

	markdown := "```graphrule\n" +
		"name: seed-admin\n" +
		"description: creates the default admin node\n" +
		"priority: 3\n" +
		"CREATE (a:Admin)\n" +
		"```\n"

	results := e.ExecuteQueriesFromMarkdown(g, markdown)
	require.Len(t, results, 1)
	assert.Equal(t, "seed-admin", results[0].Name)
	assert.Equal(t, "creates the default admin node", results[0].Description)
	assert.Equal(t, 3, results[0].Priority)
}

func mustAddNode(t *testing.T, g *graphstore.Graph, id, label string, props ...map[string]any) {
	t.Helper()
	var p map[string]any
	if len(props) > 0 {
		p = props[0]
	}
	_, err := g.AddNode(graphcore.NodeID(id), label, p)
	require.NoError(t, err)
}
