package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphrules/pkg/graphcore"
	"github.com/orneryd/graphrules/pkg/graphstore"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadRoundTripsNodesAndEdges(t *testing.T) {
	g := graphstore.New()
	_, err := g.AddNode("alice", "Person", map[string]any{"name": "Alice"})
	require.NoError(t, err)
	_, err = g.AddNode("bob", "Person", map[string]any{"name": "Bob"})
	require.NoError(t, err)
	_, err = g.AddEdge("alice", "bob", "KNOWS", map[string]any{"since": "2020"})
	require.NoError(t, err)

	s := openTestStore(t)
	require.NoError(t, s.Save(g))

	restored, err := Load(s)
	require.NoError(t, err)

	alice := restored.GetNode("alice")
	require.NotNil(t, alice)
	assert.Equal(t, "Alice", alice.Properties["name"])

	edges := restored.FindEdges(func(e *graphcore.Edge) bool { return e.Label == "KNOWS" })
	require.Len(t, edges, 1)
	assert.Equal(t, "2020", edges[0].Properties["since"])
}

func TestLoadFromEmptyStoreYieldsEmptyGraph(t *testing.T) {
	s := openTestStore(t)
	g, err := Load(s)
	require.NoError(t, err)
	assert.Empty(t, g.GetAllNodes())
	assert.Empty(t, g.GetAllEdges())
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	s := openTestStore(t)

	g1 := graphstore.New()
	_, err := g1.AddNode("alice", "Person", map[string]any{"name": "Alice"})
	require.NoError(t, err)
	require.NoError(t, s.Save(g1))

	g2 := graphstore.New()
	_, err = g2.AddNode("alice", "Person", map[string]any{"name": "Alicia"})
	require.NoError(t, err)
	require.NoError(t, s.Save(g2))

	restored, err := Load(s)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", restored.GetNode("alice").Properties["name"])
}
