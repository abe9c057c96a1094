// Package snapshot persists a graphstore.Graph to a BadgerDB-backed store
// and restores it, storing nodes and edges as JSON values under single-byte
// key prefixes.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/orneryd/graphrules/pkg/graphcore"
	"github.com/orneryd/graphrules/pkg/graphstore"
)

// Key prefixes: one byte identifying the record kind, followed by its
// identity.
const (
	prefixNode byte = 0x01
	prefixEdge byte = 0x02
)

// Store wraps a BadgerDB handle dedicated to graph snapshots. This is not
// the graph's primary storage engine — graphstore.Graph stays the in-memory
// system of record by design — Store exists only to save and load
// point-in-time snapshots for durability across process restarts.
type Store struct {
	db *badger.DB
}

// Options configures how the underlying BadgerDB instance is opened.
type Options struct {
	// DataDir is the directory snapshot data is written to. Required
	// unless InMemory is set.
	DataDir string
	// InMemory runs BadgerDB with no on-disk footprint, for tests.
	InMemory bool
}

// Open opens (or creates) a snapshot store at the configured location.
func Open(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir).WithLogger(nil)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying BadgerDB handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type encodedNode struct {
	ID         graphcore.NodeID `json:"id"`
	Label      string           `json:"label"`
	Properties map[string]any   `json:"properties"`
}

type encodedEdge struct {
	Source     graphcore.NodeID `json:"source"`
	Target     graphcore.NodeID `json:"target"`
	Label      string           `json:"label"`
	Properties map[string]any   `json:"properties"`
}

func nodeKey(id graphcore.NodeID) []byte {
	return append([]byte{prefixNode}, []byte(id)...)
}

func edgeKey(src, tgt graphcore.NodeID, label string) []byte {
	key := make([]byte, 0, 1+len(src)+1+len(tgt)+1+len(label))
	key = append(key, prefixEdge)
	key = append(key, []byte(src)...)
	key = append(key, 0x00)
	key = append(key, []byte(tgt)...)
	key = append(key, 0x00)
	key = append(key, []byte(label)...)
	return key
}

// Save writes every node and edge currently in graph into the store inside a
// single BadgerDB transaction, replacing anything already stored under the
// same keys.
func (s *Store) Save(graph *graphstore.Graph) error {
	nodes := graph.GetAllNodes()
	edges := graph.GetAllEdges()

	return s.db.Update(func(txn *badger.Txn) error {
		for _, n := range nodes {
			data, err := json.Marshal(encodedNode{ID: n.ID, Label: n.Label, Properties: n.Properties})
			if err != nil {
				return fmt.Errorf("encoding node %q: %w", n.ID, err)
			}
			if err := txn.Set(nodeKey(n.ID), data); err != nil {
				return fmt.Errorf("writing node %q: %w", n.ID, err)
			}
		}
		for _, e := range edges {
			data, err := json.Marshal(encodedEdge{Source: e.Source, Target: e.Target, Label: e.Label, Properties: e.Properties})
			if err != nil {
				return fmt.Errorf("encoding edge %s-[%s]->%s: %w", e.Source, e.Label, e.Target, err)
			}
			if err := txn.Set(edgeKey(e.Source, e.Target, e.Label), data); err != nil {
				return fmt.Errorf("writing edge %s-[%s]->%s: %w", e.Source, e.Label, e.Target, err)
			}
		}
		return nil
	})
}

// Load reads every persisted node and edge back into a fresh graph.
// Nodes are loaded before edges so AddEdge's endpoint-existence check always
// succeeds regardless of key iteration order.
func Load(s *Store) (*graphstore.Graph, error) {
	graph := graphstore.New()

	var encodedNodes []encodedNode
	var encodedEdges []encodedEdge

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.Key()
			if len(key) == 0 {
				continue
			}
			switch key[0] {
			case prefixNode:
				var n encodedNode
				if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &n) }); err != nil {
					return fmt.Errorf("decoding node: %w", err)
				}
				encodedNodes = append(encodedNodes, n)
			case prefixEdge:
				var e encodedEdge
				if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
					return fmt.Errorf("decoding edge: %w", err)
				}
				encodedEdges = append(encodedEdges, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, n := range encodedNodes {
		if _, err := graph.AddNode(n.ID, n.Label, n.Properties); err != nil {
			return nil, fmt.Errorf("restoring node %q: %w", n.ID, err)
		}
	}
	for _, e := range encodedEdges {
		if _, err := graph.AddEdge(e.Source, e.Target, e.Label, e.Properties); err != nil {
			return nil, fmt.Errorf("restoring edge %s-[%s]->%s: %w", e.Source, e.Label, e.Target, err)
		}
	}

	return graph, nil
}
