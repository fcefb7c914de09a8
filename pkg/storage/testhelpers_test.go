package storage

import (
	"testing"
)

// testGraph returns an empty in-memory graph.
func testGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	t.Cleanup(func() { g.Close() })
	return g
}

// mustCreate creates a node or fails the test.
func mustCreate(t *testing.T, g *Graph, labels []string, props map[string]any) uint64 {
	t.Helper()
	values := make(map[string]Value, len(props))
	for k, v := range props {
		val, err := ValueFromNative(v)
		if err != nil {
			t.Fatalf("ValueFromNative(%v) error = %v", v, err)
		}
		values[k] = val
	}
	id, err := g.CreateNode(labels, values)
	if err != nil {
		t.Fatalf("CreateNode() error = %v", err)
	}
	return id
}

func scanIDs(it *IndexIterator) []uint64 {
	var ids []uint64
	for {
		id, _, ok := it.Next()
		if !ok {
			return ids
		}
		ids = append(ids, id)
	}
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
