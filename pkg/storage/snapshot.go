package storage

import (
	"sync/atomic"
)

// Snapshot is a read-only view of one committed graph version. Its node
// lists and catalog never change, even while writers publish new versions.
type Snapshot struct {
	graph    *Graph
	st       *state
	released atomic.Bool
}

// Version returns the graph version the snapshot pins.
func (s *Snapshot) Version() uint64 {
	return s.st.version
}

// Node returns the node with the given ID.
func (s *Snapshot) Node(id uint64) (*Node, error) {
	if s.released.Load() {
		return nil, NewError("get").Node(id).Cause(ErrSnapshotReleased).Err()
	}
	n, ok := s.st.nodes[id]
	if !ok {
		return nil, NodeNotFoundError(id)
	}
	return n, nil
}

// NodeIDs returns every node ID in creation order. The slice is shared and
// must not be modified.
func (s *Snapshot) NodeIDs() []uint64 {
	return s.st.order
}

// LabelNodeIDs returns the IDs carrying label in creation order. The slice
// is shared and must not be modified.
func (s *Snapshot) LabelNodeIDs(label string) []uint64 {
	return s.st.byLabel[label]
}

// Catalog returns the index catalog of this version.
func (s *Snapshot) Catalog() *Catalog {
	return s.st.catalog
}

// NodeCount returns the number of nodes in this version.
func (s *Snapshot) NodeCount() int {
	return len(s.st.nodes)
}

// Release unpins the snapshot. It is safe to call more than once.
func (s *Snapshot) Release() {
	if s.released.CompareAndSwap(false, true) {
		s.graph.released()
	}
}

// Released reports whether Release has been called.
func (s *Snapshot) Released() bool {
	return s.released.Load()
}
