package storage

import (
	"fmt"

	"github.com/dd0wney/graphplan/pkg/validation"
)

// Tx is a write transaction. It sees its own writes; nothing is visible to
// readers until Graph.Update publishes the resulting version.
type Tx struct {
	base *state
	done bool

	nodes   map[uint64]*Node
	order   []uint64
	byLabel map[string][]uint64
	nextID  uint64

	ownLabels map[string]bool
	changed   map[uint64]struct{}
	deleted   map[uint64]struct{}

	// indexes is the working catalog; a nil entry is pending a build
	indexes map[IndexKey]*Index
}

func newTx(base *state) *Tx {
	return &Tx{
		base:    base,
		nextID:  base.nextID,
		changed: map[uint64]struct{}{},
		deleted: map[uint64]struct{}{},
	}
}

func (tx *Tx) dirty() bool {
	return len(tx.changed) > 0 || tx.indexes != nil
}

func (tx *Tx) check() error {
	if tx.done {
		return ErrTransactionClosed
	}
	return nil
}

func (tx *Tx) writableNodes() map[uint64]*Node {
	if tx.nodes == nil {
		tx.nodes = make(map[uint64]*Node, len(tx.base.nodes)+1)
		for id, n := range tx.base.nodes {
			tx.nodes[id] = n
		}
		tx.order = append([]uint64(nil), tx.base.order...)
		tx.byLabel = make(map[string][]uint64, len(tx.base.byLabel)+1)
		for l, ids := range tx.base.byLabel {
			tx.byLabel[l] = ids
		}
		tx.ownLabels = map[string]bool{}
	}
	return tx.nodes
}

func (tx *Tx) labelIDs(label string) []uint64 {
	if !tx.ownLabels[label] {
		tx.byLabel[label] = append([]uint64(nil), tx.byLabel[label]...)
		tx.ownLabels[label] = true
	}
	return tx.byLabel[label]
}

// Node returns the node as seen by this transaction.
func (tx *Tx) Node(id uint64) (*Node, error) {
	nodes := tx.base.nodes
	if tx.nodes != nil {
		nodes = tx.nodes
	}
	n, ok := nodes[id]
	if !ok {
		return nil, NodeNotFoundError(id)
	}
	return n, nil
}

// CreateNode adds a node with the given labels and properties. Null
// properties are omitted.
func (tx *Tx) CreateNode(labels []string, props map[string]Value) (uint64, error) {
	if err := tx.check(); err != nil {
		return 0, err
	}
	for _, l := range labels {
		if err := validation.ValidateLabel(l); err != nil {
			return 0, NewError("CreateNode").Field("labels").Cause(fmt.Errorf("%w: %w", ErrInvalidProperty, err)).Err()
		}
	}
	n := &Node{
		ID:         tx.nextID,
		Labels:     dedupLabels(labels),
		Properties: make(map[string]Value, len(props)),
	}
	for k, v := range props {
		if err := validation.ValidatePropertyKey(k); err != nil {
			return 0, NewError("CreateNode").Field(k).Cause(fmt.Errorf("%w: %w", ErrInvalidProperty, err)).Err()
		}
		if !v.IsNull() {
			n.Properties[k] = v
		}
	}

	nodes := tx.writableNodes()
	tx.nextID++
	nodes[n.ID] = n
	tx.order = append(tx.order, n.ID)
	for _, l := range n.Labels {
		tx.byLabel[l] = append(tx.labelIDs(l), n.ID)
	}
	tx.changed[n.ID] = struct{}{}
	return n.ID, nil
}

func dedupLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// SetProperty sets key on node id. Setting Null removes the property.
func (tx *Tx) SetProperty(id uint64, key string, v Value) error {
	if err := tx.check(); err != nil {
		return err
	}
	if err := validation.ValidatePropertyKey(key); err != nil {
		return NewError("SetProperty").Node(id).Field(key).Cause(fmt.Errorf("%w: %w", ErrInvalidProperty, err)).Err()
	}
	cur, err := tx.Node(id)
	if err != nil {
		return err
	}
	next := cur.clone()
	if v.IsNull() {
		delete(next.Properties, key)
	} else {
		next.Properties[key] = v
	}
	tx.writableNodes()[id] = next
	tx.changed[id] = struct{}{}
	return nil
}

// RemoveProperty removes key from node id.
func (tx *Tx) RemoveProperty(id uint64, key string) error {
	return tx.SetProperty(id, key, Null)
}

// DeleteNode removes node id.
func (tx *Tx) DeleteNode(id uint64) error {
	if err := tx.check(); err != nil {
		return err
	}
	n, err := tx.Node(id)
	if err != nil {
		return NewError("DeleteNode").Node(id).Cause(ErrNodeNotFound).Err()
	}
	nodes := tx.writableNodes()
	delete(nodes, id)
	tx.order = removeID(tx.order, id)
	for _, l := range n.Labels {
		tx.byLabel[l] = removeID(tx.labelIDs(l), id)
		if len(tx.byLabel[l]) == 0 {
			delete(tx.byLabel, l)
		}
	}
	tx.changed[id] = struct{}{}
	tx.deleted[id] = struct{}{}
	return nil
}

// removeID deletes id from ids in place, preserving order.
func removeID(ids []uint64, id uint64) []uint64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func (tx *Tx) workingCatalog() map[IndexKey]*Index {
	if tx.indexes == nil {
		tx.indexes = tx.base.catalog.clone()
	}
	return tx.indexes
}

// CreateIndex registers an index on (label, property). The index is built at
// commit over the final node set. Returns false if it already exists.
func (tx *Tx) CreateIndex(label, property string) (bool, error) {
	if err := tx.check(); err != nil {
		return false, err
	}
	key := IndexKey{Label: label, Property: property}
	if err := validation.ValidateIndexRequest(&validation.IndexRequest{Label: label, Property: property}); err != nil {
		return false, NewError("CreateIndex").Index(key).Cause(err).Err()
	}
	working := tx.workingCatalog()
	if _, exists := working[key]; exists {
		return false, nil
	}
	working[key] = nil
	return true, nil
}

// DropIndex removes the index on (label, property).
func (tx *Tx) DropIndex(label, property string) error {
	if err := tx.check(); err != nil {
		return err
	}
	key := IndexKey{Label: label, Property: property}
	working := tx.workingCatalog()
	if _, exists := working[key]; !exists {
		return IndexNotFoundError("DropIndex", key)
	}
	delete(working, key)
	return nil
}

// Changes is the durable delta of one commit.
type Changes struct {
	Version        uint64
	NextID         uint64
	Nodes          []*Node
	Deleted        []uint64
	IndexesCreated []IndexKey
	IndexesDropped []IndexKey
}

// commit builds the next state and the delta to persist.
func (tx *Tx) commit() (*state, *Changes) {
	base := tx.base
	next := &state{
		version: base.version + 1,
		nextID:  tx.nextID,
		nodes:   base.nodes,
		order:   base.order,
		byLabel: base.byLabel,
		catalog: base.catalog,
	}
	if tx.nodes != nil {
		next.nodes = tx.nodes
		next.order = tx.order
		next.byLabel = tx.byLabel
	}

	changes := &Changes{Version: next.version, NextID: next.nextID}
	for id := range tx.changed {
		if _, gone := tx.deleted[id]; gone {
			if _, existed := base.nodes[id]; existed {
				changes.Deleted = append(changes.Deleted, id)
			}
			continue
		}
		changes.Nodes = append(changes.Nodes, next.nodes[id])
	}

	working := tx.indexes
	if working == nil && len(tx.changed) > 0 {
		working = base.catalog.clone()
	}
	if working != nil {
		for key, idx := range working {
			switch {
			case idx == nil:
				working[key] = buildIndex(key, next.nodes, next.order)
			case len(tx.changed) > 0:
				working[key] = tx.maintain(idx, next.nodes)
			}
		}
		next.catalog = &Catalog{indexes: working}
	}

	if tx.indexes != nil {
		for key := range tx.indexes {
			if _, ok := base.catalog.indexes[key]; !ok {
				changes.IndexesCreated = append(changes.IndexesCreated, key)
			}
		}
		for key := range base.catalog.indexes {
			if _, ok := tx.indexes[key]; !ok {
				changes.IndexesDropped = append(changes.IndexesDropped, key)
			}
		}
	}
	return next, changes
}

// maintain applies this transaction's node changes to an existing index.
func (tx *Tx) maintain(idx *Index, nodes map[uint64]*Node) *Index {
	key := idx.Key()
	removed := map[uint64]struct{}{}
	var added []indexEntry
	for id := range tx.changed {
		if old := tx.base.nodes[id]; old != nil && old.HasLabel(key.Label) && !old.Property(key.Property).IsNull() {
			removed[id] = struct{}{}
		}
		if n := nodes[id]; n != nil && n.HasLabel(key.Label) {
			if v := n.Property(key.Property); !v.IsNull() {
				added = append(added, indexEntry{value: v, id: id})
			}
		}
	}
	if len(removed) == 0 && len(added) == 0 {
		return idx
	}
	return idx.withChanges(removed, added)
}
