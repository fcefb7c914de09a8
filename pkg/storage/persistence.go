package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/golang/snappy"

	"github.com/dd0wney/graphplan/pkg/logging"
)

// Key prefixes in the badger keyspace
const (
	prefixNode  byte = 0x01 // node:<id be64> -> snappy(json(nodeRecord))
	prefixIndex byte = 0x02 // index:<label>\x00<property> -> empty
	prefixMeta  byte = 0x03 // meta:<name> -> be64
)

var metaNextID = []byte{prefixMeta, 'n', 'e', 'x', 't', '_', 'i', 'd'}

// Store persists nodes and index definitions in badger. Indexes are stored
// by definition only and rebuilt when the graph is opened.
type Store struct {
	db     *badger.DB
	closed atomic.Bool
}

type badgerLogger struct {
	logger logging.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// OpenStore opens a badger store at dir, or an in-memory one. Badger's own
// log is routed to logger when it is non-nil and discarded otherwise.
func OpenStore(dir string, inMemory, syncWrites bool, logger logging.Logger) (*Store, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if dir == "" {
			return nil, PersistError("open", fmt.Errorf("data directory is required"))
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, PersistError("open", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithSyncWrites(syncWrites).WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(badgerLogger{logger: logger.With(logging.Component("badger"))})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, PersistError("open", err)
	}
	return &Store{db: db}, nil
}

type valueRecord struct {
	Type ValueType `json:"t"`
	Data []byte    `json:"d"`
}

type nodeRecord struct {
	ID         uint64                 `json:"id"`
	Labels     []string               `json:"labels,omitempty"`
	Properties map[string]valueRecord `json:"props,omitempty"`
}

func nodeKey(id uint64) []byte {
	key := make([]byte, 9)
	key[0] = prefixNode
	binary.BigEndian.PutUint64(key[1:], id)
	return key
}

func indexDefKey(k IndexKey) []byte {
	key := make([]byte, 0, 2+len(k.Label)+len(k.Property))
	key = append(key, prefixIndex)
	key = append(key, k.Label...)
	key = append(key, 0)
	key = append(key, k.Property...)
	return key
}

func parseIndexDefKey(key []byte) (IndexKey, error) {
	label, property, ok := strings.Cut(string(key[1:]), "\x00")
	if !ok {
		return IndexKey{}, fmt.Errorf("malformed index key %q", key)
	}
	return IndexKey{Label: label, Property: property}, nil
}

func encodeNode(n *Node) ([]byte, error) {
	rec := nodeRecord{ID: n.ID, Labels: n.Labels}
	if len(n.Properties) > 0 {
		rec.Properties = make(map[string]valueRecord, len(n.Properties))
		for k, v := range n.Properties {
			rec.Properties[k] = valueRecord{Type: v.Type, Data: v.Data}
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, NewError("marshal").Node(n.ID).Cause(fmt.Errorf("%w: %w", ErrMarshalFailed, err)).Err()
	}
	return snappy.Encode(nil, data), nil
}

func decodeNode(raw []byte) (*Node, error) {
	data, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshalFailed, err)
	}
	var rec nodeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshalFailed, err)
	}
	n := &Node{ID: rec.ID, Labels: rec.Labels, Properties: make(map[string]Value, len(rec.Properties))}
	for k, v := range rec.Properties {
		n.Properties[k] = Value{Type: v.Type, Data: v.Data}
	}
	return n, nil
}

// Apply writes one commit's changes in a single write batch.
func (s *Store) Apply(c *Changes) error {
	if s.closed.Load() {
		return ErrStorageClosed
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, n := range c.Nodes {
		data, err := encodeNode(n)
		if err != nil {
			return err
		}
		if err := wb.Set(nodeKey(n.ID), data); err != nil {
			return PersistError("apply", err)
		}
	}
	for _, id := range c.Deleted {
		if err := wb.Delete(nodeKey(id)); err != nil {
			return PersistError("apply", err)
		}
	}
	for _, k := range c.IndexesCreated {
		if err := wb.Set(indexDefKey(k), []byte{}); err != nil {
			return PersistError("apply", err)
		}
	}
	for _, k := range c.IndexesDropped {
		if err := wb.Delete(indexDefKey(k)); err != nil {
			return PersistError("apply", err)
		}
	}
	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, c.NextID)
	if err := wb.Set(metaNextID, next); err != nil {
		return PersistError("apply", err)
	}
	if err := wb.Flush(); err != nil {
		return PersistError("apply", err)
	}
	return nil
}

// Loaded is the content of a store read back at open.
type Loaded struct {
	Nodes   []*Node
	Indexes []IndexKey
	NextID  uint64
}

// Load reads every node and index definition.
func (s *Store) Load() (*Loaded, error) {
	if s.closed.Load() {
		return nil, ErrStorageClosed
	}
	out := &Loaded{NextID: 1}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte{prefixNode}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			n, err := decodeNode(raw)
			if err != nil {
				return err
			}
			out.Nodes = append(out.Nodes, n)
		}

		prefix = []byte{prefixIndex}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key, err := parseIndexDefKey(it.Item().KeyCopy(nil))
			if err != nil {
				return err
			}
			out.Indexes = append(out.Indexes, key)
		}

		item, err := txn.Get(metaNextID)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out.NextID = binary.BigEndian.Uint64(raw)
		}
		return nil
	})
	if err != nil {
		return nil, PersistError("load", err)
	}
	return out, nil
}

// toState rebuilds the in-memory state, indexes included. Node IDs are
// allocated ascending, so key order is creation order.
func (l *Loaded) toState() *state {
	st := emptyState()
	st.version = 1
	sort.Slice(l.Nodes, func(i, j int) bool { return l.Nodes[i].ID < l.Nodes[j].ID })
	for _, n := range l.Nodes {
		st.nodes[n.ID] = n
		st.order = append(st.order, n.ID)
		for _, label := range n.Labels {
			st.byLabel[label] = append(st.byLabel[label], n.ID)
		}
		if n.ID >= st.nextID {
			st.nextID = n.ID + 1
		}
	}
	if l.NextID > st.nextID {
		st.nextID = l.NextID
	}
	indexes := make(map[IndexKey]*Index, len(l.Indexes))
	for _, k := range l.Indexes {
		indexes[k] = buildIndex(k, st.nodes, st.order)
	}
	st.catalog = &Catalog{indexes: indexes}
	return st
}

// Close closes the badger database.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrStorageClosed
	}
	return s.db.Close()
}
