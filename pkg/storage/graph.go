package storage

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/graphplan/pkg/logging"
	"github.com/dd0wney/graphplan/pkg/metrics"
)

// state is one committed, immutable version of the graph.
type state struct {
	version uint64
	nextID  uint64
	nodes   map[uint64]*Node
	order   []uint64            // live node IDs in creation order
	byLabel map[string][]uint64 // per-label IDs in creation order
	catalog *Catalog
}

func emptyState() *state {
	return &state{
		version: 0,
		nextID:  1,
		nodes:   map[uint64]*Node{},
		byLabel: map[string][]uint64{},
		catalog: emptyCatalog,
	}
}

// Options configures a Graph.
type Options struct {
	// DataDir enables persistence in a badger store at this path.
	DataDir string
	// InMemory keeps a badger store without touching disk.
	InMemory   bool
	SyncWrites bool
	Logger     logging.Logger
	Metrics    *metrics.Registry
}

// Graph is a versioned in-memory property graph. Readers take snapshots of
// the latest committed version without locking; writers serialize on mu and
// publish a new version copy-on-write.
type Graph struct {
	mu      sync.Mutex
	current atomic.Pointer[state]
	store   *Store
	closed  atomic.Bool
	active  atomic.Int64

	logger  logging.Logger
	metrics *metrics.Registry
}

// NewGraph returns an empty, non-persistent graph.
func NewGraph() *Graph {
	g, _ := Open(Options{})
	return g
}

// Open creates a graph, replaying the badger store when one is configured.
func Open(opts Options) (*Graph, error) {
	g := &Graph{
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if g.logger == nil {
		g.logger = logging.NewNopLogger()
	}
	g.logger = g.logger.With(logging.Component("storage"))
	g.current.Store(emptyState())

	if opts.DataDir == "" && !opts.InMemory {
		return g, nil
	}

	store, err := OpenStore(opts.DataDir, opts.InMemory, opts.SyncWrites, g.logger)
	if err != nil {
		return nil, err
	}
	loaded, err := store.Load()
	if err != nil {
		store.Close()
		return nil, err
	}
	g.store = store
	g.install(loaded.toState())
	g.logger.Info("graph loaded",
		logging.Path(opts.DataDir),
		logging.Count(len(loaded.Nodes)),
		logging.Int("indexes", len(loaded.Indexes)))
	return g, nil
}

func (g *Graph) install(st *state) {
	g.current.Store(st)
	if g.metrics != nil {
		g.metrics.UpdateGraphMetrics(st.version, len(st.nodes), st.catalog.Len())
	}
}

// Version returns the latest committed version.
func (g *Graph) Version() uint64 {
	return g.current.Load().version
}

// NodeCount returns the number of nodes in the latest version.
func (g *Graph) NodeCount() int {
	return len(g.current.Load().nodes)
}

// Catalog returns the index catalog of the latest version.
func (g *Graph) Catalog() *Catalog {
	return g.current.Load().catalog
}

// ActiveSnapshots returns the number of acquired, unreleased snapshots.
func (g *Graph) ActiveSnapshots() int64 {
	return g.active.Load()
}

// Snapshot pins the latest committed version. Callers must Release it.
func (g *Graph) Snapshot() *Snapshot {
	g.active.Add(1)
	if g.metrics != nil {
		g.metrics.SnapshotAcquired()
	}
	return &Snapshot{graph: g, st: g.current.Load()}
}

func (g *Graph) released() {
	g.active.Add(-1)
	if g.metrics != nil {
		g.metrics.SnapshotReleased()
	}
}

// Update runs fn in a write transaction and publishes its changes as one new
// version. If fn or persistence fails nothing is published.
func (g *Graph) Update(fn func(tx *Tx) error) error {
	if g.closed.Load() {
		return ErrStorageClosed
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	tx := newTx(g.current.Load())
	err := fn(tx)
	tx.done = true
	if err != nil {
		g.recordOp("commit", err, start)
		return err
	}
	if !tx.dirty() {
		return nil
	}

	next, changes := tx.commit()
	timer := logging.StartTimer(g.logger, "commit",
		logging.Version(next.version),
		logging.Count(len(changes.Nodes)+len(changes.Deleted)))
	if g.store != nil {
		if err := g.store.Apply(changes); err != nil {
			g.recordOp("commit", err, start)
			timer.EndError(err)
			return err
		}
	}
	g.install(next)
	g.recordOp("commit", nil, start)
	timer.End()
	return nil
}

func (g *Graph) recordOp(op string, err error, start time.Time) {
	if g.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	g.metrics.RecordStorageOperation(op, status, time.Since(start))
}

// CreateNode creates a single node and returns its ID.
func (g *Graph) CreateNode(labels []string, props map[string]Value) (uint64, error) {
	var id uint64
	err := g.Update(func(tx *Tx) error {
		var err error
		id, err = tx.CreateNode(labels, props)
		return err
	})
	return id, err
}

// SetProperty sets one property on an existing node.
func (g *Graph) SetProperty(id uint64, key string, v Value) error {
	return g.Update(func(tx *Tx) error {
		return tx.SetProperty(id, key, v)
	})
}

// RemoveProperty deletes one property from an existing node.
func (g *Graph) RemoveProperty(id uint64, key string) error {
	return g.Update(func(tx *Tx) error {
		return tx.RemoveProperty(id, key)
	})
}

// DeleteNode removes a node.
func (g *Graph) DeleteNode(id uint64) error {
	return g.Update(func(tx *Tx) error {
		return tx.DeleteNode(id)
	})
}

// CreateIndex builds an index on (label, property). It reports false when
// the index already existed, which is not an error.
func (g *Graph) CreateIndex(label, property string) (bool, error) {
	var created bool
	err := g.Update(func(tx *Tx) error {
		var err error
		created, err = tx.CreateIndex(label, property)
		return err
	})
	if err == nil && created {
		g.logger.Info("index created", logging.Label(label), logging.Property(property))
	}
	return created, err
}

// DropIndex removes the index on (label, property). Dropping a missing
// index returns ErrIndexNotFound.
func (g *Graph) DropIndex(label, property string) error {
	err := g.Update(func(tx *Tx) error {
		return tx.DropIndex(label, property)
	})
	if err == nil {
		g.logger.Info("index dropped", logging.Label(label), logging.Property(property))
	}
	return err
}

// Close releases the persistent store. In-flight snapshots stay readable.
func (g *Graph) Close() error {
	if !g.closed.CompareAndSwap(false, true) {
		return ErrStorageClosed
	}
	if g.store == nil {
		return nil
	}
	if err := g.store.Close(); err != nil && !errors.Is(err, ErrStorageClosed) {
		return err
	}
	return nil
}
