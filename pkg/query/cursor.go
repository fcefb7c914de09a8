package query

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dd0wney/graphplan/pkg/storage"
)

// GraphReader is the read-only graph view a plan runs against.
// *storage.Snapshot implements it.
type GraphReader interface {
	Version() uint64
	Node(id uint64) (*storage.Node, error)
	NodeIDs() []uint64
	LabelNodeIDs(label string) []uint64
	Catalog() *storage.Catalog
}

// Record is a row in flight: one node slot per pattern variable, plus the
// projected values once a Project operator has run.
type Record struct {
	nodes []*storage.Node
	row   []any
}

// execution is the state shared by the cursors of one plan instance.
type execution struct {
	ctx    context.Context
	reader GraphReader
	plan   *Plan
	eval   *evaluator
	width  int

	// prefetched holds materialized right operands of cartesian products.
	prefetched map[*PlanNode][]Record
	// profile is nil unless the plan runs under PROFILE.
	profile map[*PlanNode]*OperatorProfile

	// per access path: scan instances opened and nodes produced
	opened  map[string]int
	scanned map[string]int
}

func newExecution(ctx context.Context, reader GraphReader, plan *Plan, profiling bool) *execution {
	ex := &execution{
		ctx:        ctx,
		reader:     reader,
		plan:       plan,
		eval:       newEvaluator(plan.Slots),
		width:      len(plan.Slots),
		prefetched: make(map[*PlanNode][]Record),
		opened:     make(map[string]int),
		scanned:    make(map[string]int),
	}
	if profiling {
		ex.profile = make(map[*PlanNode]*OperatorProfile)
		plan.Walk(func(n *PlanNode, depth int) {
			ex.profile[n] = &OperatorProfile{Operator: n.Kind.String(), Detail: n.Detail(), Depth: depth}
		})
	}
	return ex
}

// fork returns an execution with its own counters for use on another
// goroutine. Profiling is not carried over.
func (ex *execution) fork(ctx context.Context) *execution {
	return &execution{
		ctx:        ctx,
		reader:     ex.reader,
		plan:       ex.plan,
		eval:       ex.eval,
		width:      ex.width,
		prefetched: map[*PlanNode][]Record{},
		opened:     make(map[string]int),
		scanned:    make(map[string]int),
	}
}

func (ex *execution) absorb(other *execution) {
	for k, v := range other.opened {
		ex.opened[k] += v
	}
	for k, v := range other.scanned {
		ex.scanned[k] += v
	}
}

func (ex *execution) nodesScanned() int {
	total := 0
	for _, n := range ex.scanned {
		total += n
	}
	return total
}

// profiles lists operator statistics in plan order.
func (ex *execution) profiles() []OperatorProfile {
	if ex.profile == nil {
		return nil
	}
	var out []OperatorProfile
	ex.plan.Walk(func(n *PlanNode, _ int) {
		out = append(out, *ex.profile[n])
	})
	return out
}

func (ex *execution) bind(slot int, n *storage.Node) Record {
	rec := Record{nodes: make([]*storage.Node, ex.width)}
	rec.nodes[slot] = n
	return rec
}

// cursor is a live instance of a plan operator. Cursors are single-use:
// a nested-loop re-iteration opens a fresh one.
type cursor struct {
	ex   *execution
	node *PlanNode

	child *cursor

	// scans
	ids  []uint64
	pos  int
	iter *storage.IndexIterator

	// cartesian product
	left      *cursor
	right     *cursor
	outer     Record
	haveOuter bool
	inner     []Record
	innerPos  int

	// sort
	sorted      []Record
	sortedReady bool

	// distinct, skip, limit
	seen    map[string]struct{}
	skipped bool
	emitted int
}

// open instantiates the operator tree rooted at n.
func (ex *execution) open(n *PlanNode) *cursor {
	c := &cursor{ex: ex, node: n}

	switch n.Kind {
	case OpAllNodeScan:
		c.ids = ex.reader.NodeIDs()
	case OpLabelScan:
		c.ids = ex.reader.LabelNodeIDs(n.Label)
	case OpIndexScan:
		c.iter = n.Index.Scan(n.Range)
	case OpEmptyScan:
	case OpCartesianProduct:
		c.left = ex.open(n.Children[0])
	default:
		c.child = ex.open(n.Children[0])
	}

	if n.Kind.IsScan() {
		ex.opened[n.Kind.String()]++
	}
	return c
}

// next returns the next record, false when the operator is exhausted.
func (c *cursor) next() (Record, bool, error) {
	if err := c.ex.ctx.Err(); err != nil {
		return Record{}, false, fmt.Errorf("%w: %w", ErrQueryCancelled, err)
	}

	if c.ex.profile == nil {
		return c.step()
	}
	start := time.Now()
	rec, ok, err := c.step()
	prof := c.ex.profile[c.node]
	prof.Time += time.Since(start)
	if ok {
		prof.Records++
	}
	return rec, ok, err
}

func (c *cursor) step() (Record, bool, error) {
	switch c.node.Kind {
	case OpAllNodeScan, OpLabelScan:
		return c.nextFromIDs()
	case OpIndexScan:
		return c.nextFromIndex()
	case OpEmptyScan:
		return Record{}, false, nil
	case OpCartesianProduct:
		return c.nextProduct()
	case OpFilter:
		return c.nextFiltered()
	case OpSort:
		return c.nextSorted()
	case OpProject:
		rec, ok, err := c.child.next()
		if err != nil || !ok {
			return Record{}, false, err
		}
		rec.row = c.project(rec)
		return rec, true, nil
	case OpDistinct:
		return c.nextDistinct()
	case OpSkip:
		if !c.skipped {
			c.skipped = true
			for i := 0; i < c.node.Count; i++ {
				if _, ok, err := c.child.next(); err != nil || !ok {
					return Record{}, false, err
				}
			}
		}
		return c.child.next()
	case OpLimit:
		if c.emitted >= c.node.Count {
			return Record{}, false, nil
		}
		rec, ok, err := c.child.next()
		if ok {
			c.emitted++
		}
		return rec, ok, err
	case OpResults:
		return c.child.next()
	}
	return Record{}, false, fmt.Errorf("unknown operator %s", c.node.Kind)
}

func (c *cursor) fetch(id uint64) (*storage.Node, error) {
	n, err := c.ex.reader.Node(id)
	if err != nil {
		return nil, &ScanError{
			Operator: c.node.Kind.String(),
			Variable: c.node.Variable,
			NodeID:   id,
			Cause:    err,
		}
	}
	c.ex.scanned[c.node.Kind.String()]++
	return n, nil
}

func (c *cursor) nextFromIDs() (Record, bool, error) {
	if c.pos >= len(c.ids) {
		return Record{}, false, nil
	}
	id := c.ids[c.pos]
	c.pos++
	n, err := c.fetch(id)
	if err != nil {
		return Record{}, false, err
	}
	return c.ex.bind(c.node.Slot, n), true, nil
}

func (c *cursor) nextFromIndex() (Record, bool, error) {
	id, _, ok := c.iter.Next()
	if !ok {
		return Record{}, false, nil
	}
	n, err := c.fetch(id)
	if err != nil {
		return Record{}, false, err
	}
	return c.ex.bind(c.node.Slot, n), true, nil
}

// nextProduct pairs every left record with every right record. The right
// operand restarts for each left record, from a fresh cursor or from its
// prefetched records.
func (c *cursor) nextProduct() (Record, bool, error) {
	rightPlan := c.node.Children[1]
	for {
		if !c.haveOuter {
			rec, ok, err := c.left.next()
			if err != nil || !ok {
				return Record{}, false, err
			}
			c.outer, c.haveOuter = rec, true
			if pre, ok := c.ex.prefetched[rightPlan]; ok {
				c.inner, c.innerPos, c.right = pre, 0, nil
			} else {
				c.right = c.ex.open(rightPlan)
			}
		}

		var (
			inner Record
			ok    bool
		)
		if c.right != nil {
			var err error
			if inner, ok, err = c.right.next(); err != nil {
				return Record{}, false, err
			}
		} else if c.innerPos < len(c.inner) {
			inner, ok = c.inner[c.innerPos], true
			c.innerPos++
		}

		if !ok {
			c.haveOuter = false
			continue
		}
		return merge(c.outer, inner), true, nil
	}
}

func merge(outer, inner Record) Record {
	out := Record{nodes: make([]*storage.Node, len(outer.nodes))}
	copy(out.nodes, outer.nodes)
	for i, n := range inner.nodes {
		if n != nil {
			out.nodes[i] = n
		}
	}
	return out
}

func (c *cursor) nextFiltered() (Record, bool, error) {
	for {
		rec, ok, err := c.child.next()
		if err != nil || !ok {
			return Record{}, false, err
		}
		if c.ex.eval.predicate(c.node.Predicate, rec) {
			return rec, true, nil
		}
	}
}

func (c *cursor) nextSorted() (Record, bool, error) {
	if !c.sortedReady {
		var all []Record
		for {
			rec, ok, err := c.child.next()
			if err != nil {
				return Record{}, false, err
			}
			if !ok {
				break
			}
			all = append(all, rec)
		}
		c.sorted = sortRecords(c.ex.eval, all, c.node.SortKeys)
		c.sortedReady = true
	}
	if c.pos >= len(c.sorted) {
		return Record{}, false, nil
	}
	rec := c.sorted[c.pos]
	c.pos++
	return rec, true, nil
}

func (c *cursor) project(rec Record) []any {
	row := make([]any, len(c.node.Items))
	for i, item := range c.node.Items {
		if v, ok := item.Expression.(*VariableExpression); ok {
			if n := c.ex.eval.node(rec, v.Name); n != nil {
				row[i] = n
			}
			continue
		}
		row[i] = c.ex.eval.eval(item.Expression, rec).Native()
	}
	return row
}

func (c *cursor) nextDistinct() (Record, bool, error) {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	for {
		rec, ok, err := c.child.next()
		if err != nil || !ok {
			return Record{}, false, err
		}
		key := rowKey(rec.row)
		if _, dup := c.seen[key]; dup {
			continue
		}
		c.seen[key] = struct{}{}
		return rec, true, nil
	}
}

func rowKey(row []any) string {
	key := ""
	for _, v := range row {
		switch x := v.(type) {
		case nil:
			key += "\x00_"
		case *storage.Node:
			key += fmt.Sprintf("\x00N%d", x.ID)
		case int64:
			key += fmt.Sprintf("\x00i%d", x)
		case float64:
			key += "\x00" + numberKey(x)
		default:
			key += fmt.Sprintf("\x00%T:%v", v, v)
		}
	}
	return key
}

// numberKey gives a float the key of the int it equals, so DISTINCT agrees
// with numeric equality.
func numberKey(f float64) string {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return fmt.Sprintf("i%d", int64(f))
	}
	return "f" + strconv.FormatFloat(f, 'g', -1, 64)
}

// materialize drains the subtree rooted at n.
func (ex *execution) materialize(n *PlanNode) ([]Record, error) {
	c := ex.open(n)
	var out []Record
	for {
		rec, ok, err := c.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rec)
	}
}
