package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/dd0wney/graphplan/pkg/storage"
)

// OpKind identifies a plan operator.
type OpKind uint8

const (
	OpAllNodeScan OpKind = iota
	OpLabelScan
	OpIndexScan
	OpEmptyScan
	OpCartesianProduct
	OpFilter
	OpSort
	OpProject
	OpDistinct
	OpSkip
	OpLimit
	OpResults
)

var opNames = [...]string{
	OpAllNodeScan:      "All Node Scan",
	OpLabelScan:        "Label Scan",
	OpIndexScan:        "Index Scan",
	OpEmptyScan:        "Empty Scan",
	OpCartesianProduct: "Cartesian Product",
	OpFilter:           "Filter",
	OpSort:             "Sort",
	OpProject:          "Project",
	OpDistinct:         "Distinct",
	OpSkip:             "Skip",
	OpLimit:            "Limit",
	OpResults:          "Results",
}

func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", k)
}

// IsScan reports whether the operator reads nodes from storage.
func (k OpKind) IsScan() bool {
	return k <= OpEmptyScan
}

// SortKey is one resolved ORDER BY key.
type SortKey struct {
	Expression Expression
	Descending bool
}

// PlanNode is one operator of a plan tree. Only the fields relevant to Kind
// are set. Plan nodes are never modified after planning.
type PlanNode struct {
	Kind     OpKind
	Children []*PlanNode

	// Scan operators
	Variable string
	Slot     int
	Pattern  *NodePattern
	Label    string
	Property string
	Range    storage.Range
	Index    *storage.Index

	// Filter
	Predicate Expression

	// Sort
	SortKeys []SortKey

	// Project
	Items []*ReturnItem

	// Skip and Limit
	Count int
}

// Detail is the operator argument shown after the name in plan text.
func (n *PlanNode) Detail() string {
	switch n.Kind {
	case OpAllNodeScan:
		return fmt.Sprintf("(%s)", n.Variable)
	case OpLabelScan:
		return fmt.Sprintf("(%s:%s)", n.Variable, n.Label)
	case OpIndexScan, OpEmptyScan:
		if n.Label == "" {
			return fmt.Sprintf("(%s)", n.Variable)
		}
		return fmt.Sprintf("(%s:%s) %s", n.Variable, n.Label, n.Range.Format(n.Variable+"."+n.Property))
	case OpFilter:
		return n.Predicate.String()
	case OpSort:
		parts := make([]string, len(n.SortKeys))
		for i, k := range n.SortKeys {
			parts[i] = k.Expression.String()
			if k.Descending {
				parts[i] += " DESC"
			}
		}
		return strings.Join(parts, ", ")
	case OpProject:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = item.Expression.String()
			if item.Alias != "" {
				parts[i] += " AS " + item.Alias
			}
		}
		return strings.Join(parts, ", ")
	case OpSkip, OpLimit:
		return fmt.Sprintf("%d", n.Count)
	}
	return ""
}

// Plan is a compiled query: an operator tree plus the slot layout of its
// records.
type Plan struct {
	Root    *PlanNode
	Columns []string
	// Slots maps each pattern variable to its position in a record.
	Slots map[string]int
	// CatalogVersion is the graph version whose index catalog was used.
	CatalogVersion uint64
}

// Walk visits the plan in pre-order with each node's depth.
func (p *Plan) Walk(fn func(n *PlanNode, depth int)) {
	var visit func(n *PlanNode, depth int)
	visit = func(n *PlanNode, depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	if p.Root != nil {
		visit(p.Root, 0)
	}
}

// Find returns every operator of the given kind in pre-order.
func (p *Plan) Find(kind OpKind) []*PlanNode {
	var out []*PlanNode
	p.Walk(func(n *PlanNode, _ int) {
		if n.Kind == kind {
			out = append(out, n)
		}
	})
	return out
}

// Scans returns the scan operators in declaration order.
func (p *Plan) Scans() []*PlanNode {
	var out []*PlanNode
	p.Walk(func(n *PlanNode, _ int) {
		if n.Kind.IsScan() {
			out = append(out, n)
		}
	})
	return out
}

// String renders the plan one operator per line, children indented below
// their parent, e.g.
//
//	Results
//	    Project | p.age
//	        Index Scan | (p:person) p.age > 0
func (p *Plan) String() string {
	return p.format(nil)
}

// OperatorProfile holds what one operator did during a PROFILE run.
type OperatorProfile struct {
	Operator string
	Detail   string
	Depth    int
	Records  int
	Time     time.Duration
}

// FormatProfile renders the plan annotated with per-operator statistics.
func (p *Plan) FormatProfile(stats map[*PlanNode]*OperatorProfile) string {
	return p.format(stats)
}

func (p *Plan) format(stats map[*PlanNode]*OperatorProfile) string {
	var sb strings.Builder
	p.Walk(func(n *PlanNode, depth int) {
		sb.WriteString(strings.Repeat("    ", depth))
		sb.WriteString(n.Kind.String())
		if d := n.Detail(); d != "" {
			sb.WriteString(" | ")
			sb.WriteString(d)
		}
		if stats != nil {
			if s, ok := stats[n]; ok {
				fmt.Fprintf(&sb, " | Records produced: %d, Execution time: %.3f ms",
					s.Records, float64(s.Time.Microseconds())/1000)
			}
		}
		sb.WriteByte('\n')
	})
	return strings.TrimSuffix(sb.String(), "\n")
}
