package query

import (
	"fmt"

	"github.com/dd0wney/graphplan/pkg/logging"
	"github.com/dd0wney/graphplan/pkg/storage"
)

// Planner compiles queries against one immutable index catalog. Indexes
// created or dropped after the planner was built are not seen by it.
type Planner struct {
	catalog *storage.Catalog
	version uint64
	logger  logging.Logger
}

// NewPlanner creates a planner over the catalog of a graph version.
func NewPlanner(catalog *storage.Catalog, version uint64, logger logging.Logger) *Planner {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Planner{catalog: catalog, version: version, logger: logger}
}

// patternInfo is a node pattern with its resolved variable and the
// predicates that read only that variable.
type patternInfo struct {
	node       *NodePattern
	variable   string
	slot       int
	predicates []Expression
}

// Plan builds the operator tree for a read query.
func (pl *Planner) Plan(q *Query) (*Plan, error) {
	if q == nil || q.Match == nil || len(q.Match.Patterns) == 0 {
		return nil, planError(ErrInvalidQuery, "query has no MATCH patterns")
	}
	if q.Return == nil {
		return nil, planError(ErrInvalidQuery, "query has no RETURN clause")
	}

	patterns, slots, err := collectPatterns(q.Match)
	if err != nil {
		return nil, err
	}

	// Inline property maps come first, in written order, so they take part
	// in index selection ahead of WHERE predicates.
	for _, p := range patterns {
		for _, prop := range p.node.Properties {
			p.predicates = append(p.predicates, &BinaryExpression{
				Left:     &PropertyExpression{Variable: p.variable, Property: prop.Key},
				Operator: OpEq,
				Right:    &LiteralExpression{Value: prop.Value},
			})
		}
	}

	var (
		constant []Expression
		// joined[i] holds predicates whose last bound variable is pattern i
		joined = make([][]Expression, len(patterns))
	)
	var where Expression
	if q.Where != nil {
		where = q.Where.Expression
	}
	for _, pred := range splitConjuncts(where) {
		vars := Variables(pred)
		last := -1
		for _, v := range vars {
			slot, ok := slots[v]
			if !ok {
				return nil, planError(ErrUndefinedVariable, "%s in WHERE", v)
			}
			last = max(last, slot)
		}
		switch len(vars) {
		case 0:
			constant = append(constant, pred)
		case 1:
			patterns[last].predicates = append(patterns[last].predicates, pred)
		default:
			joined[last] = append(joined[last], pred)
		}
	}

	var root *PlanNode
	for i, p := range patterns {
		leaf := pl.planPattern(p)
		if root == nil {
			root = leaf
		} else {
			root = &PlanNode{Kind: OpCartesianProduct, Children: []*PlanNode{root, leaf}}
		}
		if len(joined[i]) > 0 {
			root = filter(root, joined[i])
		}
	}
	if len(constant) > 0 {
		root = filter(root, constant)
	}

	items, err := returnItems(q.Return, patterns)
	if err != nil {
		return nil, err
	}
	columns := make([]string, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		for _, v := range Variables(item.Expression) {
			if _, ok := slots[v]; !ok {
				return nil, planError(ErrUndefinedVariable, "%s in RETURN", v)
			}
		}
		name := item.Name()
		if seen[name] {
			return nil, planError(ErrInvalidQuery, "duplicate column name %q", name)
		}
		seen[name] = true
		columns[i] = name
	}

	if len(q.Return.OrderBy) > 0 {
		keys, err := sortKeys(q.Return.OrderBy, items, slots)
		if err != nil {
			return nil, err
		}
		root = &PlanNode{Kind: OpSort, SortKeys: keys, Children: []*PlanNode{root}}
	}

	root = &PlanNode{Kind: OpProject, Items: items, Children: []*PlanNode{root}}
	if q.Return.Distinct {
		root = &PlanNode{Kind: OpDistinct, Children: []*PlanNode{root}}
	}
	if q.Skip > 0 {
		root = &PlanNode{Kind: OpSkip, Count: q.Skip, Children: []*PlanNode{root}}
	}
	if q.HasLimit {
		root = &PlanNode{Kind: OpLimit, Count: q.Limit, Children: []*PlanNode{root}}
	}
	root = &PlanNode{Kind: OpResults, Children: []*PlanNode{root}}

	return &Plan{
		Root:           root,
		Columns:        columns,
		Slots:          slots,
		CatalogVersion: pl.version,
	}, nil
}

// collectPatterns assigns each node pattern a record slot in declaration
// order. Anonymous patterns get names that cannot clash with identifiers.
func collectPatterns(m *MatchClause) ([]*patternInfo, map[string]int, error) {
	var patterns []*patternInfo
	slots := make(map[string]int)

	for _, p := range m.Patterns {
		if len(p.Relationships) > 0 {
			return nil, nil, planError(ErrUnsupportedPattern, "relationship patterns are not supported")
		}
		for _, n := range p.Nodes {
			slot := len(patterns)
			variable := n.Variable
			if variable == "" {
				variable = fmt.Sprintf("@anon_%d", slot)
			}
			if _, dup := slots[variable]; dup {
				return nil, nil, planError(ErrDuplicateVariable, "%s", variable)
			}
			slots[variable] = slot
			patterns = append(patterns, &patternInfo{node: n, variable: variable, slot: slot})
		}
	}
	return patterns, slots, nil
}

// planPattern chooses the access path of one node pattern and stacks its
// residual predicates in a Filter above the scan.
func (pl *Planner) planPattern(p *patternInfo) *PlanNode {
	leaf := &PlanNode{Variable: p.variable, Slot: p.slot, Pattern: p.node}
	residual := p.predicates

	var candidates []string
	seen := make(map[string]bool)
	for _, pred := range p.predicates {
		if prop, ok := indexableProperty(p.variable, pred); ok && !seen[prop] {
			seen[prop] = true
			candidates = append(candidates, prop)
		}
	}

	chosen := false
	for _, label := range p.node.Labels {
		for _, prop := range candidates {
			idx, ok := pl.catalog.Lookup(label, prop)
			if !ok {
				continue
			}
			a := Analyze(p.variable, prop, p.predicates)
			if !a.Ranged {
				continue
			}
			leaf.Kind = OpIndexScan
			if a.Empty() {
				leaf.Kind = OpEmptyScan
			}
			leaf.Label, leaf.Property, leaf.Range, leaf.Index = label, prop, a.Range, idx
			residual = a.Residual
			chosen = true
			break
		}
		if chosen {
			break
		}
	}

	if !chosen && len(p.node.Labels) > 0 {
		leaf.Kind = OpLabelScan
		leaf.Label = p.node.Labels[0]
	} else if !chosen {
		leaf.Kind = OpAllNodeScan
	}

	var extra []string
	for _, l := range p.node.Labels {
		if l != leaf.Label {
			extra = append(extra, l)
		}
	}
	if len(extra) > 0 {
		residual = append([]Expression{&LabelExpression{Variable: p.variable, Labels: extra}}, residual...)
	}

	pl.logger.Debug("access path chosen",
		logging.String("variable", p.variable),
		logging.AccessPath(leaf.Kind.String()),
		logging.Label(leaf.Label),
		logging.Property(leaf.Property),
		logging.Int("residual_predicates", len(residual)))

	if len(residual) == 0 {
		return leaf
	}
	return filter(leaf, residual)
}

func filter(child *PlanNode, preds []Expression) *PlanNode {
	return &PlanNode{Kind: OpFilter, Predicate: joinConjuncts(preds), Children: []*PlanNode{child}}
}

func returnItems(ret *ReturnClause, patterns []*patternInfo) ([]*ReturnItem, error) {
	if !ret.Star {
		return ret.Items, nil
	}
	var items []*ReturnItem
	for _, p := range patterns {
		if p.node.Variable != "" {
			items = append(items, &ReturnItem{Expression: &VariableExpression{Name: p.variable}})
		}
	}
	if len(items) == 0 {
		return nil, planError(ErrInvalidQuery, "RETURN * requires a named variable")
	}
	return items, nil
}

// sortKeys resolves ORDER BY items. A bare name matching a RETURN alias
// sorts by the aliased expression; any other expression must only read
// pattern variables.
func sortKeys(order []*OrderByItem, items []*ReturnItem, slots map[string]int) ([]SortKey, error) {
	aliases := make(map[string]Expression)
	for _, item := range items {
		if item.Alias != "" {
			aliases[item.Alias] = item.Expression
		}
	}

	keys := make([]SortKey, len(order))
	for i, o := range order {
		expr := o.Expression
		if v, ok := expr.(*VariableExpression); ok {
			if aliased, ok := aliases[v.Name]; ok {
				expr = aliased
			}
		}
		for _, v := range Variables(expr) {
			if _, ok := slots[v]; !ok {
				return nil, planError(ErrUnknownSortKey, "%s", o.Expression)
			}
		}
		keys[i] = SortKey{Expression: expr, Descending: o.Descending}
	}
	return keys, nil
}
