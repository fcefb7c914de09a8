package query

import (
	"context"
	"testing"

	"github.com/dd0wney/graphplan/pkg/storage"
)

func newTestGraph(t *testing.T) *storage.Graph {
	t.Helper()
	g := storage.NewGraph()
	t.Cleanup(func() { g.Close() })
	return g
}

func addNode(t *testing.T, g *storage.Graph, labels []string, props map[string]any) uint64 {
	t.Helper()
	values := make(map[string]storage.Value, len(props))
	for k, v := range props {
		val, err := storage.ValueFromNative(v)
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

func createIndex(t *testing.T, g *storage.Graph, label, property string) {
	t.Helper()
	if _, err := g.CreateIndex(label, property); err != nil {
		t.Fatalf("CreateIndex(%s, %s) error = %v", label, property, err)
	}
}

// seedPeopleAndCountries builds three people aged 24, 35 and 41 and the
// countries "A" and "B".
func seedPeopleAndCountries(t *testing.T, g *storage.Graph) {
	t.Helper()
	for _, age := range []int64{24, 35, 41} {
		addNode(t, g, []string{"person"}, map[string]any{"age": age})
	}
	for _, name := range []string{"A", "B"} {
		addNode(t, g, []string{"country"}, map[string]any{"name": name})
	}
}

func newTestExecutor(g *storage.Graph) *Executor {
	return NewExecutor(g, DefaultConfig())
}

func mustExecute(t *testing.T, e *Executor, text string) *ResultSet {
	t.Helper()
	rs, err := e.Execute(context.Background(), text)
	if err != nil {
		t.Fatalf("Execute(%q) error = %v", text, err)
	}
	return rs
}

func mustParse(t *testing.T, text string) *Query {
	t.Helper()
	q, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", text, err)
	}
	return q
}

// mustPlan plans text against the current catalog of g.
func mustPlan(t *testing.T, g *storage.Graph, text string) *Plan {
	t.Helper()
	plan, err := NewPlanner(g.Catalog(), g.Version(), nil).Plan(mustParse(t, text))
	if err != nil {
		t.Fatalf("Plan(%q) error = %v", text, err)
	}
	return plan
}

func scanKinds(p *Plan) []OpKind {
	var kinds []OpKind
	for _, s := range p.Scans() {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}
