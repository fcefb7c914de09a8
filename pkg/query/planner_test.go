package query

import (
	"errors"
	"strings"
	"testing"
)

func TestPlanner_AccessPaths(t *testing.T) {
	g := newTestGraph(t)
	createIndex(t, g, "person", "age")
	createIndex(t, g, "employee", "name")

	tests := []struct {
		name   string
		query  string
		scans  []OpKind
		detail []string
	}{
		{
			"index scan on range",
			"MATCH (p:person) WHERE p.age > 0 RETURN p",
			[]OpKind{OpIndexScan},
			[]string{"(p:person) p.age > 0"},
		},
		{
			"label scan without predicate",
			"MATCH (p:person) RETURN p",
			[]OpKind{OpLabelScan},
			[]string{"(p:person)"},
		},
		{
			"label scan without index",
			"MATCH (c:country) WHERE c.name = 'A' RETURN c",
			[]OpKind{OpLabelScan},
			[]string{"(c:country)"},
		},
		{
			"all node scan",
			"MATCH (n) WHERE n.age > 1 RETURN n",
			[]OpKind{OpAllNodeScan},
			[]string{"(n)"},
		},
		{
			"inline property map",
			"MATCH (p:person {age: 35}) RETURN p",
			[]OpKind{OpIndexScan},
			[]string{"(p:person) p.age = 35"},
		},
		{
			"empty range",
			"MATCH (p:person) WHERE p.age > 9 AND p.age < 1 RETURN p",
			[]OpKind{OpEmptyScan},
			[]string{"(p:person) p.age in empty range"},
		},
		{
			"second label has the index",
			"MATCH (p:manager:employee) WHERE p.name = 'x' RETURN p",
			[]OpKind{OpIndexScan},
			[]string{`(p:employee) p.name = "x"`},
		},
		{
			"first label wins",
			"MATCH (p:person:employee) WHERE p.name = 'x' AND p.age = 3 RETURN p",
			[]OpKind{OpIndexScan},
			[]string{"(p:person) p.age = 3"},
		},
		{
			"mirrored comparison",
			"MATCH (p:person) WHERE 30 <= p.age RETURN p",
			[]OpKind{OpIndexScan},
			[]string{"(p:person) p.age >= 30"},
		},
		{
			"product of mixed paths",
			"MATCH (p:person), (c:country), (n) WHERE p.age > 0 RETURN p, c, n",
			[]OpKind{OpIndexScan, OpLabelScan, OpAllNodeScan},
			[]string{"(p:person) p.age > 0", "(c:country)", "(n)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := mustPlan(t, g, tt.query)
			scans := plan.Scans()
			if len(scans) != len(tt.scans) {
				t.Fatalf("got %d scans, want %d\n%s", len(scans), len(tt.scans), plan)
			}
			for i, s := range scans {
				if s.Kind != tt.scans[i] {
					t.Errorf("scan %d = %s, want %s", i, s.Kind, tt.scans[i])
				}
				if s.Detail() != tt.detail[i] {
					t.Errorf("scan %d detail = %q, want %q", i, s.Detail(), tt.detail[i])
				}
			}
		})
	}
}

func TestPlanner_PlanText(t *testing.T) {
	g := newTestGraph(t)
	createIndex(t, g, "person", "age")

	plan := mustPlan(t, g, "MATCH (p:person), (c:country) WHERE p.age > 0 RETURN p.age, c.name ORDER BY p.age, c.name")
	expected := strings.Join([]string{
		"Results",
		"    Project | p.age, c.name",
		"        Sort | p.age, c.name",
		"            Cartesian Product",
		"                Index Scan | (p:person) p.age > 0",
		"                Label Scan | (c:country)",
	}, "\n")
	if got := plan.String(); got != expected {
		t.Errorf("plan text:\n%s\nwant:\n%s", got, expected)
	}

	for _, literal := range []string{"Index Scan", "Label Scan", "Cartesian Product"} {
		if !strings.Contains(plan.String(), literal) {
			t.Errorf("plan text lacks %q", literal)
		}
	}
	if got := plan.Columns; len(got) != 2 || got[0] != "p.age" || got[1] != "c.name" {
		t.Errorf("columns = %v", got)
	}
}

func TestPlanner_FilterPlacement(t *testing.T) {
	g := newTestGraph(t)
	createIndex(t, g, "a", "x")

	plan := mustPlan(t, g, `MATCH (a:a), (b:b), (c:c)
		WHERE a.x > 1 AND a.y = 2 AND b.z = 3 AND a.x < b.z AND c.w = a.x AND 1 = 1
		RETURN a, b, c`)

	expected := strings.Join([]string{
		"Results",
		"    Project | a, b, c",
		"        Filter | 1 = 1",
		"            Filter | c.w = a.x",
		"                Cartesian Product",
		"                    Filter | a.x < b.z",
		"                        Cartesian Product",
		"                            Filter | a.y = 2",
		"                                Index Scan | (a:a) a.x > 1",
		"                            Filter | b.z = 3",
		"                                Label Scan | (b:b)",
		"                    Label Scan | (c:c)",
	}, "\n")
	if got := plan.String(); got != expected {
		t.Errorf("plan text:\n%s\nwant:\n%s", got, expected)
	}
}

func TestPlanner_ExtraLabelsBecomeResidual(t *testing.T) {
	g := newTestGraph(t)

	plan := mustPlan(t, g, "MATCH (p:person:employee:admin) RETURN p")
	filters := plan.Find(OpFilter)
	if len(filters) != 1 {
		t.Fatalf("expected one filter:\n%s", plan)
	}
	if got := filters[0].Predicate.String(); got != "p:employee:admin" {
		t.Errorf("label residual = %s", got)
	}
	if scans := plan.Scans(); scans[0].Kind != OpLabelScan || scans[0].Label != "person" {
		t.Errorf("expected Label Scan on person:\n%s", plan)
	}
}

func TestPlanner_TrailingOperators(t *testing.T) {
	g := newTestGraph(t)

	plan := mustPlan(t, g, "MATCH (p:person) RETURN DISTINCT p.age AS age ORDER BY age DESC SKIP 1 LIMIT 2")
	var kinds []string
	plan.Walk(func(n *PlanNode, _ int) { kinds = append(kinds, n.Kind.String()) })

	expected := []string{"Results", "Limit", "Skip", "Distinct", "Project", "Sort", "Label Scan"}
	if strings.Join(kinds, ",") != strings.Join(expected, ",") {
		t.Errorf("operators = %v, want %v", kinds, expected)
	}

	sorts := plan.Find(OpSort)
	if got := sorts[0].Detail(); got != "p.age DESC" {
		t.Errorf("alias not resolved in sort key: %s", got)
	}
}

func TestPlanner_AnonymousPatterns(t *testing.T) {
	g := newTestGraph(t)

	plan := mustPlan(t, g, "MATCH (:person), (c:country) RETURN c")
	if len(plan.Slots) != 2 {
		t.Fatalf("slots = %v", plan.Slots)
	}
	if _, ok := plan.Slots["c"]; !ok {
		t.Error("named variable missing from slots")
	}
	if plan.Slots["c"] != 1 {
		t.Errorf("slot of c = %d, want 1", plan.Slots["c"])
	}
}

func TestPlanner_UsesItsOwnCatalog(t *testing.T) {
	g := newTestGraph(t)
	before := g.Catalog()
	createIndex(t, g, "person", "age")

	q := mustParse(t, "MATCH (p:person) WHERE p.age > 1 RETURN p")

	plan, err := NewPlanner(before, 0, nil).Plan(q)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if kinds := scanKinds(plan); kinds[0] != OpLabelScan {
		t.Errorf("planner saw an index added after its catalog: %v", kinds)
	}

	plan, err = NewPlanner(g.Catalog(), g.Version(), nil).Plan(q)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if kinds := scanKinds(plan); kinds[0] != OpIndexScan {
		t.Errorf("expected Index Scan with current catalog: %v", kinds)
	}
}

func TestPlanner_Errors(t *testing.T) {
	g := newTestGraph(t)

	tests := []struct {
		name  string
		query string
		err   error
	}{
		{"undefined in where", "MATCH (p) WHERE q.age > 1 RETURN p", ErrUndefinedVariable},
		{"undefined in return", "MATCH (p) RETURN q.age", ErrUndefinedVariable},
		{"duplicate variable", "MATCH (p:a), (p:b) RETURN p", ErrDuplicateVariable},
		{"relationship", "MATCH (a)-[:R]->(b) RETURN a", ErrUnsupportedPattern},
		{"unknown sort key", "MATCH (p) RETURN p.age AS age ORDER BY years", ErrUnknownSortKey},
		{"unknown sort variable", "MATCH (p) RETURN p ORDER BY q.age", ErrUnknownSortKey},
		{"duplicate column", "MATCH (p) RETURN p.age, p.age", ErrInvalidQuery},
		{"star without names", "MATCH (:person) RETURN *", ErrInvalidQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlanner(g.Catalog(), g.Version(), nil).Plan(mustParse(t, tt.query))
			if !errors.Is(err, tt.err) {
				t.Errorf("Plan() error = %v, want %v", err, tt.err)
			}
		})
	}
}
