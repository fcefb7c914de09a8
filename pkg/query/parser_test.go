package query

import (
	"errors"
	"testing"
)

// TestParser_BasicMatch tests parsing simple MATCH clauses
func TestParser_BasicMatch(t *testing.T) {
	query := mustParse(t, "MATCH (n:Person) RETURN n")

	if query.Match == nil {
		t.Fatal("Expected MATCH clause")
	}
	if len(query.Match.Patterns) != 1 {
		t.Fatalf("Expected 1 pattern, got %d", len(query.Match.Patterns))
	}

	node := query.Match.Patterns[0].Nodes[0]
	if node.Variable != "n" {
		t.Errorf("Expected variable 'n', got '%s'", node.Variable)
	}
	if len(node.Labels) != 1 || node.Labels[0] != "Person" {
		t.Errorf("Expected label 'Person', got %v", node.Labels)
	}
	if len(query.Return.Items) != 1 || query.Return.Items[0].Name() != "n" {
		t.Errorf("Expected RETURN n, got %v", query.Return.Items)
	}
}

// TestParser_MatchWithProperties tests inline property maps keep written order
func TestParser_MatchWithProperties(t *testing.T) {
	query := mustParse(t, `MATCH (n:Person {name: "Alice", age: 30, score: -1.5, tags: ["a", 1], gone: null}) RETURN n`)
	props := query.Match.Patterns[0].Nodes[0].Properties

	expected := []PropertyPair{
		{"name", "Alice"},
		{"age", int64(30)},
		{"score", -1.5},
	}
	if len(props) != 5 {
		t.Fatalf("Expected 5 properties, got %d", len(props))
	}
	for i, want := range expected {
		if props[i] != want {
			t.Errorf("property %d = %v, want %v", i, props[i], want)
		}
	}
	if list, ok := props[3].Value.([]any); !ok || len(list) != 2 {
		t.Errorf("Expected list value, got %v", props[3].Value)
	}
	if props[4].Value != nil {
		t.Errorf("Expected null, got %v", props[4].Value)
	}
}

func TestParser_MultiplePatterns(t *testing.T) {
	query := mustParse(t, "MATCH (p:person), (c:country) MATCH (:city) RETURN p, c")

	if len(query.Match.Patterns) != 3 {
		t.Fatalf("Expected 3 patterns, got %d", len(query.Match.Patterns))
	}
	if v := query.Match.Patterns[2].Nodes[0].Variable; v != "" {
		t.Errorf("Expected anonymous pattern, got %q", v)
	}
	if got := query.Match.namedVariables(); len(got) != 2 || got[0] != "p" || got[1] != "c" {
		t.Errorf("namedVariables() = %v", got)
	}
}

func TestParser_WherePrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"p.a = 1 OR p.b = 2 AND p.c = 3", "p.a = 1 OR p.b = 2 AND p.c = 3"},
		{"(p.a = 1 OR p.b = 2) AND p.c = 3", "(p.a = 1 OR p.b = 2) AND p.c = 3"},
		{"NOT p.a = 1", "NOT (p.a = 1)"},
		{"p.a + 2 * 3 > 10", "p.a + 2 * 3 > 10"},
		{"(p.a + 2) * 3 > 10", "(p.a + 2) * 3 > 10"},
		{"p.a - (p.b - p.c) = 0", "p.a - (p.b - p.c) = 0"},
		{"p.name STARTS WITH 'A'", `p.name STARTS WITH "A"`},
		{"p.name ENDS WITH 'z' OR p.name CONTAINS 'q'", `p.name ENDS WITH "z" OR p.name CONTAINS "q"`},
		{"p.x IS NULL AND p.y IS NOT NULL", "p.x IS NULL AND p.y IS NOT NULL"},
		{"p.age IN [1, 2, 3]", "p.age IN [1, 2, 3]"},
		{"p:person:employee", "p:person:employee"},
		{"toLower(p.name) = 'a'", `tolower(p.name) = "a"`},
		{"p.age > -5", "p.age > -5"},
		{"-p.age < 0", "-p.age < 0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			query := mustParse(t, "MATCH (p) WHERE "+tt.input+" RETURN p")
			if got := query.Where.Expression.String(); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestParser_NegativeLiteralFolded(t *testing.T) {
	query := mustParse(t, "MATCH (p) WHERE p.age > -5 RETURN p")
	bin := query.Where.Expression.(*BinaryExpression)
	lit, ok := bin.Right.(*LiteralExpression)
	if !ok || lit.Value != int64(-5) {
		t.Errorf("Expected literal -5, got %#v", bin.Right)
	}
}

func TestParser_ReturnClause(t *testing.T) {
	query := mustParse(t, "MATCH (p:person) RETURN DISTINCT p.age AS age, p.name ORDER BY age DESC, p.name ASC SKIP 2 LIMIT 10")

	ret := query.Return
	if !ret.Distinct {
		t.Error("Expected DISTINCT")
	}
	if len(ret.Items) != 2 || ret.Items[0].Name() != "age" || ret.Items[1].Name() != "p.name" {
		t.Errorf("unexpected items: %v, %v", ret.Items[0].Name(), ret.Items[1].Name())
	}
	if len(ret.OrderBy) != 2 || !ret.OrderBy[0].Descending || ret.OrderBy[1].Descending {
		t.Errorf("unexpected ORDER BY: %+v", ret.OrderBy)
	}
	if query.Skip != 2 || query.Limit != 10 || !query.HasLimit {
		t.Errorf("SKIP/LIMIT = %d/%d (%v)", query.Skip, query.Limit, query.HasLimit)
	}
}

func TestParser_LimitZero(t *testing.T) {
	query := mustParse(t, "MATCH (p) RETURN p LIMIT 0")
	if !query.HasLimit || query.Limit != 0 {
		t.Errorf("LIMIT 0 not recorded: %d %v", query.Limit, query.HasLimit)
	}
}

func TestParser_ReturnStar(t *testing.T) {
	query := mustParse(t, "MATCH (p), (q) RETURN *")
	if !query.Return.Star {
		t.Error("Expected RETURN *")
	}
}

func TestParser_IndexCommands(t *testing.T) {
	tests := []struct {
		input    string
		drop     bool
		label    string
		property string
	}{
		{"CREATE INDEX ON :person(age)", false, "person", "age"},
		{"drop index on :Person(name);", true, "Person", "name"},
		{"CREATE INDEX ON :order(index)", false, "order", "index"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			query := mustParse(t, tt.input)
			cmd := query.Index
			if cmd == nil {
				t.Fatal("Expected index command")
			}
			if cmd.Drop != tt.drop || cmd.Label != tt.label || cmd.Property != tt.property {
				t.Errorf("got %+v", cmd)
			}
		})
	}
}

func TestParser_ExplainProfile(t *testing.T) {
	if q := mustParse(t, "EXPLAIN MATCH (n) RETURN n"); !q.Explain || q.Profile {
		t.Errorf("EXPLAIN flags = %v/%v", q.Explain, q.Profile)
	}
	if q := mustParse(t, "PROFILE MATCH (n) RETURN n"); q.Explain || !q.Profile {
		t.Errorf("PROFILE flags = %v/%v", q.Explain, q.Profile)
	}
}

func TestParser_Relationships(t *testing.T) {
	tests := []struct {
		input     string
		direction Direction
	}{
		{"MATCH (a)-[r:KNOWS]->(b) RETURN a", DirectionOutgoing},
		{"MATCH (a)<-[:KNOWS]-(b) RETURN a", DirectionIncoming},
		{"MATCH (a)--(b) RETURN a", DirectionBoth},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			query := mustParse(t, tt.input)
			pattern := query.Match.Patterns[0]
			if len(pattern.Nodes) != 2 || len(pattern.Relationships) != 1 {
				t.Fatalf("unexpected pattern shape: %d nodes, %d rels", len(pattern.Nodes), len(pattern.Relationships))
			}
			if pattern.Relationships[0].Direction != tt.direction {
				t.Errorf("direction = %v, want %v", pattern.Relationships[0].Direction, tt.direction)
			}
		})
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing return", "MATCH (n)"},
		{"unclosed node", "MATCH (n RETURN n"},
		{"trailing tokens", "MATCH (n) RETURN n n"},
		{"negative limit", "MATCH (n) RETURN n LIMIT -1"},
		{"missing index property", "CREATE INDEX ON :person"},
		{"explain index", "EXPLAIN CREATE INDEX ON :a(b)"},
		{"duplicate map key", "MATCH (n {a: 1, a: 2}) RETURN n"},
		{"two-way arrow", "MATCH (a)<-[:R]->(b) RETURN a"},
		{"is without null", "MATCH (n) WHERE n.a IS 1 RETURN n"},
		{"dangling operator", "MATCH (n) WHERE n.a = RETURN n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Errorf("Parse(%q) error = %v, want *SyntaxError", tt.input, err)
			}
		})
	}
}
