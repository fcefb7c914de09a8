package query

import (
	"fmt"
	"strings"
)

// Query is a parsed statement: a read query or an index command.
type Query struct {
	Explain bool
	Profile bool

	Match  *MatchClause
	Where  *WhereClause
	Return *ReturnClause
	Skip   int
	Limit  int
	// HasLimit distinguishes LIMIT 0 from no LIMIT
	HasLimit bool

	Index *IndexCommand
}

// MatchClause holds the comma-separated patterns of a MATCH
type MatchClause struct {
	Patterns []*Pattern
}

// Pattern is a chain of node patterns joined by relationships
type Pattern struct {
	Nodes         []*NodePattern
	Relationships []*RelationshipPattern
}

// NodePattern represents (variable:Label {key: value})
type NodePattern struct {
	Variable   string
	Labels     []string
	Properties []PropertyPair
}

// PropertyPair is one entry of an inline property map, kept in written order.
type PropertyPair struct {
	Key   string
	Value any
}

// RelationshipPattern represents -[variable:TYPE]->
type RelationshipPattern struct {
	Variable  string
	Type      string
	Direction Direction
}

// Direction of a relationship pattern
type Direction int

const (
	DirectionOutgoing Direction = iota
	DirectionIncoming
	DirectionBoth
)

// WhereClause represents a WHERE predicate
type WhereClause struct {
	Expression Expression
}

// ReturnClause represents RETURN items and ordering
type ReturnClause struct {
	Distinct bool
	// Star is RETURN *, every named pattern variable in declaration order
	Star    bool
	Items   []*ReturnItem
	OrderBy []*OrderByItem
}

// ReturnItem is a projected expression with an optional alias
type ReturnItem struct {
	Expression Expression
	Alias      string
}

// Name is the column heading of the item.
func (r *ReturnItem) Name() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Expression.String()
}

// OrderByItem represents one ORDER BY key
type OrderByItem struct {
	Expression Expression
	Descending bool
}

// IndexCommand is CREATE INDEX ON :Label(property) or its DROP form
type IndexCommand struct {
	Drop     bool
	Label    string
	Property string
}

func (c *IndexCommand) String() string {
	verb := "CREATE"
	if c.Drop {
		verb = "DROP"
	}
	return fmt.Sprintf("%s INDEX ON :%s(%s)", verb, c.Label, c.Property)
}

// namedVariables lists pattern variables in declaration order.
func (m *MatchClause) namedVariables() []string {
	var out []string
	for _, p := range m.Patterns {
		for _, n := range p.Nodes {
			if n.Variable != "" {
				out = append(out, n.Variable)
			}
		}
	}
	return out
}

func (n *NodePattern) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(n.Variable)
	for _, l := range n.Labels {
		sb.WriteByte(':')
		sb.WriteString(l)
	}
	if len(n.Properties) > 0 {
		parts := make([]string, len(n.Properties))
		for i, p := range n.Properties {
			parts[i] = fmt.Sprintf("%s: %s", p.Key, formatLiteral(p.Value))
		}
		sb.WriteString(" {" + strings.Join(parts, ", ") + "}")
	}
	sb.WriteByte(')')
	return sb.String()
}
