package query

import (
	"fmt"
	"time"

	"github.com/dd0wney/graphplan/pkg/storage"
)

// ResultSet is the outcome of one statement.
type ResultSet struct {
	QueryID string
	Columns []string
	Rows    [][]any
	Count   int
	// Truncated is set when rows were dropped to respect the configured
	// maximum result set size.
	Truncated bool

	// Plan holds the rendered plan for EXPLAIN and PROFILE.
	Plan    string
	Profile []OperatorProfile
	Stats   QueryStats
}

// QueryStats summarizes the work done by a statement.
type QueryStats struct {
	NodesScanned   int
	IndexesCreated int
	IndexesDropped int
	ExecutionTime  time.Duration
}

// Column returns the position of a column, or -1.
func (rs *ResultSet) Column(name string) int {
	for i, c := range rs.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Values returns one column across all rows.
func (rs *ResultSet) Values(name string) []any {
	col := rs.Column(name)
	if col < 0 {
		return nil
	}
	out := make([]any, len(rs.Rows))
	for i, row := range rs.Rows {
		out[i] = row[col]
	}
	return out
}

// FormatValue renders a result cell for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case *storage.Node:
		return fmt.Sprintf("(#%d%s)", x.ID, labelSuffix(x.Labels))
	case string:
		return x
	case float64:
		return storage.FloatValue(x).String()
	}
	return fmt.Sprint(v)
}

func labelSuffix(labels []string) string {
	s := ""
	for _, l := range labels {
		s += ":" + l
	}
	return s
}
