package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	dto "github.com/prometheus/client_model/go"

	"github.com/dd0wney/graphplan/pkg/metrics"
	"github.com/dd0wney/graphplan/pkg/query"
	"github.com/dd0wney/graphplan/pkg/storage"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// renderResult formats a result set. EXPLAIN and PROFILE print the plan
// text instead of a table.
func renderResult(rs *query.ResultSet) string {
	var sb strings.Builder

	switch {
	case rs.Plan != "":
		sb.WriteString(rs.Plan)
		sb.WriteString("\n")
		if len(rs.Profile) == 0 {
			return strings.TrimRight(sb.String(), "\n")
		}
	case len(rs.Columns) == 0:
		sb.WriteString(summaryStyle.Render(indexSummary(rs.Stats)))
		return sb.String()
	}

	t := newTable(rs.Columns...)
	for _, row := range rs.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = query.FormatValue(v)
		}
		t.Row(cells...)
	}
	sb.WriteString(t.Render())
	sb.WriteString("\n")

	summary := fmt.Sprintf("%d rows, %d nodes scanned, %s", rs.Count, rs.Stats.NodesScanned, rs.Stats.ExecutionTime)
	if rs.Truncated {
		summary += " (truncated)"
	}
	sb.WriteString(summaryStyle.Render(summary))
	return sb.String()
}

func indexSummary(s query.QueryStats) string {
	switch {
	case s.IndexesCreated > 0:
		return fmt.Sprintf("%d index created", s.IndexesCreated)
	case s.IndexesDropped > 0:
		return fmt.Sprintf("%d index dropped", s.IndexesDropped)
	default:
		return "no changes"
	}
}

func renderIndexes(c *storage.Catalog) string {
	keys := c.Keys()
	if len(keys) == 0 {
		return summaryStyle.Render("no indexes")
	}
	t := newTable("label", "property", "entries")
	for _, k := range keys {
		idx, _ := c.Lookup(k.Label, k.Property)
		t.Row(k.Label, k.Property, fmt.Sprint(idx.Len()))
	}
	return t.Render()
}

// renderStats shows the graph summary followed by the query and scan
// counters gathered from reg. reg is nil when metrics are disabled.
func renderStats(g *storage.Graph, reg *metrics.Registry) string {
	t := newTable("metric", "value")
	t.Row("nodes", fmt.Sprint(g.NodeCount()))
	t.Row("indexes", fmt.Sprint(g.Catalog().Len()))
	t.Row("version", fmt.Sprint(g.Version()))
	t.Row("active snapshots", fmt.Sprint(g.ActiveSnapshots()))
	if reg == nil {
		return t.Render()
	}
	return t.Render() + "\n" + renderMetrics(reg)
}

// statsSeries are the families shown by stats, in display order.
var statsSeries = []string{
	"graphplan_queries_total",
	"graphplan_slow_queries_total",
	"graphplan_scans_total",
	"graphplan_nodes_scanned_total",
	"graphplan_parse_cache_hits_total",
	"graphplan_parse_cache_misses_total",
}

func renderMetrics(reg *metrics.Registry) string {
	families, err := reg.GetPrometheusRegistry().Gather()
	if err != nil {
		return errorStyle.Render("error: gather metrics: " + err.Error())
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	t := newTable("series", "labels", "value")
	for _, name := range statsSeries {
		mf, ok := byName[name]
		if !ok {
			continue
		}
		for _, m := range mf.GetMetric() {
			t.Row(strings.TrimPrefix(name, "graphplan_"), metricLabels(m), formatCounter(m))
		}
	}
	return t.Render()
}

func metricLabels(m *dto.Metric) string {
	pairs := make([]string, 0, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		pairs = append(pairs, lp.GetName()+"="+lp.GetValue())
	}
	return strings.Join(pairs, " ")
}

func formatCounter(m *dto.Metric) string {
	return strconv.FormatFloat(m.GetCounter().GetValue(), 'f', -1, 64)
}

func renderTopQueries(stats []query.QueryStatistics) string {
	if len(stats) == 0 {
		return summaryStyle.Render("no queries yet")
	}
	t := newTable("count", "avg", "query")
	for _, s := range stats {
		t.Row(fmt.Sprint(s.ExecutionCount), s.AvgExecutionTime.String(), s.QueryText)
	}
	return t.Render()
}
