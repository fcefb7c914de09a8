package query

import (
	"sort"

	"github.com/dd0wney/graphplan/pkg/storage"
)

// sortValue is the ordering key of expr. A bare node variable orders by
// node ID.
func (ev *evaluator) sortValue(expr Expression, rec Record) storage.Value {
	if v, ok := expr.(*VariableExpression); ok {
		if n := ev.node(rec, v.Name); n != nil {
			return storage.IntValue(int64(n.ID))
		}
		return storage.Null
	}
	return ev.eval(expr, rec)
}

// compareSortKeys orders two key tuples with storage.TotalCompare, so nulls
// come last ascending and first descending.
func compareSortKeys(a, b []storage.Value, keys []SortKey) int {
	for i, k := range keys {
		c := storage.TotalCompare(a[i], b[i])
		if k.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// sortRecords stable-sorts records; equal keys keep their input order.
func sortRecords(ev *evaluator, recs []Record, keys []SortKey) []Record {
	type keyed struct {
		rec  Record
		vals []storage.Value
	}
	items := make([]keyed, len(recs))
	for i, rec := range recs {
		vals := make([]storage.Value, len(keys))
		for j, k := range keys {
			vals[j] = ev.sortValue(k.Expression, rec)
		}
		items[i] = keyed{rec: rec, vals: vals}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return compareSortKeys(items[i].vals, items[j].vals, keys) < 0
	})

	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}
