package storage

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestIndexInvariants checks the ordered index against a brute-force scan.
func TestIndexInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	build := func(values []int64) (*Graph, *Index) {
		g := NewGraph()
		g.Update(func(tx *Tx) error {
			for _, v := range values {
				if _, err := tx.CreateNode([]string{"n"}, map[string]Value{"v": IntValue(v)}); err != nil {
					return err
				}
			}
			_, err := tx.CreateIndex("n", "v")
			return err
		})
		idx, _ := g.Catalog().Lookup("n", "v")
		return g, idx
	}

	properties.Property("range scan matches brute force", prop.ForAll(
		func(values []int64, lo, hi int64, loIncl, hiIncl bool) bool {
			g, idx := build(values)
			defer g.Close()

			r := Range{
				Lower: &Bound{Value: IntValue(lo), Inclusive: loIncl},
				Upper: &Bound{Value: IntValue(hi), Inclusive: hiIncl},
			}
			got := scanIDs(idx.Scan(r))

			snap := g.Snapshot()
			defer snap.Release()
			var want []uint64
			for _, id := range snap.LabelNodeIDs("n") {
				n, _ := snap.Node(id)
				if r.Contains(n.Property("v")) {
					want = append(want, id)
				}
			}
			if len(got) != len(want) {
				return false
			}
			seen := map[uint64]bool{}
			for _, id := range got {
				seen[id] = true
			}
			for _, id := range want {
				if !seen[id] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(-50, 50)),
		gen.Int64Range(-60, 60),
		gen.Int64Range(-60, 60),
		gen.Bool(),
		gen.Bool(),
	))

	properties.Property("scan is ordered by value then node id", prop.ForAll(
		func(values []int64, lo int64) bool {
			g, idx := build(values)
			defer g.Close()

			it := idx.Scan(GreaterOrEqual(IntValue(lo)))
			var prevV int64
			var prevID uint64
			first := true
			for {
				id, v, ok := it.Next()
				if !ok {
					return true
				}
				cur, _ := v.AsInt()
				if !first && (cur < prevV || (cur == prevV && id <= prevID)) {
					return false
				}
				prevV, prevID, first = cur, id, false
			}
		},
		gen.SliceOf(gen.Int64Range(-10, 10)),
		gen.Int64Range(-12, 12),
	))

	properties.Property("every labelled node with the property is indexed once", prop.ForAll(
		func(values []int64, deletes []int) bool {
			g, _ := build(values)
			defer g.Close()

			snap := g.Snapshot()
			ids := append([]uint64(nil), snap.LabelNodeIDs("n")...)
			snap.Release()
			for _, d := range deletes {
				if len(ids) == 0 {
					break
				}
				i := d % len(ids)
				g.DeleteNode(ids[i])
				ids = append(ids[:i], ids[i+1:]...)
			}

			idx, _ := g.Catalog().Lookup("n", "v")
			return idx.Len() == len(ids) && len(scanIDs(idx.Scan(Range{}))) == len(ids)
		},
		gen.SliceOf(gen.Int64Range(-5, 5)),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.Property("mixed ints and floats above 2^53 scan like brute force", prop.ForAll(
		func(offsets []int64, floats []bool, lo int64, loFloat, loIncl bool) bool {
			const base = int64(1) << 53
			mixed := func(off int64, asFloat bool) Value {
				if asFloat {
					return FloatValue(float64(base + off))
				}
				return IntValue(base + off)
			}

			g := NewGraph()
			defer g.Close()
			g.Update(func(tx *Tx) error {
				for i, off := range offsets {
					asFloat := i < len(floats) && floats[i]
					if _, err := tx.CreateNode([]string{"n"}, map[string]Value{"v": mixed(off, asFloat)}); err != nil {
						return err
					}
				}
				_, err := tx.CreateIndex("n", "v")
				return err
			})
			idx, _ := g.Catalog().Lookup("n", "v")

			r := Range{Lower: &Bound{Value: mixed(lo, loFloat), Inclusive: loIncl}}
			got := scanIDs(idx.Scan(r))

			snap := g.Snapshot()
			defer snap.Release()
			want := 0
			for _, id := range snap.LabelNodeIDs("n") {
				n, _ := snap.Node(id)
				if r.Contains(n.Property("v")) {
					want++
				}
			}
			return len(got) == want
		},
		gen.SliceOf(gen.Int64Range(-4, 4)),
		gen.SliceOf(gen.Bool()),
		gen.Int64Range(-5, 5),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
