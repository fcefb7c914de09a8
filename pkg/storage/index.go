package storage

import (
	"sort"
)

type indexEntry struct {
	value Value
	id    uint64
}

func compareEntries(a, b indexEntry) int {
	if c, _ := Compare(a.value, b.value); c != 0 {
		return c
	}
	return cmpOrdered(a.id, b.id)
}

// Index is an immutable ordered index over one (label, property) pair.
// Entries are partitioned by value family the way numbers and strings are
// kept in separate ordered structures; each partition is sorted by value
// and then by node ID. Mutations produce a new Index.
type Index struct {
	key        IndexKey
	partitions [familyNull][]indexEntry
}

func newIndex(key IndexKey) *Index {
	return &Index{key: key}
}

// buildIndex indexes every node that carries the label and a non-null value.
func buildIndex(key IndexKey, nodes map[uint64]*Node, ids []uint64) *Index {
	idx := newIndex(key)
	for _, id := range ids {
		n := nodes[id]
		if n == nil || !n.HasLabel(key.Label) {
			continue
		}
		v := n.Property(key.Property)
		if v.IsNull() {
			continue
		}
		f := v.family()
		idx.partitions[f] = append(idx.partitions[f], indexEntry{value: v, id: id})
	}
	for f := range idx.partitions {
		p := idx.partitions[f]
		sort.Slice(p, func(i, j int) bool { return compareEntries(p[i], p[j]) < 0 })
	}
	return idx
}

// Key returns the (label, property) pair the index covers.
func (idx *Index) Key() IndexKey {
	return idx.key
}

// Len returns the number of indexed nodes.
func (idx *Index) Len() int {
	n := 0
	for _, p := range idx.partitions {
		n += len(p)
	}
	return n
}

// withChanges returns a copy with the given node IDs removed and entries added.
func (idx *Index) withChanges(removed map[uint64]struct{}, added []indexEntry) *Index {
	out := newIndex(idx.key)
	var adds [familyNull][]indexEntry
	for _, e := range added {
		f := e.value.family()
		adds[f] = append(adds[f], e)
	}
	for f, p := range idx.partitions {
		if len(removed) == 0 && len(adds[f]) == 0 {
			out.partitions[f] = p
			continue
		}
		next := make([]indexEntry, 0, len(p)+len(adds[f]))
		for _, e := range p {
			if _, gone := removed[e.id]; !gone {
				next = append(next, e)
			}
		}
		if len(adds[f]) > 0 {
			next = append(next, adds[f]...)
			sort.Slice(next, func(i, j int) bool { return compareEntries(next[i], next[j]) < 0 })
		}
		out.partitions[f] = next
	}
	return out
}

// Scan returns a lazy iterator over the entries inside r, ascending by value
// and then by node ID. An empty range yields an exhausted iterator.
func (idx *Index) Scan(r Range) *IndexIterator {
	if r.Empty() {
		return &IndexIterator{}
	}
	var bound *Bound
	switch {
	case r.Lower != nil:
		bound = r.Lower
	case r.Upper != nil:
		bound = r.Upper
	}
	if bound == nil {
		// unbounded: every partition in total order
		var all []indexEntry
		for _, p := range idx.partitions {
			all = append(all, p...)
		}
		return &IndexIterator{entries: all, end: len(all)}
	}

	p := idx.partitions[bound.Value.family()]
	start := 0
	if r.Lower != nil {
		start = sort.Search(len(p), func(i int) bool {
			c, _ := Compare(p[i].value, r.Lower.Value)
			return c > 0 || (c == 0 && r.Lower.Inclusive)
		})
	}
	end := len(p)
	if r.Upper != nil {
		end = sort.Search(len(p), func(i int) bool {
			c, _ := Compare(p[i].value, r.Upper.Value)
			return c > 0 || (c == 0 && !r.Upper.Inclusive)
		})
	}
	if end < start {
		end = start
	}
	return &IndexIterator{entries: p, pos: start, end: end}
}

// IndexIterator walks a contiguous run of index entries. It is not safe
// for concurrent use; the underlying entries are immutable.
type IndexIterator struct {
	entries []indexEntry
	pos     int
	end     int
}

// Next returns the next node ID and its indexed value.
func (it *IndexIterator) Next() (uint64, Value, bool) {
	if it.pos >= it.end {
		return 0, Null, false
	}
	e := it.entries[it.pos]
	it.pos++
	return e.id, e.value, true
}
