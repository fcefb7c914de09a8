package storage

import (
	"fmt"
	"strings"
)

// Bound is one end of a Range.
type Bound struct {
	Value     Value
	Inclusive bool
}

// Range is an interval over one value family. A nil side is unbounded.
// A Range built from conflicting bounds (different value families) is empty.
type Range struct {
	Lower    *Bound
	Upper    *Bound
	conflict bool
}

func Equals(v Value) Range {
	return Range{Lower: &Bound{Value: v, Inclusive: true}, Upper: &Bound{Value: v, Inclusive: true}}
}

func GreaterThan(v Value) Range {
	return Range{Lower: &Bound{Value: v}}
}

func GreaterOrEqual(v Value) Range {
	return Range{Lower: &Bound{Value: v, Inclusive: true}}
}

func LessThan(v Value) Range {
	return Range{Upper: &Bound{Value: v}}
}

func LessOrEqual(v Value) Range {
	return Range{Upper: &Bound{Value: v, Inclusive: true}}
}

// Intersect returns the tightest range satisfying both r and o.
func (r Range) Intersect(o Range) Range {
	out := Range{conflict: r.conflict || o.conflict}
	out.Lower = tighter(r.Lower, o.Lower, 1, &out.conflict)
	out.Upper = tighter(r.Upper, o.Upper, -1, &out.conflict)
	return out
}

// tighter keeps the more restrictive of two bounds on the same side.
// dir is 1 for lower bounds (larger wins) and -1 for upper bounds.
func tighter(a, b *Bound, dir int, conflict *bool) *Bound {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	c, ok := Compare(a.Value, b.Value)
	if !ok {
		*conflict = true
		return a
	}
	switch {
	case c*dir > 0:
		return a
	case c*dir < 0:
		return b
	case !a.Inclusive:
		return a
	default:
		return b
	}
}

// Empty reports whether no value can satisfy the range.
func (r Range) Empty() bool {
	if r.conflict {
		return true
	}
	for _, b := range []*Bound{r.Lower, r.Upper} {
		if b != nil && b.Value.IsNull() {
			return true
		}
	}
	if r.Lower == nil || r.Upper == nil {
		return false
	}
	c, ok := Compare(r.Lower.Value, r.Upper.Value)
	if !ok {
		return true
	}
	return c > 0 || (c == 0 && !(r.Lower.Inclusive && r.Upper.Inclusive))
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v Value) bool {
	if r.Empty() {
		return false
	}
	if r.Lower != nil {
		c, ok := Compare(v, r.Lower.Value)
		if !ok || c < 0 || (c == 0 && !r.Lower.Inclusive) {
			return false
		}
	}
	if r.Upper != nil {
		c, ok := Compare(v, r.Upper.Value)
		if !ok || c > 0 || (c == 0 && !r.Upper.Inclusive) {
			return false
		}
	}
	return true
}

// Format renders the range against a property reference, e.g. "p.age > 0".
func (r Range) Format(ref string) string {
	if r.Empty() {
		return fmt.Sprintf("%s in empty range", ref)
	}
	if r.Lower != nil && r.Upper != nil && r.Lower.Inclusive && r.Upper.Inclusive && Equal(r.Lower.Value, r.Upper.Value) {
		return fmt.Sprintf("%s = %s", ref, r.Lower.Value)
	}
	var parts []string
	if r.Lower != nil {
		op := ">"
		if r.Lower.Inclusive {
			op = ">="
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", ref, op, r.Lower.Value))
	}
	if r.Upper != nil {
		op := "<"
		if r.Upper.Inclusive {
			op = "<="
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", ref, op, r.Upper.Value))
	}
	if len(parts) == 0 {
		return ref + " unbounded"
	}
	return strings.Join(parts, " AND ")
}

func (r Range) String() string {
	return r.Format("value")
}
