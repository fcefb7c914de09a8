package storage

import (
	"bytes"
	"math"

	"golang.org/x/exp/constraints"
)

// family groups value types that are comparable with each other.
type family int

const (
	familyBool family = iota
	familyNumeric
	familyString
	familyNull
)

func (v Value) family() family {
	switch v.Type {
	case TypeBool:
		return familyBool
	case TypeInt, TypeFloat:
		return familyNumeric
	case TypeString:
		return familyString
	default:
		return familyNull
	}
}

func cmpOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareNumeric compares ints and floats by numeric value. Mixed pairs are
// compared exactly, without rounding the int through float64.
func compareNumeric(a, b Value) int {
	switch {
	case a.Type == TypeInt && b.Type == TypeInt:
		x, _ := a.AsInt()
		y, _ := b.AsInt()
		return cmpOrdered(x, y)
	case a.Type == TypeInt:
		x, _ := a.AsInt()
		y, _ := b.AsFloat()
		return compareIntFloat(x, y)
	case b.Type == TypeInt:
		x, _ := a.AsFloat()
		y, _ := b.AsInt()
		return -compareIntFloat(y, x)
	}
	x, _ := a.AsFloat()
	y, _ := b.AsFloat()
	if math.IsNaN(x) || math.IsNaN(y) {
		// NaN sorts above every number
		return cmpOrdered(boolRank(math.IsNaN(x)), boolRank(math.IsNaN(y)))
	}
	return cmpOrdered(x, y)
}

// compareIntFloat orders i against f exactly. NaN sorts above every number.
func compareIntFloat(i int64, f float64) int {
	switch {
	case math.IsNaN(f):
		return -1
	case f >= math.MaxInt64:
		// float64(MaxInt64) rounds up to 2^63, above every int64
		return -1
	case f < math.MinInt64:
		return 1
	}
	whole := math.Floor(f)
	if c := cmpOrdered(i, int64(whole)); c != 0 {
		return c
	}
	if f > whole {
		return -1
	}
	return 0
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compare orders two values of the same family. ok is false when the values
// are not comparable (different families, or either is null); predicates
// over such pairs are false.
func Compare(a, b Value) (c int, ok bool) {
	fa, fb := a.family(), b.family()
	if fa != fb || fa == familyNull {
		return 0, false
	}
	switch fa {
	case familyBool:
		return cmpOrdered(boolRank(a.Data[0] == 1), boolRank(b.Data[0] == 1)), true
	case familyNumeric:
		return compareNumeric(a, b), true
	default:
		return bytes.Compare(a.Data, b.Data), true
	}
}

// Equal reports value equality with numeric coercion. Null equals nothing.
func Equal(a, b Value) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}

// TotalCompare is the ordering used by ORDER BY: bool < numeric < string,
// null after everything else.
func TotalCompare(a, b Value) int {
	fa, fb := a.family(), b.family()
	if fa != fb {
		return cmpOrdered(fa, fb)
	}
	if fa == familyNull {
		return 0
	}
	c, _ := Compare(a, b)
	return c
}
