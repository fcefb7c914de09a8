package storage

import (
	"testing"
)

func TestRangeEmpty(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		want bool
	}{
		{"half open", GreaterThan(IntValue(0)), false},
		{"point", Equals(IntValue(5)), false},
		{"interval", GreaterThan(IntValue(1)).Intersect(LessThan(IntValue(5))), false},
		{"inverted", GreaterThan(IntValue(5)).Intersect(LessThan(IntValue(3))), true},
		{"touching exclusive", GreaterThan(IntValue(5)).Intersect(LessOrEqual(IntValue(5))), true},
		{"touching inclusive", GreaterOrEqual(IntValue(5)).Intersect(LessOrEqual(IntValue(5))), false},
		{"two different points", Equals(IntValue(35)).Intersect(Equals(IntValue(36))), true},
		{"mixed families", GreaterThan(IntValue(3)).Intersect(LessThan(StringValue("x"))), true},
		{"same side mixed families", GreaterThan(IntValue(3)).Intersect(GreaterThan(StringValue("x"))), true},
		{"null bound", GreaterThan(Null), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v for %s", got, tt.want, tt.r)
			}
		})
	}
}

func TestRangeIntersectPicksTightest(t *testing.T) {
	r := GreaterThan(IntValue(1)).
		Intersect(GreaterOrEqual(IntValue(3))).
		Intersect(LessThan(IntValue(10))).
		Intersect(LessOrEqual(IntValue(10)))

	if r.Lower == nil || !Equal(r.Lower.Value, IntValue(3)) || !r.Lower.Inclusive {
		t.Errorf("lower = %+v, want >= 3", r.Lower)
	}
	if r.Upper == nil || !Equal(r.Upper.Value, IntValue(10)) || r.Upper.Inclusive {
		t.Errorf("upper = %+v, want < 10", r.Upper)
	}

	r = GreaterOrEqual(IntValue(3)).Intersect(GreaterThan(IntValue(3)))
	if r.Lower.Inclusive {
		t.Error("strict bound should win over inclusive bound on the same value")
	}
}

func TestRangeContains(t *testing.T) {
	r := GreaterThan(IntValue(0)).Intersect(LessOrEqual(FloatValue(35)))

	tests := []struct {
		v    Value
		want bool
	}{
		{IntValue(0), false},
		{IntValue(1), true},
		{IntValue(35), true},
		{FloatValue(35.1), false},
		{StringValue("10"), false},
		{Null, false},
	}

	for _, tt := range tests {
		if got := r.Contains(tt.v); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestRangeFormat(t *testing.T) {
	tests := []struct {
		r    Range
		want string
	}{
		{GreaterThan(IntValue(0)), "p.age > 0"},
		{Equals(StringValue("A")), `p.age = "A"`},
		{GreaterOrEqual(IntValue(1)).Intersect(LessThan(IntValue(9))), "p.age >= 1 AND p.age < 9"},
		{GreaterThan(IntValue(9)).Intersect(LessThan(IntValue(1))), "p.age in empty range"},
	}

	for _, tt := range tests {
		if got := tt.r.Format("p.age"); got != tt.want {
			t.Errorf("Format() = %q, want %q", got, tt.want)
		}
	}
}
