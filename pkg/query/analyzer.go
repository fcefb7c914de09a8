package query

import (
	"github.com/dd0wney/graphplan/pkg/storage"
)

// Analysis is the result of turning the predicates on one node property into
// an index range. Absorbed predicates are answered by the range; Residual
// ones must still be checked by a Filter.
type Analysis struct {
	Range    storage.Range
	Ranged   bool
	Absorbed []Expression
	Residual []Expression
}

// Empty reports whether the absorbed predicates can never hold together.
func (a Analysis) Empty() bool {
	return a.Ranged && a.Range.Empty()
}

// Analyze converts the comparisons on variable.property into one range,
// intersecting them so the tightest bounds win. Anything it cannot convert
// is returned as residual. It never fails.
func Analyze(variable, property string, predicates []Expression) Analysis {
	var a Analysis
	for _, pred := range predicates {
		r, ok := rangeFor(variable, property, pred)
		if !ok {
			a.Residual = append(a.Residual, pred)
			continue
		}
		if a.Ranged {
			a.Range = a.Range.Intersect(r)
		} else {
			a.Range = r
			a.Ranged = true
		}
		a.Absorbed = append(a.Absorbed, pred)
	}
	return a
}

// comparison is a normalized variable.property OP literal predicate.
type comparison struct {
	variable string
	property string
	op       string
	literal  any
}

var mirrored = map[string]string{
	OpEq:  OpEq,
	OpLt:  OpGt,
	OpGt:  OpLt,
	OpLte: OpGte,
	OpGte: OpLte,
}

// asComparison recognizes "v.p OP literal" and "literal OP v.p" for the
// operators an ordered index can answer.
func asComparison(expr Expression) (comparison, bool) {
	b, ok := expr.(*BinaryExpression)
	if !ok {
		return comparison{}, false
	}
	if _, ok := mirrored[b.Operator]; !ok {
		return comparison{}, false
	}

	if prop, ok := b.Left.(*PropertyExpression); ok {
		if lit, ok := b.Right.(*LiteralExpression); ok {
			return comparison{prop.Variable, prop.Property, b.Operator, lit.Value}, true
		}
	}
	if prop, ok := b.Right.(*PropertyExpression); ok {
		if lit, ok := b.Left.(*LiteralExpression); ok {
			return comparison{prop.Variable, prop.Property, mirrored[b.Operator], lit.Value}, true
		}
	}
	return comparison{}, false
}

// indexableProperty returns the property an index on variable could answer
// pred with.
func indexableProperty(variable string, pred Expression) (string, bool) {
	c, ok := asComparison(pred)
	if !ok || c.variable != variable {
		return "", false
	}
	if _, isList := c.literal.([]any); isList {
		return "", false
	}
	return c.property, true
}

func rangeFor(variable, property string, pred Expression) (storage.Range, bool) {
	c, ok := asComparison(pred)
	if !ok || c.variable != variable || c.property != property {
		return storage.Range{}, false
	}
	if _, isList := c.literal.([]any); isList {
		return storage.Range{}, false
	}
	// A null literal converts to a null bound, which no value satisfies.
	v, err := storage.ValueFromNative(c.literal)
	if err != nil {
		return storage.Range{}, false
	}

	switch c.op {
	case OpEq:
		return storage.Equals(v), true
	case OpLt:
		return storage.LessThan(v), true
	case OpLte:
		return storage.LessOrEqual(v), true
	case OpGt:
		return storage.GreaterThan(v), true
	default:
		return storage.GreaterOrEqual(v), true
	}
}

// splitConjuncts flattens nested ANDs into their operands.
func splitConjuncts(expr Expression) []Expression {
	if expr == nil {
		return nil
	}
	if b, ok := expr.(*BinaryExpression); ok && b.Operator == OpAnd {
		return append(splitConjuncts(b.Left), splitConjuncts(b.Right)...)
	}
	return []Expression{expr}
}

// joinConjuncts rebuilds a left-deep AND chain.
func joinConjuncts(preds []Expression) Expression {
	if len(preds) == 0 {
		return nil
	}
	out := preds[0]
	for _, p := range preds[1:] {
		out = &BinaryExpression{Left: out, Operator: OpAnd, Right: p}
	}
	return out
}
