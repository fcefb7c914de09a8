package query

import (
	"math"
	"strings"

	"github.com/dd0wney/graphplan/pkg/storage"
)

// evaluator computes expression values against records. Evaluation never
// fails: a missing property, a type mismatch or an unknown function yields
// null, and a null comparison makes a predicate unsatisfied.
type evaluator struct {
	slots map[string]int
}

func newEvaluator(slots map[string]int) *evaluator {
	return &evaluator{slots: slots}
}

// node returns the node bound to variable in rec, or nil.
func (ev *evaluator) node(rec Record, variable string) *storage.Node {
	slot, ok := ev.slots[variable]
	if !ok || slot >= len(rec.nodes) {
		return nil
	}
	return rec.nodes[slot]
}

// predicate reports whether expr evaluates to true. False and null both
// reject the record.
func (ev *evaluator) predicate(expr Expression, rec Record) bool {
	return isTrue(ev.eval(expr, rec))
}

func isTrue(v storage.Value) bool {
	b, err := v.AsBool()
	return err == nil && b
}

func (ev *evaluator) eval(expr Expression, rec Record) storage.Value {
	switch e := expr.(type) {
	case *LiteralExpression:
		v, err := storage.ValueFromNative(e.Value)
		if err != nil {
			return storage.Null
		}
		return v

	case *PropertyExpression:
		n := ev.node(rec, e.Variable)
		if n == nil {
			return storage.Null
		}
		return n.Property(e.Property)

	case *LabelExpression:
		n := ev.node(rec, e.Variable)
		if n == nil {
			return storage.Null
		}
		for _, l := range e.Labels {
			if !n.HasLabel(l) {
				return storage.BoolValue(false)
			}
		}
		return storage.BoolValue(true)

	case *IsNullExpression:
		isNull := ev.isNull(e.Operand, rec)
		return storage.BoolValue(isNull != e.Negated)

	case *UnaryExpression:
		return ev.evalUnary(e, rec)

	case *BinaryExpression:
		return ev.evalBinary(e, rec)

	case *FunctionCall:
		return ev.evalFunction(e, rec)
	}

	// Bare variables and lists have no scalar value.
	return storage.Null
}

func (ev *evaluator) isNull(expr Expression, rec Record) bool {
	if v, ok := expr.(*VariableExpression); ok {
		return ev.node(rec, v.Name) == nil
	}
	return ev.eval(expr, rec).IsNull()
}

func (ev *evaluator) evalUnary(e *UnaryExpression, rec Record) storage.Value {
	v := ev.eval(e.Operand, rec)
	switch e.Operator {
	case "NOT":
		if b, err := v.AsBool(); err == nil {
			return storage.BoolValue(!b)
		}
	case "-":
		switch v.Type {
		case storage.TypeInt:
			i, _ := v.AsInt()
			return storage.IntValue(-i)
		case storage.TypeFloat:
			f, _ := v.AsFloat()
			return storage.FloatValue(-f)
		}
	}
	return storage.Null
}

func (ev *evaluator) evalBinary(e *BinaryExpression, rec Record) storage.Value {
	switch e.Operator {
	case OpAnd, OpOr, OpXor:
		return ev.evalLogical(e, rec)
	case OpIn:
		return ev.evalIn(e, rec)
	}

	left := ev.eval(e.Left, rec)
	right := ev.eval(e.Right, rec)

	switch e.Operator {
	case OpEq, OpNeq, OpLt, OpGt, OpLte, OpGte:
		return compareValues(left, e.Operator, right)
	case OpStartsWith, OpEndsWith, OpContains:
		return matchStrings(left, e.Operator, right)
	}
	return arithmetic(left, e.Operator, right)
}

// evalLogical applies three-valued logic; null stands for unknown.
func (ev *evaluator) evalLogical(e *BinaryExpression, rec Record) storage.Value {
	left := ev.eval(e.Left, rec)
	lb, lerr := left.AsBool()

	switch e.Operator {
	case OpAnd:
		if lerr == nil && !lb {
			return storage.BoolValue(false)
		}
	case OpOr:
		if lerr == nil && lb {
			return storage.BoolValue(true)
		}
	}

	right := ev.eval(e.Right, rec)
	rb, rerr := right.AsBool()

	switch e.Operator {
	case OpAnd:
		if rerr == nil && !rb {
			return storage.BoolValue(false)
		}
		if lerr != nil || rerr != nil {
			return storage.Null
		}
		return storage.BoolValue(true)
	case OpOr:
		if rerr == nil && rb {
			return storage.BoolValue(true)
		}
		if lerr != nil || rerr != nil {
			return storage.Null
		}
		return storage.BoolValue(false)
	default:
		if lerr != nil || rerr != nil {
			return storage.Null
		}
		return storage.BoolValue(lb != rb)
	}
}

// evalIn matches the left value against a list. A null on the left, or no
// match with a null in the list, is unknown.
func (ev *evaluator) evalIn(e *BinaryExpression, rec Record) storage.Value {
	left := ev.eval(e.Left, rec)
	if left.IsNull() {
		return storage.Null
	}

	var elements []storage.Value
	switch list := e.Right.(type) {
	case *ListExpression:
		for _, el := range list.Elements {
			elements = append(elements, ev.eval(el, rec))
		}
	case *LiteralExpression:
		items, ok := list.Value.([]any)
		if !ok {
			return storage.Null
		}
		for _, item := range items {
			v, err := storage.ValueFromNative(item)
			if err != nil {
				v = storage.Null
			}
			elements = append(elements, v)
		}
	default:
		return storage.Null
	}

	sawNull := false
	for _, el := range elements {
		if el.IsNull() {
			sawNull = true
			continue
		}
		if storage.Equal(left, el) {
			return storage.BoolValue(true)
		}
	}
	if sawNull {
		return storage.Null
	}
	return storage.BoolValue(false)
}

// compareValues evaluates a comparison operator with the same ordering the
// indexes use, so a filtered scan and an index scan agree. Null operands give
// null. Values of different families are unequal and unordered.
func compareValues(left storage.Value, op string, right storage.Value) storage.Value {
	if left.IsNull() || right.IsNull() {
		return storage.Null
	}

	c, ok := storage.Compare(left, right)
	if !ok {
		switch op {
		case OpEq:
			return storage.BoolValue(false)
		case OpNeq:
			return storage.BoolValue(true)
		}
		return storage.Null
	}
	switch op {
	case OpEq:
		return storage.BoolValue(c == 0)
	case OpNeq:
		return storage.BoolValue(c != 0)
	case OpLt:
		return storage.BoolValue(c < 0)
	case OpGt:
		return storage.BoolValue(c > 0)
	case OpLte:
		return storage.BoolValue(c <= 0)
	default:
		return storage.BoolValue(c >= 0)
	}
}

func matchStrings(left storage.Value, op string, right storage.Value) storage.Value {
	ls, lerr := left.AsString()
	rs, rerr := right.AsString()
	if lerr != nil || rerr != nil {
		return storage.Null
	}
	switch op {
	case OpStartsWith:
		return storage.BoolValue(strings.HasPrefix(ls, rs))
	case OpEndsWith:
		return storage.BoolValue(strings.HasSuffix(ls, rs))
	default:
		return storage.BoolValue(strings.Contains(ls, rs))
	}
}

func arithmetic(left storage.Value, op string, right storage.Value) storage.Value {
	if left.IsNull() || right.IsNull() {
		return storage.Null
	}

	if op == OpAdd && (left.Type == storage.TypeString || right.Type == storage.TypeString) {
		return storage.StringValue(plainString(left) + plainString(right))
	}

	if left.Type == storage.TypeInt && right.Type == storage.TypeInt {
		a, _ := left.AsInt()
		b, _ := right.AsInt()
		switch op {
		case OpAdd:
			return storage.IntValue(a + b)
		case OpSub:
			return storage.IntValue(a - b)
		case OpMul:
			return storage.IntValue(a * b)
		case OpDiv:
			if b == 0 {
				return storage.Null
			}
			return storage.IntValue(a / b)
		case OpMod:
			if b == 0 {
				return storage.Null
			}
			return storage.IntValue(a % b)
		}
		return storage.Null
	}

	a, aok := numeric(left)
	b, bok := numeric(right)
	if !aok || !bok {
		return storage.Null
	}
	switch op {
	case OpAdd:
		return storage.FloatValue(a + b)
	case OpSub:
		return storage.FloatValue(a - b)
	case OpMul:
		return storage.FloatValue(a * b)
	case OpDiv:
		return storage.FloatValue(a / b)
	case OpMod:
		return storage.FloatValue(math.Mod(a, b))
	}
	return storage.Null
}

func numeric(v storage.Value) (float64, bool) {
	switch v.Type {
	case storage.TypeInt:
		i, _ := v.AsInt()
		return float64(i), true
	case storage.TypeFloat:
		f, _ := v.AsFloat()
		return f, true
	}
	return 0, false
}

// plainString renders a value without string quoting.
func plainString(v storage.Value) string {
	if s, err := v.AsString(); err == nil {
		return s
	}
	return v.String()
}

func (ev *evaluator) evalFunction(e *FunctionCall, rec Record) storage.Value {
	if e.Name == "id" {
		if len(e.Args) != 1 {
			return storage.Null
		}
		v, ok := e.Args[0].(*VariableExpression)
		if !ok {
			return storage.Null
		}
		n := ev.node(rec, v.Name)
		if n == nil {
			return storage.Null
		}
		return storage.IntValue(int64(n.ID))
	}

	if e.Name == "coalesce" {
		for _, a := range e.Args {
			if v := ev.eval(a, rec); !v.IsNull() {
				return v
			}
		}
		return storage.Null
	}

	if len(e.Args) != 1 {
		return storage.Null
	}
	arg := ev.eval(e.Args[0], rec)
	if arg.IsNull() {
		return storage.Null
	}

	switch e.Name {
	case "tolower":
		if s, err := arg.AsString(); err == nil {
			return storage.StringValue(strings.ToLower(s))
		}
	case "toupper":
		if s, err := arg.AsString(); err == nil {
			return storage.StringValue(strings.ToUpper(s))
		}
	case "size":
		if s, err := arg.AsString(); err == nil {
			return storage.IntValue(int64(len([]rune(s))))
		}
	case "tostring":
		return storage.StringValue(plainString(arg))
	case "abs":
		switch arg.Type {
		case storage.TypeInt:
			i, _ := arg.AsInt()
			if i < 0 {
				i = -i
			}
			return storage.IntValue(i)
		case storage.TypeFloat:
			f, _ := arg.AsFloat()
			return storage.FloatValue(math.Abs(f))
		}
	}
	return storage.Null
}
