package query

import (
	"sort"
	"strings"

	"github.com/dd0wney/graphplan/pkg/storage"
)

// Expression is a node of a predicate or projection expression tree.
// Expression trees are immutable once parsed.
type Expression interface {
	String() string
	// collectVariables adds every pattern variable the expression reads.
	collectVariables(into map[string]struct{})
}

// PropertyExpression represents variable.property
type PropertyExpression struct {
	Variable string
	Property string
}

func (e *PropertyExpression) String() string { return e.Variable + "." + e.Property }

func (e *PropertyExpression) collectVariables(into map[string]struct{}) {
	into[e.Variable] = struct{}{}
}

// VariableExpression is a bare pattern variable
type VariableExpression struct {
	Name string
}

func (e *VariableExpression) String() string { return e.Name }

func (e *VariableExpression) collectVariables(into map[string]struct{}) {
	into[e.Name] = struct{}{}
}

// LiteralExpression holds int64, float64, string, bool or nil
type LiteralExpression struct {
	Value any
}

func (e *LiteralExpression) String() string { return formatLiteral(e.Value) }

func (e *LiteralExpression) collectVariables(map[string]struct{}) {}

// ListExpression is [a, b, c]
type ListExpression struct {
	Elements []Expression
}

func (e *ListExpression) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (e *ListExpression) collectVariables(into map[string]struct{}) {
	for _, el := range e.Elements {
		el.collectVariables(into)
	}
}

// Binary operators
const (
	OpAnd        = "AND"
	OpOr         = "OR"
	OpXor        = "XOR"
	OpEq         = "="
	OpNeq        = "<>"
	OpLt         = "<"
	OpGt         = ">"
	OpLte        = "<="
	OpGte        = ">="
	OpAdd        = "+"
	OpSub        = "-"
	OpMul        = "*"
	OpDiv        = "/"
	OpMod        = "%"
	OpIn         = "IN"
	OpStartsWith = "STARTS WITH"
	OpEndsWith   = "ENDS WITH"
	OpContains   = "CONTAINS"
)

// BinaryExpression represents left op right
type BinaryExpression struct {
	Left     Expression
	Operator string
	Right    Expression
}

func (e *BinaryExpression) String() string {
	left, right := e.Left.String(), e.Right.String()
	if needsParens(e.Left, e.Operator, false) {
		left = "(" + left + ")"
	}
	if needsParens(e.Right, e.Operator, true) {
		right = "(" + right + ")"
	}
	return left + " " + e.Operator + " " + right
}

func (e *BinaryExpression) collectVariables(into map[string]struct{}) {
	e.Left.collectVariables(into)
	e.Right.collectVariables(into)
}

// UnaryExpression is NOT x or -x
type UnaryExpression struct {
	Operator string
	Operand  Expression
}

func (e *UnaryExpression) String() string {
	operand := e.Operand.String()
	if _, ok := e.Operand.(*BinaryExpression); ok {
		operand = "(" + operand + ")"
	}
	if e.Operator == "NOT" {
		return "NOT " + operand
	}
	return e.Operator + operand
}

func (e *UnaryExpression) collectVariables(into map[string]struct{}) {
	e.Operand.collectVariables(into)
}

// IsNullExpression is x IS NULL or x IS NOT NULL
type IsNullExpression struct {
	Operand Expression
	Negated bool
}

func (e *IsNullExpression) String() string {
	if e.Negated {
		return e.Operand.String() + " IS NOT NULL"
	}
	return e.Operand.String() + " IS NULL"
}

func (e *IsNullExpression) collectVariables(into map[string]struct{}) {
	e.Operand.collectVariables(into)
}

// FunctionCall is name(args...)
type FunctionCall struct {
	Name string
	Args []Expression
}

func (e *FunctionCall) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return e.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (e *FunctionCall) collectVariables(into map[string]struct{}) {
	for _, a := range e.Args {
		a.collectVariables(into)
	}
}

// LabelExpression tests that a variable carries every listed label, n:A:B
type LabelExpression struct {
	Variable string
	Labels   []string
}

func (e *LabelExpression) String() string {
	return e.Variable + ":" + strings.Join(e.Labels, ":")
}

func (e *LabelExpression) collectVariables(into map[string]struct{}) {
	into[e.Variable] = struct{}{}
}

// Variables returns the sorted set of pattern variables expr reads.
func Variables(expr Expression) []string {
	set := make(map[string]struct{})
	expr.collectVariables(set)
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

var precedence = map[string]int{
	OpOr: 1, OpXor: 2, OpAnd: 3,
	OpEq: 5, OpNeq: 5, OpLt: 5, OpGt: 5, OpLte: 5, OpGte: 5,
	OpIn: 5, OpStartsWith: 5, OpEndsWith: 5, OpContains: 5,
	OpAdd: 6, OpSub: 6,
	OpMul: 7, OpDiv: 7, OpMod: 7,
}

func needsParens(child Expression, parentOp string, right bool) bool {
	b, ok := child.(*BinaryExpression)
	if !ok {
		return false
	}
	if right {
		return precedence[b.Operator] <= precedence[parentOp]
	}
	return precedence[b.Operator] < precedence[parentOp]
}

func formatLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case []any:
		parts := make([]string, len(x))
		for i, el := range x {
			parts[i] = formatLiteral(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	sv, err := storage.ValueFromNative(v)
	if err != nil {
		return "?"
	}
	return sv.String()
}
