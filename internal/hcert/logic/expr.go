// Package logic implements the boolean expression language business rules are
// written in. It covers the CertLogic operator set used by DCC business rules
// and nothing beyond it.
//
// Expressions are a closed set of node types evaluated by a pure recursive
// evaluator over JSON-shaped data (nil, bool, float64, string, []any,
// map[string]any) plus time.Time for date-time values produced by plusTime and
// dccDateOfBirth.
package logic

import "fmt"

// Expr is a node of the expression tree. The set of implementations is closed.
type Expr interface {
	isExpr()
}

// Literal is a constant value.
type Literal struct {
	Value any
}

// Var reads a dotted path from the evaluation data. Numeric segments index
// arrays. Missing paths evaluate to nil.
type Var struct {
	Path string
}

// Array evaluates each item and yields the resulting slice.
type Array struct {
	Items []Expr
}

// Call applies an operator to its operands.
type Call struct {
	Op   Op
	Args []Expr
}

// Invalid stands in for an expression that could not be decoded. It always
// faults when evaluated so one malformed rule fails alone.
type Invalid struct {
	Err error
}

func (Literal) isExpr() {}
func (Var) isExpr()     {}
func (Array) isExpr()   {}
func (Call) isExpr()    {}
func (Invalid) isExpr() {}

// Op names an operator.
type Op string

const (
	OpIf              Op = "if"
	OpAnd             Op = "and"
	OpOr              Op = "or"
	OpNot             Op = "!"
	OpTruthy          Op = "!!"
	OpStrictEq        Op = "==="
	OpStrictNe        Op = "!=="
	OpLess            Op = "<"
	OpGreater         Op = ">"
	OpLessEq          Op = "<="
	OpGreaterEq       Op = ">="
	OpIn              Op = "in"
	OpPlus            Op = "+"
	OpPlusTime        Op = "plusTime"
	OpBefore          Op = "before"
	OpAfter           Op = "after"
	OpNotBefore       Op = "not-before"
	OpNotAfter        Op = "not-after"
	OpReduce          Op = "reduce"
	OpExtractFromUVCI Op = "extractFromUVCI"
	OpDccDateOfBirth  Op = "dccDateOfBirth"
)

// EvalError is an evaluation fault: wrong arity, operand types the operator
// does not accept, an unknown operator or an undecodable expression.
type EvalError struct {
	Op  Op
	Msg string
}

func (e *EvalError) Error() string {
	if e.Op == "" {
		return "logic: " + e.Msg
	}
	return fmt.Sprintf("logic: %s: %s", e.Op, e.Msg)
}

func fault(op Op, format string, args ...any) error {
	return &EvalError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// ToValue renders an expression back into CertLogic JSON form.
func ToValue(e Expr) any {
	switch n := e.(type) {
	case Literal:
		return n.Value
	case Var:
		return map[string]any{"var": n.Path}
	case Array:
		items := make([]any, len(n.Items))
		for i, it := range n.Items {
			items[i] = ToValue(it)
		}
		return items
	case Call:
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			args[i] = ToValue(a)
		}
		return map[string]any{string(n.Op): args}
	case Invalid:
		return map[string]any{"invalid": n.Err.Error()}
	default:
		return nil
	}
}
