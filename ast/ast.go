// Package ast defines the immutable arithmetic expression tree the parser
// builds and the formula package evaluates, along with canonical
// pretty-printing and reference enumeration.
package ast

import (
	"fmt"
	"math"
	"strconv"

	"tabula/position"
)

// ErrorKind is the set of arithmetic/reference failures that can arise
// while executing a node, distinct from any other Go error a lookup
// returns (which Execute propagates unchanged).
type ErrorKind int

const (
	ErrRef ErrorKind = iota
	ErrValue
	ErrArithm
)

func (k ErrorKind) String() string {
	switch k {
	case ErrRef:
		return "#REF!"
	case ErrValue:
		return "#VALUE!"
	case ErrArithm:
		return "#ARITHM!"
	default:
		return "#ERROR!"
	}
}

// minNormalFloat64 is the smallest positive *normalized* double (C++'s
// std::numeric_limits<double>::min()), the division-by-zero threshold
// this grammar's semantics specify. math.SmallestNonzeroFloat64 is the
// smallest *denormalized* double instead, roughly 4.5e15 times smaller,
// which would let division by a subnormal divisor silently produce a
// large finite result rather than raise Arithm.
const minNormalFloat64 = 2.2250738585072014e-308

// EvalError is the error type Execute and Lookup functions raise for
// arithmetic/reference failures. Both Lookup and Execute return it as a
// normal Go error; formula.Formula.Evaluate turns it into an error Value
// of the same Kind.
type EvalError struct {
	Kind ErrorKind
}

func (e *EvalError) Error() string { return e.Kind.String() }

// NewEvalError constructs an EvalError of the given kind.
func NewEvalError(kind ErrorKind) *EvalError { return &EvalError{Kind: kind} }

// Lookup resolves a cell reference to a number during formula evaluation,
// per the protocol in formula.Formula.Evaluate: invalid position -> Ref
// error; absent cell -> 0; numeric cell -> its value; text cell -> 0 if
// empty, parsed value if it parses as a full decimal, Value error
// otherwise; error cell -> re-raise.
type Lookup func(p position.Position) (float64, error)

// Node is an arithmetic expression node.
type Node interface {
	// Execute evaluates the node against lookup. Arithmetic failures
	// (division by a value too close to zero, or a non-finite result)
	// and any error raised by lookup are returned as *EvalError (lookup
	// errors pass through unchanged).
	Execute(lookup Lookup) (float64, error)

	// Print appends the node's canonical textual form to buf, adding
	// parentheses only where required by left-associativity.
	Print(buf *[]byte)

	// Cells appends every cell reference appearing in the node, in
	// traversal order; duplicates and invalid positions are retained,
	// it is the caller's job to filter/deduplicate.
	Cells(out *[]position.Position)
}

// Print renders n in canonical form.
func Print(n Node) string {
	var buf []byte
	n.Print(&buf)
	return string(buf)
}

// Cells returns every cell reference appearing in n, in traversal order,
// duplicates and invalid positions included.
func Cells(n Node) []position.Position {
	var out []position.Position
	n.Cells(&out)
	return out
}

// NumberLiteral is a literal decimal constant.
type NumberLiteral struct {
	Value float64
}

func (n *NumberLiteral) Execute(Lookup) (float64, error) { return n.Value, nil }

func (n *NumberLiteral) Print(buf *[]byte) {
	*buf = append(*buf, strconv.FormatFloat(n.Value, 'g', -1, 64)...)
}

func (n *NumberLiteral) Cells(*[]position.Position) {}

// CellRef is a reference to another cell's value.
type CellRef struct {
	Pos position.Position
}

func (n *CellRef) Execute(lookup Lookup) (float64, error) { return lookup(n.Pos) }

func (n *CellRef) Print(buf *[]byte) {
	*buf = append(*buf, n.Pos.String()...)
}

func (n *CellRef) Cells(out *[]position.Position) {
	*out = append(*out, n.Pos)
}

// BinOp identifies a binary arithmetic operator.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
)

func (op BinOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	default:
		return "?"
	}
}

// precedence groups + - below * /, matching the grammar's expr/term split.
func (op BinOp) precedence() int {
	switch op {
	case Add, Sub:
		return 1
	case Mul, Div:
		return 2
	default:
		return 0
	}
}

// BinaryExpr is a left-associative binary operation.
type BinaryExpr struct {
	Op          BinOp
	Left, Right Node
}

func (n *BinaryExpr) Execute(lookup Lookup) (float64, error) {
	left, err := n.Left.Execute(lookup)
	if err != nil {
		return 0, err
	}
	right, err := n.Right.Execute(lookup)
	if err != nil {
		return 0, err
	}

	var result float64
	switch n.Op {
	case Add:
		result = left + right
	case Sub:
		result = left - right
	case Mul:
		result = left * right
	case Div:
		if math.Abs(right) < minNormalFloat64 {
			return 0, NewEvalError(ErrArithm)
		}
		result = left / right
	default:
		return 0, fmt.Errorf("ast: unknown binary operator %v", n.Op)
	}

	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, NewEvalError(ErrArithm)
	}
	return result, nil
}

func (n *BinaryExpr) Print(buf *[]byte) {
	printOperand(buf, n.Left, n.Op, false)
	*buf = append(*buf, ' ')
	*buf = append(*buf, n.Op.String()...)
	*buf = append(*buf, ' ')
	printOperand(buf, n.Right, n.Op, true)
}

func (n *BinaryExpr) Cells(out *[]position.Position) {
	n.Left.Cells(out)
	n.Right.Cells(out)
}

// printOperand emits operand with parentheses when required to preserve
// evaluation order given left-associativity: a lower-precedence operand
// always needs parens, and since both + - and * / are left-associative, a
// same-precedence operand on the *right* side of - or / also needs parens
// (e.g. "a - (b - c)", "a / (b / c)") even though the left side never does.
func printOperand(buf *[]byte, operand Node, parentOp BinOp, isRightSide bool) {
	child, ok := operand.(*BinaryExpr)
	if !ok {
		operand.Print(buf)
		return
	}
	needsParens := child.Op.precedence() < parentOp.precedence()
	if !needsParens && isRightSide && (parentOp == Sub || parentOp == Div) && child.Op.precedence() == parentOp.precedence() {
		needsParens = true
	}
	if needsParens {
		*buf = append(*buf, '(')
		child.Print(buf)
		*buf = append(*buf, ')')
	} else {
		child.Print(buf)
	}
}

// UnarySign is the + or - prefix operator. Unary + is a no-op at
// evaluation time but preserved for canonical printing parity with how it
// was written (the grammar allows it explicitly).
type UnarySign int

const (
	Neg UnarySign = iota
	Pos
)

// UnaryExpr is a unary +/- applied to a factor.
type UnaryExpr struct {
	Sign    UnarySign
	Operand Node
}

func (n *UnaryExpr) Execute(lookup Lookup) (float64, error) {
	v, err := n.Operand.Execute(lookup)
	if err != nil {
		return 0, err
	}
	if n.Sign == Neg {
		return -v, nil
	}
	return v, nil
}

func (n *UnaryExpr) Print(buf *[]byte) {
	if n.Sign == Neg {
		*buf = append(*buf, '-')
	} else {
		*buf = append(*buf, '+')
	}
	if _, complex := n.Operand.(*BinaryExpr); complex {
		*buf = append(*buf, '(')
		n.Operand.Print(buf)
		*buf = append(*buf, ')')
	} else {
		n.Operand.Print(buf)
	}
}

func (n *UnaryExpr) Cells(out *[]position.Position) {
	n.Operand.Cells(out)
}
