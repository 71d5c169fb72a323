// Package formula wraps a parsed formula AST together with its memoized
// evaluation result, and implements the cell-reference lookup protocol
// that bridges a formula's arithmetic to a sheet's cell values.
package formula

import (
	"strconv"
	"strings"

	"tabula/ast"
	"tabula/parser"
	"tabula/position"
)

// ValueKind tags the three-way union a formula evaluates to.
type ValueKind int

const (
	KindNumber ValueKind = iota
	KindText
	KindError
)

// Value is the result of evaluating a formula (or, for non-formula cells,
// the raw cell contents packaged the same way so callers have one type to
// deal with).
type Value struct {
	Kind  ValueKind
	Num   float64
	Text  string
	Error ast.ErrorKind
}

// Number constructs a numeric Value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Text constructs a textual Value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Err constructs an error Value.
func Err(kind ast.ErrorKind) Value { return Value{Kind: KindError, Error: kind} }

// String renders the value the way PrintValues does: numbers in default
// formatting, strings raw, errors as their stable mnemonic.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindText:
		return v.Text
	case KindError:
		return v.Error.String()
	default:
		return ""
	}
}

// CellLookup resolves another cell's Value by position, for use by
// Evaluate. Implemented by the spreadsheet package's Sheet.
type CellLookup func(p position.Position) (Value, bool)

// Formula holds a parsed AST and its memoized result.
type Formula struct {
	ast   ast.Node
	cache *Value
}

// Parse parses expression (the formula text with its leading '=' already
// stripped) into a Formula with no cached result yet.
func Parse(expression string) (*Formula, error) {
	n, err := parser.Parse(expression)
	if err != nil {
		return nil, err
	}
	return &Formula{ast: n}, nil
}

// Expression returns the canonical textual form of the formula's AST.
func (f *Formula) Expression() string {
	return ast.Print(f.ast)
}

// ReferencedCells returns every *valid* position the formula reads, in
// AST traversal order, duplicates retained.
func (f *Formula) ReferencedCells() []position.Position {
	all := ast.Cells(f.ast)
	out := make([]position.Position, 0, len(all))
	for _, p := range all {
		if p.IsValid() {
			out = append(out, p)
		}
	}
	return out
}

// HasCache reports whether a memoized result is present.
func (f *Formula) HasCache() bool { return f.cache != nil }

// InvalidateCache clears the memoized result.
func (f *Formula) InvalidateCache() { f.cache = nil }

// Evaluate returns the cached result if present; otherwise it executes
// the AST against lookup, memoizes, and returns the result.
func (f *Formula) Evaluate(lookup CellLookup) Value {
	if f.cache != nil {
		return *f.cache
	}
	result := f.evaluateNoCache(lookup)
	f.cache = &result
	return result
}

func (f *Formula) evaluateNoCache(lookup CellLookup) Value {
	args := func(p position.Position) (float64, error) {
		return resolveNumber(p, lookup)
	}
	n, err := f.ast.Execute(args)
	if err != nil {
		if evalErr, ok := err.(*ast.EvalError); ok {
			return Err(evalErr.Kind)
		}
		return Err(ast.ErrArithm)
	}
	return Number(n)
}

// resolveNumber implements the §4.3 lookup protocol: invalid position ->
// Ref; absent cell -> 0; numeric cell -> its value; text cell -> 0 if
// empty, full-string-parsed decimal otherwise, Value error on partial
// parse; error cell -> re-raise.
func resolveNumber(p position.Position, lookup CellLookup) (float64, error) {
	if !p.IsValid() {
		return 0, ast.NewEvalError(ast.ErrRef)
	}
	v, ok := lookup(p)
	if !ok {
		return 0, nil
	}
	switch v.Kind {
	case KindNumber:
		return v.Num, nil
	case KindText:
		if v.Text == "" {
			return 0, nil
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil {
			return 0, ast.NewEvalError(ast.ErrValue)
		}
		return n, nil
	case KindError:
		return 0, ast.NewEvalError(v.Error)
	default:
		return 0, nil
	}
}
