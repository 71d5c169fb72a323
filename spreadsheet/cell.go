package spreadsheet

import (
	"tabula/formula"
	"tabula/position"
)

// FormulaSign marks a cell's input text as a formula.
const FormulaSign = '='

// EscapeSign forces text interpretation of a literal that would otherwise
// look like a formula.
const EscapeSign = '\''

type variantKind int

const (
	variantEmpty variantKind = iota
	variantText
	variantFormula
)

// Cell is a single stateful unit of a Sheet: one of three variants
// (empty, text literal, or formula), plus its outgoing ("references") and
// incoming ("dependents") edges in the dependency graph.
type Cell struct {
	pos   position.Position
	sheet *Sheet

	kind    variantKind
	text    string           // raw input, for variantText
	formula *formula.Formula // parsed formula, for variantFormula

	references map[*Cell]struct{} // cells this one reads
	dependents map[*Cell]struct{} // cells that read this one
}

func newCell(pos position.Position, sheet *Sheet) *Cell {
	return &Cell{
		pos:        pos,
		sheet:      sheet,
		kind:       variantEmpty,
		references: make(map[*Cell]struct{}),
		dependents: make(map[*Cell]struct{}),
	}
}

// Set transitions the cell to a new variant derived from text:
//
//	""                          -> Empty
//	len>=2 and text[0]=='='     -> Formula(parse(text[1:]))
//	otherwise                   -> TextLiteral(text)  (a lone "=" falls here)
//
// A parse error or a circular-dependency violation leaves the cell
// unchanged and is returned as an error.
func (c *Cell) Set(text string) error {
	var candidate Cell
	candidate.kind = variantEmpty

	switch {
	case text == "":
		candidate.kind = variantEmpty

	case len(text) >= 2 && text[0] == FormulaSign:
		f, err := formula.Parse(text[1:])
		if err != nil {
			return &FormulaError{Text: text, Err: err}
		}
		candidate.kind = variantFormula
		candidate.formula = f

	default:
		candidate.kind = variantText
		candidate.text = text
	}

	refPositions := candidate.referencedPositions()
	if err := c.sheet.checkAcyclic(c, refPositions); err != nil {
		return err
	}

	c.kind = candidate.kind
	c.text = candidate.text
	c.formula = candidate.formula

	c.sheet.updateReferences(c, refPositions)
	c.sheet.invalidateCascade(c, true)
	return nil
}

// Clear resets the cell to Empty. Edge disposal is the Sheet's decision
// (see Sheet.ClearCell); this only changes the variant.
func (c *Cell) Clear() {
	c.kind = variantEmpty
	c.text = ""
	c.formula = nil
}

// Value returns the cell's current evaluated value.
func (c *Cell) Value() formula.Value {
	switch c.kind {
	case variantEmpty:
		return formula.Text("")
	case variantText:
		if len(c.text) > 0 && c.text[0] == EscapeSign {
			return formula.Text(c.text[1:])
		}
		return formula.Text(c.text)
	case variantFormula:
		return c.formula.Evaluate(c.sheet.lookupValue)
	default:
		return formula.Text("")
	}
}

// Text returns the cell's raw textual form: "" for Empty, the original
// literal for TextLiteral, or "=" plus the canonical AST print for
// Formula.
func (c *Cell) Text() string {
	switch c.kind {
	case variantEmpty:
		return ""
	case variantText:
		return c.text
	case variantFormula:
		return string(FormulaSign) + c.formula.Expression()
	default:
		return ""
	}
}

// ReferencedCells returns the positions this cell's current variant
// reads, filtered to valid positions, in AST order (formula variant) or
// empty (otherwise).
func (c *Cell) ReferencedCells() []position.Position {
	return c.referencedPositions()
}

func (c *Cell) referencedPositions() []position.Position {
	if c.kind != variantFormula {
		return nil
	}
	return c.formula.ReferencedCells()
}

// IsReferenced reports whether any other cell currently depends on this
// one.
func (c *Cell) IsReferenced() bool {
	return len(c.dependents) > 0
}

// hasCache reports whether the cell currently holds a memoized formula
// result. Empty and TextLiteral cells have nothing to memoize, so they
// report true unconditionally -- matching the teacher's base Impl, where
// only the Formula variant overrides this to reflect real cache state.
// The effect: cache invalidation always cascades through non-formula
// cells, and only stops at a formula cell that was never evaluated.
func (c *Cell) hasCache() bool {
	if c.kind == variantFormula {
		return c.formula.HasCache()
	}
	return true
}

func (c *Cell) invalidateCache() {
	if c.kind == variantFormula {
		c.formula.InvalidateCache()
	}
}
