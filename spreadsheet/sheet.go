// Package spreadsheet implements the dependency-tracking and evaluation
// core of an in-memory spreadsheet: cells addressed by position, each
// holding an empty/text/formula variant, wired into a bidirectional
// dependency graph that the Sheet keeps acyclic and whose memoized
// formula results it keeps consistent across edits.
package spreadsheet

import (
	"fmt"
	"io"

	"tabula/formula"
	"tabula/position"
)

// Sheet owns every Cell, keyed by position, and mediates all lookups,
// cycle checks, and cache invalidation. A Sheet assumes single-threaded,
// exclusive-access callers and takes no locks itself; callers sharing one
// across goroutines must serialize access to it externally.
type Sheet struct {
	cells    map[position.Position]*Cell
	onChange func(position.Position)
}

// NewSheet returns an empty Sheet.
func NewSheet() *Sheet {
	return &Sheet{cells: make(map[position.Position]*Cell)}
}

// OnChange registers fn to be invoked once per successful SetCell or
// ClearCell, after the edit (including its cascade invalidation) is fully
// committed. Only one listener is kept; calling OnChange again replaces
// it. Passing nil disables notification.
func (s *Sheet) OnChange(fn func(position.Position)) {
	s.onChange = fn
}

func (s *Sheet) notify(pos position.Position) {
	if s.onChange != nil {
		s.onChange(pos)
	}
}

// SetCell assigns text to the cell at pos, creating it if necessary.
// Returns InvalidPositionError, *FormulaError, or *CircularDependencyError
// on failure. On an invalid position nothing changes; on a formula or
// cycle error the target cell keeps its previous content, except that a
// cell created for a previously absent pos stays stored as Empty.
func (s *Sheet) SetCell(pos position.Position, text string) error {
	if !pos.IsValid() {
		return &InvalidPositionError{Pos: pos, Op: "SetCell"}
	}
	cell, ok := s.cells[pos]
	if !ok {
		cell = newCell(pos, s)
		s.cells[pos] = cell
	}
	if err := cell.Set(text); err != nil {
		return err
	}
	s.notify(pos)
	return nil
}

// GetCell returns the cell at pos, or nil if none is stored there.
func (s *Sheet) GetCell(pos position.Position) (*Cell, error) {
	if !pos.IsValid() {
		return nil, &InvalidPositionError{Pos: pos, Op: "GetCell"}
	}
	return s.cells[pos], nil
}

// ClearCell resets the cell at pos to Empty. If nothing else references
// it, its storage is released entirely (I5); otherwise it's retained as
// an Empty cell so incoming references remain valid.
func (s *Sheet) ClearCell(pos position.Position) error {
	if !pos.IsValid() {
		return &InvalidPositionError{Pos: pos, Op: "ClearCell"}
	}
	cell, ok := s.cells[pos]
	if !ok {
		return nil
	}

	s.updateReferences(cell, nil)
	cell.Clear()
	s.invalidateCascade(cell, true)

	if !cell.IsReferenced() {
		delete(s.cells, pos)
	}
	s.notify(pos)
	return nil
}

// PrintableSize returns (1+max row, 1+max col) over every stored cell,
// including Empty cells retained only because something references them;
// (0, 0) if the sheet is empty.
func (s *Sheet) PrintableSize() (rows, cols int) {
	for p := range s.cells {
		if p.Row+1 > rows {
			rows = p.Row + 1
		}
		if p.Col+1 > cols {
			cols = p.Col + 1
		}
	}
	return rows, cols
}

// PrintValues writes a tab-separated, newline-terminated grid of
// GetValue() renderings, sized by PrintableSize.
func (s *Sheet) PrintValues(w io.Writer) error {
	return s.print(w, func(c *Cell) string {
		if c == nil || c.Text() == "" {
			return ""
		}
		return c.Value().String()
	})
}

// PrintTexts writes a tab-separated, newline-terminated grid of
// GetText() values, sized by PrintableSize.
func (s *Sheet) PrintTexts(w io.Writer) error {
	return s.print(w, func(c *Cell) string {
		if c == nil {
			return ""
		}
		return c.Text()
	})
}

func (s *Sheet) print(w io.Writer, render func(*Cell) string) error {
	rows, cols := s.PrintableSize()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if col > 0 {
				if _, err := io.WriteString(w, "\t"); err != nil {
					return err
				}
			}
			cell := s.cells[position.Position{Row: row, Col: col}]
			if _, err := io.WriteString(w, render(cell)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// getRegularCell returns the cell at pos without validating pos; callers
// within the package have already validated or don't need to (e.g. cycle
// detection walks cells it already holds pointers to).
func (s *Sheet) getRegularCell(pos position.Position) *Cell {
	return s.cells[pos]
}

// lookupValue implements formula.CellLookup against this sheet's cells.
func (s *Sheet) lookupValue(pos position.Position) (formula.Value, bool) {
	cell := s.cells[pos]
	if cell == nil {
		return formula.Value{}, false
	}
	return cell.Value(), true
}

// checkAcyclic verifies that committing a candidate variant referencing
// refPositions (already filtered to valid positions) to c would not close
// a cycle in the dependency graph. Positions with no existing cell yet
// contribute no incoming edges and so can never lie on a path back to c.
func (s *Sheet) checkAcyclic(c *Cell, refPositions []position.Position) error {
	targets := make(map[*Cell]struct{}, len(refPositions))
	for _, p := range refPositions {
		if existing, ok := s.cells[p]; ok {
			targets[existing] = struct{}{}
		}
	}
	if len(targets) == 0 {
		return nil
	}

	visited := make(map[*Cell]struct{})
	stack := []*Cell{c}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}

		if _, isTarget := targets[cur]; isTarget {
			return &CircularDependencyError{Pos: c.pos}
		}
		for dep := range cur.dependents {
			if _, seen := visited[dep]; !seen {
				stack = append(stack, dep)
			}
		}
	}
	return nil
}

// updateReferences rewires c's outgoing edges to match newPositions
// (already filtered to valid positions; duplicates are fine, each pair
// ends up wired at most once). Any newly-referenced position that has no
// cell yet is materialized as Empty first, per I4.
func (s *Sheet) updateReferences(c *Cell, newPositions []position.Position) {
	for ref := range c.references {
		delete(ref.dependents, c)
	}
	c.references = make(map[*Cell]struct{})

	for _, p := range newPositions {
		ref, ok := s.cells[p]
		if !ok {
			ref = newCell(p, s)
			s.cells[p] = ref
		}
		c.references[ref] = struct{}{}
		ref.dependents[c] = struct{}{}
	}
}

// invalidateCascade clears c's memoized formula result (if force or it
// already had one) and recurses into c's dependents, stopping at any
// dependent that itself has no cache to invalidate -- matching the
// teacher's pattern where propagation only continues through cells that
// had actually memoized something.
func (s *Sheet) invalidateCascade(c *Cell, force bool) {
	s.invalidateCascadeVisited(c, force, make(map[*Cell]struct{}))
}

func (s *Sheet) invalidateCascadeVisited(c *Cell, force bool, visited map[*Cell]struct{}) {
	if _, seen := visited[c]; seen {
		return
	}
	if !c.hasCache() && !force {
		return
	}
	visited[c] = struct{}{}
	c.invalidateCache()
	for dep := range c.dependents {
		s.invalidateCascadeVisited(dep, false, visited)
	}
}

// String renders the sheet's PrintValues output, for debugging.
func (s *Sheet) String() string {
	var b []byte
	buf := &byteWriter{b: b}
	_ = s.PrintValues(buf)
	return string(buf.b)
}

type byteWriter struct{ b []byte }

func (w *byteWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

var _ fmt.Stringer = (*Sheet)(nil)
