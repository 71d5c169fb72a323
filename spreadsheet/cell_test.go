package spreadsheet

import "testing"

func TestCellReferencedCellsOnlyForFormula(t *testing.T) {
	s := NewSheet()
	a1 := mustPos(t, "A1")
	b1 := mustPos(t, "B1")
	must(t, s.SetCell(a1, "hello"))
	must(t, s.SetCell(b1, "=A1+A1"))

	cellA1, _ := s.GetCell(a1)
	cellB1, _ := s.GetCell(b1)

	if refs := cellA1.ReferencedCells(); refs != nil {
		t.Fatalf("text cell should have no references, got %v", refs)
	}
	refs := cellB1.ReferencedCells()
	if len(refs) != 2 || refs[0] != a1 || refs[1] != a1 {
		t.Fatalf("got %v, want [A1 A1]", refs)
	}
}

func TestCellIsReferenced(t *testing.T) {
	s := NewSheet()
	a1 := mustPos(t, "A1")
	b1 := mustPos(t, "B1")
	must(t, s.SetCell(a1, "1"))

	cellA1, _ := s.GetCell(a1)
	if cellA1.IsReferenced() {
		t.Fatal("A1 should not be referenced yet")
	}

	must(t, s.SetCell(b1, "=A1"))
	if !cellA1.IsReferenced() {
		t.Fatal("A1 should now be referenced by B1")
	}

	must(t, s.ClearCell(b1))
	if cellA1.IsReferenced() {
		t.Fatal("A1 should no longer be referenced after B1 cleared")
	}
}

func TestNonFormulaCellsAlwaysHaveCache(t *testing.T) {
	s := NewSheet()
	a1 := mustPos(t, "A1")

	must(t, s.SetCell(a1, ""))
	cell, _ := s.GetCell(a1)
	if cell != nil && !cell.hasCache() {
		t.Fatal("empty cell should report hasCache() == true")
	}

	must(t, s.SetCell(a1, "plain text"))
	cell, _ = s.GetCell(a1)
	if !cell.hasCache() {
		t.Fatal("text cell should report hasCache() == true")
	}
}

func TestFormulaCellHasCacheOnlyAfterEvaluation(t *testing.T) {
	s := NewSheet()
	a1 := mustPos(t, "A1")
	must(t, s.SetCell(a1, "=1+1"))

	cell, _ := s.GetCell(a1)
	if cell.hasCache() {
		t.Fatal("freshly set formula cell should not yet have a cache")
	}
	cell.Value()
	if !cell.hasCache() {
		t.Fatal("formula cell should have a cache after evaluation")
	}
}

func TestRewritingACellReplacesItsVariant(t *testing.T) {
	s := NewSheet()
	a1 := mustPos(t, "A1")
	must(t, s.SetCell(a1, "=1+1"))
	must(t, s.SetCell(a1, "plain"))

	cell, _ := s.GetCell(a1)
	if got := cell.Value().String(); got != "plain" {
		t.Fatalf("got %q, want plain", got)
	}
}

func TestSetLoneEqualsSignIsTextNotFormula(t *testing.T) {
	s := NewSheet()
	a1 := mustPos(t, "A1")
	must(t, s.SetCell(a1, "="))

	cell, _ := s.GetCell(a1)
	if got := cell.Value().String(); got != "=" {
		t.Fatalf("got %q, want literal '='", got)
	}
}

func TestFormulaParseErrorLeavesCellUnchanged(t *testing.T) {
	s := NewSheet()
	a1 := mustPos(t, "A1")
	must(t, s.SetCell(a1, "42"))

	err := s.SetCell(a1, "=1+")
	if _, ok := err.(*FormulaError); !ok {
		t.Fatalf("got %v, want FormulaError", err)
	}

	cell, _ := s.GetCell(a1)
	if got := cell.Value().String(); got != "42" {
		t.Fatalf("expected cell unchanged after parse error, got %q", got)
	}
}
