package webview

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tabula/position"
	"tabula/spreadsheet"
)

func TestResponseForEvaluatesFormulaCell(t *testing.T) {
	sheet := spreadsheet.NewSheet()
	a1, _ := position.FromString("A1")
	b1, _ := position.FromString("B1")
	require.NoError(t, sheet.SetCell(a1, "2"))
	require.NoError(t, sheet.SetCell(b1, "=A1*5"))

	srv := NewServer(sheet, "")
	resp := srv.responseFor(b1)

	require.Equal(t, "cell_updated", resp.Type)
	require.Equal(t, "B1", resp.Pos)
	require.Equal(t, "10", resp.Value)
	require.Equal(t, "=A1 * 5", resp.Text)
	require.Empty(t, resp.Error)
}

func TestResponseForAbsentCell(t *testing.T) {
	sheet := spreadsheet.NewSheet()
	srv := NewServer(sheet, "")

	z9, _ := position.FromString("Z9")
	resp := srv.responseFor(z9)

	require.Equal(t, "Z9", resp.Pos)
	require.Empty(t, resp.Value)
	require.Empty(t, resp.Text)
}

func TestBroadcastChangeNotifiesNoClientsWithoutError(t *testing.T) {
	sheet := spreadsheet.NewSheet()
	NewServer(sheet, "")

	a1, _ := position.FromString("A1")
	require.NoError(t, sheet.SetCell(a1, "hello"))
}
