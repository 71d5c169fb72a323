//go:build js && wasm
// +build js,wasm

// Command wasm exposes a tabula sheet to JavaScript via syscall/js, for
// running the engine directly in a browser.
package main

import (
	"fmt"
	"syscall/js"

	"tabula/position"
	"tabula/spreadsheet"
)

var sheet = spreadsheet.NewSheet()

func main() {
	c := make(chan struct{}, 0)

	js.Global().Set("tabulaSetCell", js.FuncOf(setCell))
	js.Global().Set("tabulaGetCellValue", js.FuncOf(getCellValue))
	js.Global().Set("tabulaGetCellText", js.FuncOf(getCellText))
	js.Global().Set("tabulaClearCell", js.FuncOf(clearCell))
	js.Global().Set("tabulaPrintValues", js.FuncOf(printValues))

	fmt.Println("tabula WASM runtime initialized.")
	<-c
}

func parsePos(arg js.Value) (position.Position, bool) {
	return position.FromString(arg.String())
}

// tabulaSetCell(posText, text) -> "" on success, an error message otherwise.
func setCell(this js.Value, args []js.Value) interface{} {
	if len(args) != 2 {
		return "tabulaSetCell expects 2 arguments (position, text)"
	}
	pos, ok := parsePos(args[0])
	if !ok {
		return fmt.Sprintf("invalid position %q", args[0].String())
	}
	if err := sheet.SetCell(pos, args[1].String()); err != nil {
		return err.Error()
	}
	return ""
}

// tabulaGetCellValue(posText) -> the cell's rendered value, or "" for an
// absent cell.
func getCellValue(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return ""
	}
	pos, ok := parsePos(args[0])
	if !ok {
		return ""
	}
	cell, err := sheet.GetCell(pos)
	if err != nil || cell == nil {
		return ""
	}
	return cell.Value().String()
}

// tabulaGetCellText(posText) -> the cell's raw input text.
func getCellText(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return ""
	}
	pos, ok := parsePos(args[0])
	if !ok {
		return ""
	}
	cell, err := sheet.GetCell(pos)
	if err != nil || cell == nil {
		return ""
	}
	return cell.Text()
}

// tabulaClearCell(posText) -> "" on success, an error message otherwise.
func clearCell(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return "tabulaClearCell expects 1 argument (position)"
	}
	pos, ok := parsePos(args[0])
	if !ok {
		return fmt.Sprintf("invalid position %q", args[0].String())
	}
	if err := sheet.ClearCell(pos); err != nil {
		return err.Error()
	}
	return ""
}

// tabulaPrintValues() -> the whole sheet's evaluated grid as one
// tab/newline-separated string.
func printValues(this js.Value, args []js.Value) interface{} {
	var buf stringBuilder
	_ = sheet.PrintValues(&buf)
	return buf.String()
}

type stringBuilder struct{ b []byte }

func (s *stringBuilder) Write(p []byte) (int, error) {
	s.b = append(s.b, p...)
	return len(p), nil
}

func (s *stringBuilder) String() string { return string(s.b) }
