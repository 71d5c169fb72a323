// Package repl implements an interactive terminal session for editing and
// inspecting a tabula sheet one line at a time.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"tabula/position"
	"tabula/spreadsheet"
)

const (
	prompt = "tabula> "
)

// Start begins a REPL session against sheet, reading lines from in and
// writing prompts/results/errors to out. It returns when the session ends
// (EOF, Ctrl+D on an empty line, Ctrl+C, or the :quit command).
func Start(in io.Reader, out io.Writer, sheet *spreadsheet.Sheet) {
	var (
		scanner *bufio.Scanner
		tty     *ttyInput
	)
	if ti, ok := newTTYInput(in, out); ok {
		tty = ti
		defer tty.Close()
	} else {
		scanner = bufio.NewScanner(in)
	}

	sessionOut := out
	if tty != nil {
		sessionOut = newTTYLineWriter(out)
	}

	fmt.Fprintf(sessionOut, "tabula - interactive sheet editor\n")
	fmt.Fprintf(sessionOut, "  A1 = 12           set a cell to a text literal\n")
	fmt.Fprintf(sessionOut, "  B1 = =A1*2+1      set a cell to a formula\n")
	fmt.Fprintf(sessionOut, "  A1                show one cell's value and text\n")
	fmt.Fprintf(sessionOut, "Commands: :values, :texts, :clear <pos>, :help, :quit\n\n")

	for {
		var (
			line string
			ok   bool
		)
		if tty != nil {
			line, ok = tty.readLine(prompt)
		} else {
			fmt.Fprint(out, prompt)
			ok = scanner.Scan()
			line = scanner.Text()
		}
		if !ok {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if handleCommand(line, sessionOut, sheet) {
				return
			}
			continue
		}

		evalLine(line, sessionOut, sheet)
	}
}

func evalLine(line string, out io.Writer, sheet *spreadsheet.Sheet) {
	if eq := strings.IndexByte(line, '='); eq >= 0 {
		posText := strings.TrimSpace(line[:eq])
		if pos, ok := position.FromString(posText); ok {
			setAndReport(out, sheet, pos, strings.TrimRight(line[eq:], "\r"))
			return
		}
	}

	posText := strings.TrimSpace(line)
	pos, ok := position.FromString(posText)
	if !ok {
		fmt.Fprintf(out, "not a cell reference or assignment: %q\n", line)
		return
	}
	showCell(out, sheet, pos)
}

// setAndReport stores text (the raw right-hand side, starting with its
// "=" assignment delimiter) into pos. The delimiter and surrounding
// whitespace are stripped, so a formula needs a second "=" after it
// (e.g. "B1 = =A1+1").
func setAndReport(out io.Writer, sheet *spreadsheet.Sheet, pos position.Position, text string) {
	text = strings.TrimSpace(strings.TrimPrefix(text, "="))
	if err := sheet.SetCell(pos, text); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	showCell(out, sheet, pos)
}

func showCell(out io.Writer, sheet *spreadsheet.Sheet, pos position.Position) {
	cell, err := sheet.GetCell(pos)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	if cell == nil {
		fmt.Fprintf(out, "%s: (empty)\n", pos)
		return
	}
	fmt.Fprintf(out, "%s: %s  [%s]\n", pos, cell.Value().String(), cell.Text())
}

func handleCommand(cmd string, out io.Writer, sheet *spreadsheet.Sheet) bool {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		fmt.Fprintln(out, "Goodbye!")
		return true

	case ":help", ":h":
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  :values        print the evaluated grid, tab-separated")
		fmt.Fprintln(out, "  :texts         print the raw input grid, tab-separated")
		fmt.Fprintln(out, "  :clear <pos>   clear a cell, e.g. :clear B2")
		fmt.Fprintln(out, "  :quit          exit the session")

	case ":values":
		if err := sheet.PrintValues(out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}

	case ":texts":
		if err := sheet.PrintTexts(out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}

	case ":clear":
		if len(fields) != 2 {
			fmt.Fprintln(out, "usage: :clear <pos>")
			break
		}
		pos, ok := position.FromString(fields[1])
		if !ok {
			fmt.Fprintf(out, "not a cell reference: %q\n", fields[1])
			break
		}
		if err := sheet.ClearCell(pos); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}

	default:
		fmt.Fprintf(out, "unknown command: %s (try :help)\n", fields[0])
	}
	return false
}
