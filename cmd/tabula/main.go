// Command tabula is the command-line entry point for the spreadsheet
// engine: an interactive REPL, a batch grid evaluator, a ZeroMQ change
// broadcaster, and a live browser viewer.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tabula/kernel"
	"tabula/position"
	"tabula/repl"
	"tabula/spreadsheet"
	"tabula/webview"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	sub := os.Args[1]
	switch sub {
	case "-h", "--help", "help":
		usage()
		return
	case "repl":
		os.Exit(replCommand(os.Args[2:]))
	case "eval":
		os.Exit(evalCommand(os.Args[2:]))
	case "kernel":
		os.Exit(kernelCommand(os.Args[2:]))
	case "webview":
		os.Exit(webviewCommand(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", sub)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  tabula <command> [arguments]\n")
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  repl                      start the interactive sheet editor\n")
	fmt.Fprintf(os.Stderr, "  eval [-texts] [file]      load a tab-separated grid and print its evaluated values\n")
	fmt.Fprintf(os.Stderr, "  kernel -addr <addr> [file] broadcast sheet changes over ZeroMQ PUB\n")
	fmt.Fprintf(os.Stderr, "  webview -addr <addr> [-assets dir] [file] serve a live browser view\n")
	fmt.Fprintf(os.Stderr, "  help                      show this help message\n")
}

func replCommand(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "repl takes no positional arguments")
		return 2
	}
	repl.Start(os.Stdin, os.Stdout, spreadsheet.NewSheet())
	return 0
}

func evalCommand(args []string) int {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	printTexts := fs.Bool("texts", false, "print raw cell texts instead of evaluated values")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	in, closeFn, err := openInput(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "eval: %v\n", err)
		return 1
	}
	defer closeFn()

	sheet := spreadsheet.NewSheet()
	if err := loadGrid(sheet, in); err != nil {
		fmt.Fprintf(os.Stderr, "eval: %v\n", err)
		return 1
	}

	var printErr error
	if *printTexts {
		printErr = sheet.PrintTexts(os.Stdout)
	} else {
		printErr = sheet.PrintValues(os.Stdout)
	}
	if printErr != nil {
		fmt.Fprintf(os.Stderr, "eval: %v\n", printErr)
		return 1
	}
	return 0
}

func kernelCommand(args []string) int {
	fs := flag.NewFlagSet("kernel", flag.ContinueOnError)
	addr := fs.String("addr", "tcp://127.0.0.1:5556", "address to bind the PUB socket to")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	sheet := spreadsheet.NewSheet()
	in, closeFn, err := openInput(fs.Args())
	if err == nil {
		if loadErr := loadGrid(sheet, in); loadErr != nil {
			fmt.Fprintf(os.Stderr, "kernel: %v\n", loadErr)
			closeFn()
			return 1
		}
		closeFn()
	}

	b := kernel.New(sheet, *addr, kernel.DefaultClock())
	if err := b.Start(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "kernel: %v\n", err)
		return 1
	}
	defer b.Stop()

	fmt.Printf("tabula kernel broadcasting on %s (Ctrl+C to stop)\n", *addr)
	waitForSignal()
	return 0
}

func webviewCommand(args []string) int {
	fs := flag.NewFlagSet("webview", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "address to serve on")
	assets := fs.String("assets", "", "directory of static viewer assets to serve at /")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	sheet := spreadsheet.NewSheet()
	in, closeFn, err := openInput(fs.Args())
	if err == nil {
		if loadErr := loadGrid(sheet, in); loadErr != nil {
			fmt.Fprintf(os.Stderr, "webview: %v\n", loadErr)
			closeFn()
			return 1
		}
		closeFn()
	}

	srv := webview.NewServer(sheet, *assets)
	if err := srv.Start(*addr); err != nil {
		fmt.Fprintf(os.Stderr, "webview: %v\n", err)
		return 1
	}
	return 0
}

// openInput returns stdin when positional has no file argument, or opens
// positional[0]. The returned closer is always safe to call.
func openInput(positional []string) (io.Reader, func(), error) {
	if len(positional) == 0 {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(positional[0])
	if err != nil {
		return nil, func() {}, err
	}
	return f, func() { _ = f.Close() }, nil
}

// loadGrid reads a tab-separated, newline-terminated grid (the format
// PrintTexts produces) and replays it into sheet as a sequence of
// SetCell calls, skipping blank cells.
func loadGrid(sheet *spreadsheet.Sheet, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	row := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			for col, text := range strings.Split(line, "\t") {
				if text == "" {
					continue
				}
				pos := position.Position{Row: row, Col: col}
				if err := sheet.SetCell(pos, text); err != nil {
					return fmt.Errorf("%s: %w", pos, err)
				}
			}
		}
		row++
	}
	return scanner.Err()
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}
