// Command sheetcli is a terminal client over package engine: type
// "A1=1+2" to set a cell, "undo"/"redo" to walk the history, "save"/"load"
// to persist as JSON, "export"/"import" for CSV, and a bare address to
// print a cell's value. It detects whether stdin is an actual terminal
// (printing a prompt only then) the way a raw-mode REPL would, though formulas are single-line
// text, so there's no need for byte-at-a-time editing here — a
// bufio.Scanner is enough.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/mvogt/gridcalc/address"
	"github.com/mvogt/gridcalc/cellval"
	"github.com/mvogt/gridcalc/engine"
	"github.com/mvogt/gridcalc/sheet"
	"github.com/mvogt/gridcalc/storage"
	"github.com/mvogt/gridcalc/undo"
)

func main() {
	if len(os.Args) > 1 {
		runBatch(os.Args[1])
		return
	}
	runREPL()
}

func runBatch(path string) {
	e := engine.New(sheet.New())
	if err := storage.LoadJSONFile(e, path); err != nil {
		log.Fatalf("sheetcli: %v", err)
	}
	for _, a := range e.Sheet().UsedRange() {
		c, _ := e.Sheet().Get(a)
		fmt.Printf("%s\t%s\n", a, cellval.ToDisplayString(c.Value))
	}
}

func runREPL() {
	isTTY := term.IsTerminal(int(os.Stdin.Fd()))
	e := engine.New(sheet.New())
	h := undo.NewHistory(undo.DefaultCapacity)
	var filename string

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if isTTY {
			fmt.Fprint(os.Stdout, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := dispatch(e, h, &filename, line); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("sheetcli: reading input: %v", err)
	}
}

func dispatch(e *engine.Engine, h *undo.History, filename *string, line string) error {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "undo":
		if !h.Undo(e) {
			return fmt.Errorf("nothing to undo")
		}
		return nil
	case "redo":
		if !h.Redo(e) {
			return fmt.Errorf("nothing to redo")
		}
		return nil
	case "save":
		return saveCommand(e, filename, fields)
	case "load":
		return loadCommand(e, filename, fields)
	case "export":
		return exportCommand(e, fields)
	case "import":
		return importCommand(e, fields)
	case "quit", "exit":
		os.Exit(0)
	}
	return setOrPrint(e, h, line)
}

func saveCommand(e *engine.Engine, filename *string, fields []string) error {
	if len(fields) > 1 {
		*filename = fields[1]
	}
	if *filename == "" {
		return fmt.Errorf("usage: save <file.json>")
	}
	return storage.SaveJSONFile(e, *filename)
}

func loadCommand(e *engine.Engine, filename *string, fields []string) error {
	if len(fields) < 2 {
		return fmt.Errorf("usage: load <file.json>")
	}
	*filename = fields[1]
	return storage.LoadJSONFile(e, *filename)
}

func exportCommand(e *engine.Engine, fields []string) error {
	if len(fields) < 2 {
		return fmt.Errorf("usage: export <file.csv>")
	}
	sh := e.Sheet()
	return storage.ExportCSVFile(e, fields[1], 0, 0, maxInt(sh.MaxRow()-1, 0), maxInt(sh.MaxCol()-1, 0))
}

func importCommand(e *engine.Engine, fields []string) error {
	if len(fields) < 2 {
		return fmt.Errorf("usage: import <file.csv>")
	}
	return storage.ImportCSVFile(e, fields[1], 0, 0)
}

// setOrPrint handles "A1=<raw>" (set, recorded for undo) and a bare "A1"
// (print the cell's current display value).
func setOrPrint(e *engine.Engine, h *undo.History, line string) error {
	addrText, raw, hasEquals := strings.Cut(line, "=")
	addrText = strings.TrimSpace(addrText)
	a, err := address.Parse(strings.ToUpper(addrText))
	if err != nil {
		return fmt.Errorf("not a command or cell address: %q", line)
	}
	if !hasEquals {
		c, ok := e.Sheet().Get(a)
		if !ok {
			fmt.Println("")
			return nil
		}
		fmt.Println(formatValue(c))
		return nil
	}
	h.Do(e, undo.NewSetCell(e, a, raw))
	return nil
}

func formatValue(c sheet.Cell) string {
	if f, ok := c.Value.(float64); ok && c.Format.Precision > 0 {
		return strconv.FormatFloat(f, 'f', c.Format.Precision, 64)
	}
	return cellval.ToDisplayString(c.Value)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
