package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mvogt/gridcalc/address"
	"github.com/mvogt/gridcalc/cellval"
	"github.com/mvogt/gridcalc/engine"
)

// ExportCSV writes the rectangle [startRow,startCol]..[endRow,endCol] (both
// inclusive, 0-based) to w as CSV, one row per line, using each cell's
// display value the same way the sheet renders it on screen.
func ExportCSV(e *engine.Engine, w io.Writer, startRow, startCol, endRow, endCol int) error {
	if startRow > endRow || startCol > endCol {
		return fmt.Errorf("storage: empty export range")
	}
	cw := csv.NewWriter(w)
	sh := e.Sheet()
	for row := startRow; row <= endRow; row++ {
		record := make([]string, 0, endCol-startCol+1)
		for col := startCol; col <= endCol; col++ {
			c, ok := sh.Get(address.Addr{Row: row, Col: col})
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, cellval.ToDisplayString(c.Value))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("storage: write csv row %d: %w", row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSVFile is ExportCSV against a file at path, created or truncated.
func ExportCSVFile(e *engine.Engine, path string, startRow, startCol, endRow, endCol int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", path, err)
	}
	defer f.Close()
	return ExportCSV(e, f, startRow, startCol, endRow, endCol)
}

// ImportCSV reads r as CSV and installs each non-empty field as a cell
// starting at (startRow, startCol), normalizing numeric-looking fields the
// way a paste from a spreadsheet does. It recalculates once at the end.
func ImportCSV(e *engine.Engine, r io.Reader, startRow, startCol int) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows are fine; short rows just leave trailing cells untouched
	row := startRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("storage: read csv: %w", err)
		}
		for i, field := range record {
			if field == "" {
				continue
			}
			e.InstallFormula(address.Addr{Row: row, Col: startCol + i}, normalizeImportedField(field))
		}
		row++
	}
	e.Recalculate()
	return nil
}

// ImportCSVFile is ImportCSV against the file at path.
func ImportCSVFile(e *engine.Engine, path string, startRow, startCol int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("storage: open %s: %w", path, err)
	}
	defer f.Close()
	return ImportCSV(e, f, startRow, startCol)
}

// normalizeImportedField re-renders a numeric-looking CSV field through
// Go's own float formatting so imported numbers match however the
// evaluator would have produced them (e.g. "007" becomes "7").
func normalizeImportedField(field string) string {
	if !cellval.LooksNumeric(field) {
		return field
	}
	f, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return field
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
