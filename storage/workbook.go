// Package storage persists a workbook to JSON and imports/exports ranges
// as CSV, grounded on a spreadsheet model's to_dict/from_dict and
// export_csv/import_csv file operations.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mvogt/gridcalc/address"
	"github.com/mvogt/gridcalc/cellval"
	"github.com/mvogt/gridcalc/engine"
	"github.com/mvogt/gridcalc/sheet"
)

// formatDoc is a cell's on-disk display format.
type formatDoc struct {
	Bold      bool `json:"bold,omitempty"`
	Precision int  `json:"precision,omitempty"`
}

// cellDoc is one cell's on-disk representation: {raw, value, format,
// error}, matching a spreadsheet model's Cell.to_dict/from_dict shape.
// value and error are written for fidelity with that shape, but LoadJSON
// never trusts them — every cell is recomputed after load so a stale cached
// value (or one written by a different evaluator) can't leak in. Keys this
// version of cellDoc doesn't recognize survive a decode/re-encode
// round-trip unchanged via extra.
type cellDoc struct {
	Raw    string
	Value  any
	Format formatDoc
	Error  string
	extra  map[string]json.RawMessage
}

func (c cellDoc) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.extra)+4)
	for k, v := range c.extra {
		out[k] = v
	}
	raw, err := json.Marshal(c.Raw)
	if err != nil {
		return nil, err
	}
	out["raw"] = raw

	val, err := json.Marshal(c.Value)
	if err != nil {
		return nil, err
	}
	out["value"] = val

	fmtBytes, err := json.Marshal(c.Format)
	if err != nil {
		return nil, err
	}
	out["format"] = fmtBytes

	if c.Error != "" {
		errBytes, err := json.Marshal(c.Error)
		if err != nil {
			return nil, err
		}
		out["error"] = errBytes
	} else {
		delete(out, "error")
	}
	return json.Marshal(out)
}

func (c *cellDoc) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["raw"]; ok {
		if err := json.Unmarshal(v, &c.Raw); err != nil {
			return fmt.Errorf("storage: cell raw: %w", err)
		}
		delete(raw, "raw")
	}
	if v, ok := raw["value"]; ok {
		if err := json.Unmarshal(v, &c.Value); err != nil {
			return fmt.Errorf("storage: cell value: %w", err)
		}
		delete(raw, "value")
	}
	if v, ok := raw["format"]; ok {
		if err := json.Unmarshal(v, &c.Format); err != nil {
			return fmt.Errorf("storage: cell format: %w", err)
		}
		delete(raw, "format")
	}
	if v, ok := raw["error"]; ok {
		if err := json.Unmarshal(v, &c.Error); err != nil {
			return fmt.Errorf("storage: cell error: %w", err)
		}
		delete(raw, "error")
	}
	if len(raw) > 0 {
		c.extra = raw
	}
	return nil
}

// workbookDoc is the root JSON document written by SaveJSON: cells are
// keyed by "row,col", matching a spreadsheet model's position-string keys.
type workbookDoc struct {
	SheetName string             `json:"sheet_name"`
	MaxRow    int                `json:"max_row"`
	MaxCol    int                `json:"max_col"`
	Cells     map[string]cellDoc `json:"cells"`
}

// SaveJSON writes every populated cell's raw text, last computed value,
// format, and error state to w as JSON.
func SaveJSON(e *engine.Engine, w io.Writer) error {
	sh := e.Sheet()
	doc := workbookDoc{
		SheetName: "Sheet1",
		MaxRow:    sh.MaxRow(),
		MaxCol:    sh.MaxCol(),
		Cells:     make(map[string]cellDoc),
	}
	for _, a := range sh.UsedRange() {
		c, ok := sh.Get(a)
		if !ok {
			continue
		}
		cd := cellDoc{
			Raw:    c.Raw,
			Value:  c.Value,
			Format: formatDoc{Bold: c.Format.Bold, Precision: c.Format.Precision},
		}
		if errVal, isErr := cellval.AsError(c.Value); isErr {
			cd.Value = string(errVal.Code)
			cd.Error = string(errVal.Code)
		}
		doc.Cells[posKey(a)] = cd
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// SaveJSONFile is SaveJSON against a file at path, created or truncated.
func SaveJSONFile(e *engine.Engine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", path, err)
	}
	defer f.Close()
	return SaveJSON(e, f)
}

// LoadJSON replaces e's sheet contents with whatever r's JSON document
// describes, installing each formula and then recalculating once so
// dependency order is respected regardless of the order cells appear in
// the file. The decoded value/error fields are ignored: recalculation is
// the only source of truth for a cell's value after load.
func LoadJSON(e *engine.Engine, r io.Reader) error {
	var doc workbookDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("storage: decode workbook: %w", err)
	}
	for _, a := range e.Sheet().UsedRange() {
		e.InstallFormula(a, "")
		e.Sheet().Delete(a)
	}
	for key, cd := range doc.Cells {
		a, err := parsePosKey(key)
		if err != nil {
			return fmt.Errorf("storage: cell %q: %w", key, err)
		}
		e.InstallFormula(a, cd.Raw)
		if cd.Format.Precision != 0 || cd.Format.Bold {
			e.Sheet().SetFormat(a, sheet.Format{Precision: cd.Format.Precision, Bold: cd.Format.Bold})
		}
	}
	e.Recalculate()
	return nil
}

// LoadJSONFile is LoadJSON against the file at path.
func LoadJSONFile(e *engine.Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("storage: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadJSON(e, f)
}

func posKey(a address.Addr) string {
	return fmt.Sprintf("%d,%d", a.Row, a.Col)
}

func parsePosKey(key string) (address.Addr, error) {
	rowText, colText, found := strings.Cut(key, ",")
	if !found {
		return address.Addr{}, fmt.Errorf("expected \"row,col\"")
	}
	row, err := strconv.Atoi(rowText)
	if err != nil {
		return address.Addr{}, fmt.Errorf("row: %w", err)
	}
	col, err := strconv.Atoi(colText)
	if err != nil {
		return address.Addr{}, fmt.Errorf("col: %w", err)
	}
	return address.Addr{Row: row, Col: col}, nil
}
