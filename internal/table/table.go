package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type is the storage type inferred for a column when the table is parsed.
// It is kept as-is when rows are later removed.
type Type int

const (
	Text Type = iota
	Int
	Float
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int64"
	case Float:
		return "float64"
	default:
		return "text"
	}
}

// IsNumeric reports whether values of this type are stored as numbers.
func (t Type) IsNumeric() bool { return t == Int || t == Float }

// Cell is a single value. Num is only meaningful for numeric columns.
type Cell struct {
	Raw     string
	Num     float64
	Missing bool
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name  string
	Type  Type
	Cells []Cell
}

// Values returns the non-missing numbers of a numeric column.
func (c *Column) Values() []float64 {
	out := make([]float64, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if cell.Missing {
			continue
		}
		out = append(out, cell.Num)
	}
	return out
}

// Table is an ordered set of uniquely named columns of equal length.
type Table struct {
	Columns []Column
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Names returns column names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	return &t.Columns[i], true
}

// Row returns the cells of row i across all columns.
func (t *Table) Row(i int) []Cell {
	row := make([]Cell, len(t.Columns))
	for j := range t.Columns {
		row[j] = t.Columns[j].Cells[i]
	}
	return row
}

// Take returns a new table holding the given rows, in the given order.
// Column names and storage types are carried over unchanged.
func (t *Table) Take(rows []int) *Table {
	out := &Table{Columns: make([]Column, len(t.Columns))}
	for j, c := range t.Columns {
		cells := make([]Cell, len(rows))
		for k, r := range rows {
			cells[k] = c.Cells[r]
		}
		out.Columns[j] = Column{Name: c.Name, Type: c.Type, Cells: cells}
	}
	return out
}

// Head returns the first n rows as a new table.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > t.NumRows() {
		n = t.NumRows()
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.Take(rows)
}

// Strings returns the row as raw text, with missing cells rendered empty.
func (t *Table) Strings(i int) []string {
	out := make([]string, len(t.Columns))
	for j := range t.Columns {
		c := t.Columns[j].Cells[i]
		if !c.Missing {
			out[j] = c.Raw
		}
	}
	return out
}

// FromRecords builds a table from a header and string rows, inferring each
// column's storage type. Short rows are padded with missing cells.
func FromRecords(header []string, rows [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, &ParseError{Err: ErrNoColumns}
	}
	names := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if _, dup := seen[name]; dup {
			return nil, &ParseError{Err: fmt.Errorf("%w: %q", ErrDuplicateColumn, name)}
		}
		seen[name] = struct{}{}
		names[i] = name
	}
	for i, rec := range rows {
		if len(rec) > len(names) {
			return nil, &ParseError{Line: i + 2, Err: fmt.Errorf("%w: expected %d fields, saw %d", ErrRaggedRow, len(names), len(rec))}
		}
	}

	t := &Table{Columns: make([]Column, len(names))}
	for j, name := range names {
		raw := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				raw[i] = rec[j]
			}
		}
		t.Columns[j] = buildColumn(name, raw)
	}
	return t, nil
}

func buildColumn(name string, raw []string) Column {
	typ := inferType(raw)
	cells := make([]Cell, len(raw))
	for i, v := range raw {
		if isMissing(v) {
			cells[i] = Cell{Raw: v, Missing: true}
			continue
		}
		c := Cell{Raw: v}
		if typ.IsNumeric() {
			c.Num, _ = parseNumber(v)
		}
		cells[i] = c
	}
	return Column{Name: name, Type: typ, Cells: cells}
}

// inferType decides Int, Float or Text for a column. A column with missing
// cells cannot be Int; an all-missing column is Float. A column without any
// rows has nothing to infer from and stays Text.
func inferType(raw []string) Type {
	if len(raw) == 0 {
		return Text
	}
	allInt := true
	hasMissing := false
	for _, v := range raw {
		if isMissing(v) {
			hasMissing = true
			continue
		}
		s := strings.TrimSpace(v)
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			continue
		}
		allInt = false
		if _, ok := parseNumber(s); !ok {
			return Text
		}
	}
	if allInt && !hasMissing {
		return Int
	}
	return Float
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	// strconv accepts hex floats and digit separators that CSV data never means.
	if strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if f == 0 {
		f = 0 // fold -0
	}
	return f, !math.IsNaN(f)
}

var naValues = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"NULL": {}, "null": {}, "None": {}, "<NA>": {}, "#N/A": {}, "#NA": {}, "#N/A N/A": {},
	"1.#IND": {}, "-1.#IND": {}, "1.#QNAN": {}, "-1.#QNAN": {},
}

// isMissing matches only the exact NA spellings. Whitespace-only cells are
// text, not missing.
func isMissing(v string) bool {
	_, ok := naValues[v]
	return ok
}
