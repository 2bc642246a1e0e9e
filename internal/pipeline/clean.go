package pipeline

import (
	"strconv"
	"strings"

	"github.com/uday-t-s/car-brand-sales/internal/table"
)

// Quantile cut points applied to every numeric column.
const (
	LowerQuantile = 0.01
	UpperQuantile = 0.99
)

// Bound is the trimming interval used for one numeric column. Skipped is set
// when the column had no values left to compute it from.
type Bound struct {
	Column  string
	Low     float64
	High    float64
	Skipped bool
	Removed int
}

// Trace records what one cleaning cycle did.
type Trace struct {
	InputRows  int
	Duplicates int
	Incomplete int
	Bounds     []Bound
	OutputRows int
}

// Clean runs one cleaning cycle and returns a new table. The input table is
// never modified.
func Clean(t *table.Table) *table.Table {
	out, _ := CleanWithTrace(t)
	return out
}

// CleanWithTrace is Clean that also reports per-step removals and the
// bounds each numeric column was trimmed with.
func CleanWithTrace(t *table.Table) (*table.Table, Trace) {
	tr := Trace{InputRows: t.NumRows()}

	cur := DropDuplicates(t)
	tr.Duplicates = tr.InputRows - cur.NumRows()

	n := cur.NumRows()
	cur = DropIncomplete(cur)
	tr.Incomplete = n - cur.NumRows()

	cur, tr.Bounds = TrimOutliers(cur)
	tr.OutputRows = cur.NumRows()
	return cur, tr
}

// DropDuplicates keeps the first occurrence of every distinct row. Numbers
// compare by value and missing cells compare equal to each other.
func DropDuplicates(t *table.Table) *table.Table {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		k := rowKey(t, i)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	return t.Take(keep)
}

// DropIncomplete removes rows with a missing cell in any column.
func DropIncomplete(t *table.Table) *table.Table {
	keep := make([]int, 0, t.NumRows())
rows:
	for i := 0; i < t.NumRows(); i++ {
		for j := range t.Columns {
			if t.Columns[j].Cells[i].Missing {
				continue rows
			}
		}
		keep = append(keep, i)
	}
	return t.Take(keep)
}

// TrimOutliers walks numeric columns in table order. For each one it computes
// the LowerQuantile and UpperQuantile of the rows still present and drops rows
// outside that closed interval, so later columns see the already trimmed
// table.
func TrimOutliers(t *table.Table) (*table.Table, []Bound) {
	cur := t
	var bounds []Bound
	for j := range t.Columns {
		if !t.Columns[j].Type.IsNumeric() {
			continue
		}
		col := &cur.Columns[j]
		b := Bound{Column: col.Name}
		vals := col.Values()
		lo, okLo := Quantile(vals, LowerQuantile)
		hi, okHi := Quantile(vals, UpperQuantile)
		if !okLo || !okHi {
			b.Skipped = true
			bounds = append(bounds, b)
			continue
		}
		b.Low, b.High = lo, hi

		keep := make([]int, 0, cur.NumRows())
		for i, c := range col.Cells {
			if !c.Missing && c.Num >= lo && c.Num <= hi {
				keep = append(keep, i)
			}
		}
		b.Removed = cur.NumRows() - len(keep)
		bounds = append(bounds, b)
		cur = cur.Take(keep)
	}
	if cur == t {
		cur = t.Take(allRows(t.NumRows()))
	}
	return cur, bounds
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func rowKey(t *table.Table, i int) string {
	var b strings.Builder
	for j := range t.Columns {
		c := t.Columns[j].Cells[i]
		var v string
		switch {
		case c.Missing:
			b.WriteString("-1:")
			continue
		case t.Columns[j].Type.IsNumeric():
			v = strconv.FormatFloat(c.Num, 'g', -1, 64)
		default:
			v = c.Raw
		}
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}
