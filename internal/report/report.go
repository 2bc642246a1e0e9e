// Package report renders a Markdown summary comparing an uploaded dataset
// with its cleaned version.
package report

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/uday-t-s/car-brand-sales/internal/pipeline"
	"github.com/uday-t-s/car-brand-sales/internal/table"
)

// Options controls report contents.
type Options struct {
	// SampleRows is how many cleaned rows to include; 0 means 5.
	SampleRows int
	// TopValues limits the categories listed per categorical column.
	TopValues int
}

// DefaultOptions returns reasonable defaults for a cleaning report.
func DefaultOptions() Options {
	return Options{SampleRows: 5, TopValues: 8}
}

// Report is a markdown-friendly view of one cleaning cycle.
type Report struct {
	Name        string
	Rows        int
	CleanedRows int
	Cols        []ColumnSummary
	Trace       pipeline.Trace
	Header      []string
	Samples     [][]string
	Warnings    []string
}

// ColumnSummary describes one column of the cleaned table.
type ColumnSummary struct {
	Name    string
	Role    pipeline.Role
	Type    table.Type
	Missing int // in the original table
	Unique  int
	// Numeric stats over the cleaned rows
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Categorical top values
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// Build summarizes a pipeline result.
func Build(res *pipeline.Result, opt Options) *Report {
	if opt.SampleRows <= 0 {
		opt.SampleRows = 5
	}
	if opt.TopValues <= 0 {
		opt.TopValues = 8
	}
	rep := &Report{
		Name:        res.Name,
		Rows:        res.Original.NumRows(),
		CleanedRows: res.Cleaned.NumRows(),
		Trace:       res.Trace,
		Header:      res.Cleaned.Names(),
	}

	for _, col := range res.Cleaned.Columns {
		role, _ := res.Columns.Role(col.Name)
		s := ColumnSummary{Name: col.Name, Role: role, Type: col.Type}
		if orig, ok := res.Original.Column(col.Name); ok {
			for _, c := range orig.Cells {
				if c.Missing {
					s.Missing++
				}
			}
		}
		counts := map[string]int{}
		for i := range col.Cells {
			if col.Cells[i].Missing {
				continue
			}
			counts[col.Cells[i].Raw]++
		}
		s.Unique = len(counts)

		if role == pipeline.Numeric {
			if vals := col.Values(); len(vals) > 0 {
				s.Min = floats.Min(vals)
				s.Max = floats.Max(vals)
				s.Mean = stat.Mean(vals, nil)
				if len(vals) > 1 {
					s.Std = stat.StdDev(vals, nil)
				}
			}
		} else {
			s.TopValues = topValues(counts, opt.TopValues)
		}
		rep.Cols = append(rep.Cols, s)
	}

	n := res.Cleaned.NumRows()
	if n > opt.SampleRows {
		n = opt.SampleRows
	}
	for i := 0; i < n; i++ {
		rep.Samples = append(rep.Samples, res.Cleaned.Strings(i))
	}

	if rep.Rows > 0 && rep.CleanedRows == 0 {
		rep.Warnings = append(rep.Warnings, "cleaning removed every row")
	}
	for _, b := range res.Trace.Bounds {
		if b.Skipped {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("no values left to trim %s", b.Column))
		}
	}
	return rep
}

func topValues(counts map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// Markdown renders the report.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d (cleaned %d)\n", r.Rows, r.CleanedRows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[CLEANING]\n")
	b.WriteString(fmt.Sprintf("- duplicates removed: %d\n", r.Trace.Duplicates))
	b.WriteString(fmt.Sprintf("- rows with missing values removed: %d\n", r.Trace.Incomplete))
	for _, bd := range r.Trace.Bounds {
		if bd.Skipped {
			b.WriteString(fmt.Sprintf("- %s: skipped (no values)\n", safeName(bd.Column)))
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: kept [%.6g, %.6g], removed %d\n", safeName(bd.Column), bd.Low, bd.High, bd.Removed))
	}

	b.WriteString("\n[SCHEMA]\n")
	for _, c := range r.Cols {
		b.WriteString(fmt.Sprintf("- %s: %s %s (missing before cleaning %d, unique %d)", safeName(c.Name), c.Role, c.Type, c.Missing, c.Unique))
		switch {
		case c.Role == pipeline.Numeric && r.CleanedRows > 0:
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		case len(c.TopValues) > 0:
			b.WriteString(" — top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD OF CLEANED DATA]\n")
		b.WriteString(MarkdownTable(r.Header, r.Samples))
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Head renders the first n rows of t as a Markdown table.
func Head(t *table.Table, n int) string {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, t.Strings(i))
	}
	return MarkdownTable(t.Names(), rows)
}

// MarkdownTable renders a pipe table. Long values are shortened.
func MarkdownTable(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| ")
	for i, h := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeName(h))
	}
	b.WriteString(" |\n| ")
	for i := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if len(val) > 80 {
				val = val[:77] + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
