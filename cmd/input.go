package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uday-t-s/car-brand-sales/internal/table"
)

// inputFlags are the decoding flags shared by commands that read a dataset.
type inputFlags struct {
	delimiter  string
	sheetName  string
	sheetIndex int
}

func (f *inputFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default by extension)")
	c.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	c.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (f *inputFlags) options() (table.ReadOptions, error) {
	opt := table.ReadOptions{SheetName: f.sheetName, SheetIndex: f.sheetIndex}
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	return opt, nil
}

func (f *inputFlags) read(path string) (*table.Table, error) {
	opt, err := f.options()
	if err != nil {
		return nil, err
	}
	return table.ReadFile(path, opt)
}

// rowsOrDefault resolves a --rows flag: values <= 0 fall back to the
// configured display_rows, and the result never exceeds n.
func rowsOrDefault(flag, configured, n int) int {
	rows := flag
	if rows <= 0 {
		rows = configured
	}
	if rows <= 0 {
		rows = 50
	}
	return min(rows, n)
}
