package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadOptions controls how an upload is decoded.
type ReadOptions struct {
	// Delimiter for CSV. If 0, ',' is used (or '\t' for .tsv files).
	Delimiter rune
	// SheetName selects an XLSX sheet by name.
	SheetName string
	// SheetIndex selects an XLSX sheet by 1-based index when SheetName is empty.
	SheetIndex int
}

// ReadCSV parses a delimited stream whose first record is the header.
func ReadCSV(r io.Reader, opt ReadOptions) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comma = ','
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Err: ErrNoColumns}
		}
		return nil, &ParseError{Err: fmt.Errorf("read header: %w", err)}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &ParseError{Err: fmt.Errorf("read row %d: %w", len(rows)+1, err)}
		}
		rows = append(rows, rec)
	}
	return FromRecords(header, rows)
}

// Read decodes an upload, choosing CSV/TSV or XLSX by file name.
func Read(name string, r io.Reader, opt ReadOptions) (*Table, error) {
	var (
		t   *Table
		err error
	)
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		t, err = ReadXLSX(r, opt)
	} else {
		if opt.Delimiter == 0 {
			opt.Delimiter = sniffDelimiter(name)
		}
		t, err = ReadCSV(r, opt)
	}
	var perr *ParseError
	if errors.As(err, &perr) && perr.Source == "" {
		perr.Source = filepath.Base(name)
	}
	return t, err
}

// ReadFile opens path and decodes it with Read.
func ReadFile(path string, opt ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(path, f, opt)
}

// WriteCSV writes the table with its original cell text; missing cells are
// written empty.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := cw.Write(t.Strings(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func sniffDelimiter(name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	return ','
}
