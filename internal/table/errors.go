package table

import (
	"errors"
	"fmt"
)

var (
	// ErrNoColumns indicates the input had no header row.
	ErrNoColumns = errors.New("no columns to parse")
	// ErrDuplicateColumn indicates two header cells share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")
	// ErrRaggedRow indicates a data row has more fields than the header.
	ErrRaggedRow = errors.New("too many fields")
)

// ParseError reports an upload that could not be decoded into a table.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Source != "" && e.Line > 0:
		return fmt.Sprintf("parse %s: line %d: %v", e.Source, e.Line, e.Err)
	case e.Source != "":
		return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("parse: line %d: %v", e.Line, e.Err)
	default:
		return fmt.Sprintf("parse: %v", e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }
