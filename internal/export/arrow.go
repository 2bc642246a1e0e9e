// Package export writes cleaned tables in columnar formats.
package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/ipc"
	"github.com/apache/arrow/go/v15/arrow/memory"

	"github.com/uday-t-s/car-brand-sales/internal/table"
	"github.com/uday-t-s/car-brand-sales/internal/utils"
)

// Schema maps stored column types onto Arrow types. Every field is nullable.
func Schema(t *table.Table) *arrow.Schema {
	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = arrow.Field{
			Name:     c.Name,
			Type:     arrowType(c.Type),
			Nullable: true,
			Metadata: arrow.Metadata{},
		}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t table.Type) arrow.DataType {
	switch t {
	case table.Int:
		return arrow.PrimitiveTypes.Int64
	case table.Float:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// Record builds one record holding every row of t. The caller releases it.
func Record(mem memory.Allocator, t *table.Table) arrow.Record {
	builder := array.NewRecordBuilder(mem, Schema(t))
	defer builder.Release()

	for i, c := range t.Columns {
		switch b := builder.Field(i).(type) {
		case *array.Int64Builder:
			for _, cell := range c.Cells {
				if cell.Missing {
					b.AppendNull()
					continue
				}
				b.Append(int64(cell.Num))
			}
		case *array.Float64Builder:
			for _, cell := range c.Cells {
				if cell.Missing {
					b.AppendNull()
					continue
				}
				b.Append(cell.Num)
			}
		case *array.StringBuilder:
			for _, cell := range c.Cells {
				if cell.Missing {
					b.AppendNull()
					continue
				}
				b.Append(cell.Raw)
			}
		}
	}
	return builder.NewRecord()
}

// WriteArrow writes t as an Arrow IPC stream holding a single record batch.
func WriteArrow(w io.Writer, t *table.Table) error {
	mem := memory.DefaultAllocator
	rec := Record(mem, t)
	defer rec.Release()

	fw := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return fmt.Errorf("arrow write: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("arrow close: %w", err)
	}
	return nil
}

// WriteArrowFile writes t to path, replacing any existing file atomically.
func WriteArrowFile(path string, t *table.Table) error {
	return utils.WriteFileWith(path, func(w io.Writer) error { return WriteArrow(w, t) })
}

// WriteCSVFile writes t to path as CSV, replacing any existing file atomically.
func WriteCSVFile(path string, t *table.Table) error {
	return utils.WriteFileWith(path, func(w io.Writer) error { return table.WriteCSV(w, t) })
}
