package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/ipc"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uday-t-s/car-brand-sales/internal/table"
)

func load(t *testing.T, csv string) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(csv), table.ReadOptions{})
	require.NoError(t, err)
	return tbl
}

func TestSchemaFollowsStoredTypes(t *testing.T) {
	s := Schema(load(t, "brand,year,price\nToyota,2019,\nFord,2020,1.5\n"))
	require.Equal(t, 3, s.NumFields())
	assert.Equal(t, arrow.BinaryTypes.String, s.Field(0).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, s.Field(1).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Float64, s.Field(2).Type)
}

func TestWriteArrowRoundTrip(t *testing.T) {
	tbl := load(t, "brand,year,price\nToyota,2019,\nFord,2020,1.5\n")

	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, tbl))

	r, err := ipc.NewReader(bytes.NewReader(buf.Bytes()), ipc.WithAllocator(memory.DefaultAllocator))
	require.NoError(t, err)
	defer r.Release()
	assert.True(t, r.Schema().Equal(Schema(tbl)))

	require.True(t, r.Next())
	rec := r.Record()
	assert.Equal(t, int64(2), rec.NumRows())

	brands := rec.Column(0).(*array.String)
	assert.Equal(t, "Toyota", brands.Value(0))
	assert.Equal(t, "Ford", brands.Value(1))

	years := rec.Column(1).(*array.Int64)
	assert.Equal(t, []int64{2019, 2020}, years.Int64Values())

	prices := rec.Column(2).(*array.Float64)
	assert.True(t, prices.IsNull(0))
	assert.Equal(t, 1.5, prices.Value(1))

	assert.False(t, r.Next())
	require.NoError(t, r.Err())
}

func TestWriteArrowEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, load(t, "brand,price\n")))
	assert.NotZero(t, buf.Len())
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	tbl := load(t, "brand,price\nToyota,20000\n")

	csvPath := filepath.Join(dir, "cleaned.csv")
	require.NoError(t, WriteCSVFile(csvPath, tbl))
	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "brand,price\nToyota,20000\n", string(b))

	arrowPath := filepath.Join(dir, "cleaned.arrow")
	require.NoError(t, WriteArrowFile(arrowPath, tbl))
	f, err := os.Open(arrowPath)
	require.NoError(t, err)
	defer f.Close()
	r, err := ipc.NewReader(f)
	require.NoError(t, err)
	defer r.Release()
	require.True(t, r.Next())
	assert.Equal(t, int64(1), r.Record().NumRows())
}
