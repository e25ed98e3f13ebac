package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Column is a fixture column. A nil entry in Values is written as null.
type Column struct {
	Name   string
	Type   arrow.DataType
	Values []any
}

// Int64Col, Float64Col, Int32Col and StringCol build fixture columns.
func Int64Col(name string, values ...any) Column {
	return Column{Name: name, Type: arrow.PrimitiveTypes.Int64, Values: values}
}

func Int32Col(name string, values ...any) Column {
	return Column{Name: name, Type: arrow.PrimitiveTypes.Int32, Values: values}
}

func Float64Col(name string, values ...any) Column {
	return Column{Name: name, Type: arrow.PrimitiveTypes.Float64, Values: values}
}

func StringCol(name string, values ...any) Column {
	return Column{Name: name, Type: arrow.BinaryTypes.String, Values: values}
}

// WriteParquet writes the columns to path with rowGroupSize rows per row
// group. Every column must hold the same number of values.
func WriteParquet(t *testing.T, path string, rowGroupSize int64, cols ...Column) string {
	t.Helper()
	mem := memory.NewGoAllocator()

	fields := make([]arrow.Field, len(cols))
	arrays := make([]arrow.Array, len(cols))
	var rows int64
	for j, c := range cols {
		fields[j] = arrow.Field{Name: c.Name, Type: c.Type, Nullable: true}
		b := array.NewBuilder(mem, c.Type)
		for _, v := range c.Values {
			appendValue(t, b, v)
		}
		arrays[j] = b.NewArray()
		b.Release()
		rows = int64(arrays[j].Len())
	}
	rec := array.NewRecord(arrow.NewSchema(fields, nil), arrays, rows)
	defer rec.Release()
	for _, a := range arrays {
		a.Release()
	}
	tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
	defer tbl.Release()

	out, err := os.Create(path)
	require.NoError(t, err)
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	require.NoError(t, pqarrow.WriteTable(tbl, out, rowGroupSize, props, pqarrow.DefaultWriterProps()))
	_ = out.Close()
	return path
}

func appendValue(t *testing.T, b array.Builder, v any) {
	t.Helper()
	if v == nil {
		b.AppendNull()
		return
	}
	switch bb := b.(type) {
	case *array.Int64Builder:
		bb.Append(int64(v.(int)))
	case *array.Int32Builder:
		bb.Append(int32(v.(int)))
	case *array.Float64Builder:
		bb.Append(v.(float64))
	case *array.StringBuilder:
		bb.Append(v.(string))
	default:
		t.Fatalf("unsupported fixture builder %T", b)
	}
}

// FileSuite is a testify suite base with a scratch directory and a
// deadline-bound context.
type FileSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	dir    string
}

// SetupTest runs before each test in the suite.
func (s *FileSuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), time.Minute)
	s.dir = s.T().TempDir()
}

// TearDownTest runs after each test in the suite.
func (s *FileSuite) TearDownTest() {
	s.cancel()
}

// Context returns the test context.
func (s *FileSuite) Context() context.Context {
	return s.ctx
}

// Path returns name inside the scratch directory.
func (s *FileSuite) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// WriteParquet writes a fixture file named name into the scratch directory.
func (s *FileSuite) WriteParquet(name string, rowGroupSize int64, cols ...Column) string {
	return WriteParquet(s.T(), s.Path(name), rowGroupSize, cols...)
}

// WriteLines writes one line per entry into the scratch directory.
func (s *FileSuite) WriteLines(name string, lines ...string) string {
	var data []byte
	for _, l := range lines {
		data = append(data, l...)
		data = append(data, '\n')
	}
	path := s.Path(name)
	require.NoError(s.T(), os.WriteFile(path, data, 0o600))
	return path
}
