package columnar

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"go.uber.org/zap"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/schema"
)

// BatchReader decodes each selected column chunk into arrow arrays and
// copies the in-range slots to the host.
type BatchReader struct {
	Allocator memory.Allocator
	Logger    *zap.Logger
}

var _ Reader = (*BatchReader)(nil)

// Read implements Reader.
func (r *BatchReader) Read(ctx context.Context, f *File, req ReadRequest, sink host.Sink) (ReadResult, error) {
	mem := r.Allocator
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	fr, err := pqarrow.NewFileReader(f.rdr, pqarrow.ArrowReadProperties{Parallel: req.Parallel}, mem)
	if err != nil {
		return ReadResult{}, sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot create arrow reader for "+f.path)
	}

	return readPlan(ctx, f, req, sink, r.Logger, func(ctx context.Context, c *columnCursor, col int) error {
		desc, err := f.Descriptor(col)
		if err != nil {
			return err
		}
		v := &batchColumn{ctx: ctx, reader: fr, cursor: c, col: col}
		defer v.release()
		return schema.Dispatch(desc.Physical, v)
	})
}

// batchColumn is the batch reader's visitor for one column chunk.
type batchColumn struct {
	ctx    context.Context
	reader *pqarrow.FileReader
	cursor *columnCursor
	col    int
	table  arrow.Table
}

func (v *batchColumn) load() ([]arrow.Array, error) {
	tbl, err := v.reader.ReadRowGroups(v.ctx, []int{v.col}, []int{v.cursor.span.group})
	if err != nil {
		return nil, sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot read column "+v.cursor.name)
	}
	v.table = tbl
	if tbl.NumCols() != 1 {
		return nil, sperrors.Newf(sperrors.ErrorTypeUnderlyingLibrary,
			"expected one column for %s, got %d", v.cursor.name, tbl.NumCols())
	}
	return tbl.Column(0).Data().Chunks(), nil
}

func (v *batchColumn) release() {
	if v.table != nil {
		v.table.Release()
		v.table = nil
	}
}

func (v *batchColumn) Boolean() error { return v.numeric() }
func (v *batchColumn) Int32() error   { return v.numeric() }
func (v *batchColumn) Int64() error   { return v.numeric() }
func (v *batchColumn) Float32() error { return v.numeric() }
func (v *batchColumn) Float64() error { return v.numeric() }

func (v *batchColumn) ByteArray() error {
	if err := v.cursor.checkStringColumn(); err != nil {
		return err
	}
	arrays, err := v.load()
	if err != nil {
		return err
	}
	return eachSlot(v.cursor, arrays, func(arr arrow.Array) (func(k int) (bool, error), error) {
		switch a := arr.(type) {
		case *array.String:
			return func(k int) (bool, error) {
				return v.cursor.text(v.index(k), a.Value(k), a.IsValid(k))
			}, nil
		case *array.Binary:
			return func(k int) (bool, error) {
				return v.cursor.bytes(v.index(k), a.Value(k), a.IsValid(k))
			}, nil
		case *array.LargeString:
			return func(k int) (bool, error) {
				return v.cursor.text(v.index(k), a.Value(k), a.IsValid(k))
			}, nil
		default:
			return nil, unexpectedArray(v.cursor, arr)
		}
	})
}

func (v *batchColumn) FixedByteArray(width int) error {
	if err := v.cursor.checkStringColumn(); err != nil {
		return err
	}
	if err := v.cursor.checkFixedWidth(width); err != nil {
		return err
	}
	arrays, err := v.load()
	if err != nil {
		return err
	}
	return eachSlot(v.cursor, arrays, func(arr arrow.Array) (func(k int) (bool, error), error) {
		a, ok := arr.(*array.FixedSizeBinary)
		if !ok {
			return nil, unexpectedArray(v.cursor, arr)
		}
		return func(k int) (bool, error) {
			return v.cursor.fixed(v.index(k), a.Value(k), a.IsValid(k))
		}, nil
	})
}

func (v *batchColumn) numeric() error {
	arrays, err := v.load()
	if err != nil {
		return err
	}
	return eachSlot(v.cursor, arrays, func(arr arrow.Array) (func(k int) (bool, error), error) {
		value, err := numericAccessor(v.cursor, arr)
		if err != nil {
			return nil, err
		}
		return func(k int) (bool, error) {
			return v.cursor.numeric(v.index(k), value(k), arr.IsValid(k))
		}, nil
	})
}

// index maps element k of the current array to its in-group index.
func (v *batchColumn) index(k int) int64 {
	return v.cursor.chunkStart + int64(k) + 1
}

// eachSlot visits the in-range elements of consecutive arrays of one
// column chunk. bind returns the per-element store for an array.
func eachSlot(c *columnCursor, arrays []arrow.Array, bind func(arrow.Array) (func(k int) (bool, error), error)) error {
	c.chunkStart = 0
	for _, arr := range arrays {
		n := int64(arr.Len())
		start := max(c.span.lo-1-c.chunkStart, 0)
		end := min(c.span.hi-c.chunkStart, n)
		if start < end {
			store, err := bind(arr)
			if err != nil {
				return err
			}
			for k := start; k < end; k++ {
				done, err := store(int(k))
				if err != nil {
					return err
				}
				if done {
					return nil
				}
			}
		}
		c.chunkStart += n
		if c.chunkStart >= c.span.hi {
			break
		}
	}
	return nil
}

// numericAccessor returns a float64 view of a numeric arrow array.
func numericAccessor(c *columnCursor, arr arrow.Array) (func(k int) float64, error) {
	switch a := arr.(type) {
	case *array.Boolean:
		return func(k int) float64 {
			if a.Value(k) {
				return 1
			}
			return 0
		}, nil
	case *array.Int8:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Int16:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Int32:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Int64:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Uint8:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Uint16:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Uint32:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Uint64:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Float32:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Float64:
		return func(k int) float64 { return a.Value(k) }, nil
	case *array.Date32:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Date64:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Time32:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Time64:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	case *array.Timestamp:
		return func(k int) float64 { return float64(a.Value(k)) }, nil
	default:
		return nil, unexpectedArray(c, arr)
	}
}

func unexpectedArray(c *columnCursor, arr arrow.Array) error {
	return sperrors.Newf(sperrors.ErrorTypeUnknownType,
		"column %s decoded to unsupported arrow type %s", c.name, arr.DataType())
}
