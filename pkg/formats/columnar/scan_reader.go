package columnar

import (
	"context"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"go.uber.org/zap"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/schema"
)

// DefaultScanBatch is the number of levels a ScanReader decodes per call.
const DefaultScanBatch = 4096

// ScanReader pulls values one at a time through typed column-chunk
// cursors, consuming rows before the range without storing them.
type ScanReader struct {
	BatchSize int64
	Logger    *zap.Logger
}

var _ Reader = (*ScanReader)(nil)

// Read implements Reader.
func (r *ScanReader) Read(ctx context.Context, f *File, req ReadRequest, sink host.Sink) (ReadResult, error) {
	batch := r.BatchSize
	if batch <= 0 {
		batch = DefaultScanBatch
	}
	return readPlan(ctx, f, req, sink, r.Logger, func(ctx context.Context, c *columnCursor, col int) error {
		desc, err := f.Descriptor(col)
		if err != nil {
			return err
		}
		v := &scanColumn{file: f, cursor: c, col: col, batch: batch, maxDef: f.maxDefinitionLevel(col)}
		return schema.Dispatch(desc.Physical, v)
	})
}

// scanColumn is the scan reader's visitor for one column chunk.
type scanColumn struct {
	file   *File
	cursor *columnCursor
	col    int
	batch  int64
	maxDef int16
}

func (v *scanColumn) chunk() (file.ColumnChunkReader, error) {
	cr, err := v.file.rdr.RowGroup(v.cursor.span.group).Column(v.col)
	if err != nil {
		return nil, sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot open column "+v.cursor.name)
	}
	return cr, nil
}

func (v *scanColumn) Boolean() error {
	cr, err := v.chunk()
	if err != nil {
		return err
	}
	r, ok := cr.(*file.BooleanColumnChunkReader)
	if !ok {
		return unexpectedChunk(v.cursor, cr)
	}
	return scanValues(v, r.HasNext, r.ReadBatch, func(i int64, x bool, valid bool) (bool, error) {
		z := 0.0
		if x {
			z = 1
		}
		return v.cursor.numeric(i, z, valid)
	})
}

func (v *scanColumn) Int32() error {
	cr, err := v.chunk()
	if err != nil {
		return err
	}
	r, ok := cr.(*file.Int32ColumnChunkReader)
	if !ok {
		return unexpectedChunk(v.cursor, cr)
	}
	return scanValues(v, r.HasNext, r.ReadBatch, func(i int64, x int32, valid bool) (bool, error) {
		return v.cursor.numeric(i, float64(x), valid)
	})
}

func (v *scanColumn) Int64() error {
	cr, err := v.chunk()
	if err != nil {
		return err
	}
	r, ok := cr.(*file.Int64ColumnChunkReader)
	if !ok {
		return unexpectedChunk(v.cursor, cr)
	}
	return scanValues(v, r.HasNext, r.ReadBatch, func(i int64, x int64, valid bool) (bool, error) {
		return v.cursor.numeric(i, float64(x), valid)
	})
}

func (v *scanColumn) Float32() error {
	cr, err := v.chunk()
	if err != nil {
		return err
	}
	r, ok := cr.(*file.Float32ColumnChunkReader)
	if !ok {
		return unexpectedChunk(v.cursor, cr)
	}
	return scanValues(v, r.HasNext, r.ReadBatch, func(i int64, x float32, valid bool) (bool, error) {
		return v.cursor.numeric(i, float64(x), valid)
	})
}

func (v *scanColumn) Float64() error {
	cr, err := v.chunk()
	if err != nil {
		return err
	}
	r, ok := cr.(*file.Float64ColumnChunkReader)
	if !ok {
		return unexpectedChunk(v.cursor, cr)
	}
	return scanValues(v, r.HasNext, r.ReadBatch, func(i int64, x float64, valid bool) (bool, error) {
		return v.cursor.numeric(i, x, valid)
	})
}

func (v *scanColumn) ByteArray() error {
	if err := v.cursor.checkStringColumn(); err != nil {
		return err
	}
	cr, err := v.chunk()
	if err != nil {
		return err
	}
	r, ok := cr.(*file.ByteArrayColumnChunkReader)
	if !ok {
		return unexpectedChunk(v.cursor, cr)
	}
	return scanValues(v, r.HasNext, r.ReadBatch, func(i int64, x parquet.ByteArray, valid bool) (bool, error) {
		return v.cursor.bytes(i, x, valid)
	})
}

func (v *scanColumn) FixedByteArray(width int) error {
	if err := v.cursor.checkStringColumn(); err != nil {
		return err
	}
	if err := v.cursor.checkFixedWidth(width); err != nil {
		return err
	}
	cr, err := v.chunk()
	if err != nil {
		return err
	}
	r, ok := cr.(*file.FixedLenByteArrayColumnChunkReader)
	if !ok {
		return unexpectedChunk(v.cursor, cr)
	}
	return scanValues(v, r.HasNext, r.ReadBatch, func(i int64, x parquet.FixedLenByteArray, valid bool) (bool, error) {
		return v.cursor.fixed(i, x, valid)
	})
}

// batchReadFunc is the ReadBatch method shared by the typed chunk readers.
type batchReadFunc[T any] func(batchSize int64, values []T, defLvls, repLvls []int16) (int64, int, error)

// scanValues walks a column chunk level by level. Values are packed: only
// levels at the maximum definition level consume one. emit reports when
// the cursor has passed its range.
func scanValues[T any](v *scanColumn, hasNext func() bool, read batchReadFunc[T], emit func(i int64, x T, valid bool) (bool, error)) error {
	values := make([]T, v.batch)
	defs := make([]int16, v.batch)
	var i int64
	for hasNext() {
		levels, _, err := read(v.batch, values, defs, nil)
		if err != nil {
			return sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot decode column "+v.cursor.name)
		}
		if levels == 0 {
			break
		}
		next := 0
		for k := int64(0); k < levels; k++ {
			i++
			valid := v.maxDef == 0 || defs[k] == v.maxDef
			var x T
			if valid {
				x = values[next]
				next++
			}
			done, err := emit(i, x, valid)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
	return nil
}

func unexpectedChunk(c *columnCursor, cr file.ColumnChunkReader) error {
	return sperrors.Newf(sperrors.ErrorTypeUnknownType,
		"column %s has unexpected chunk reader %T", c.name, cr)
}
