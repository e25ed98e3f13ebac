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
	"github.com/ajitpratap0/sparquet/pkg/logger"
	"github.com/ajitpratap0/sparquet/pkg/metrics"
	"github.com/ajitpratap0/sparquet/pkg/progress"
	"github.com/ajitpratap0/sparquet/pkg/schema"
	stringpool "github.com/ajitpratap0/sparquet/pkg/strings"
)

// BuilderWriter copies host columns into arrow builders, finalising an
// array whenever a column's in-flight chunk exceeds the byte budget, and
// writes the resulting table in row groups of RowGroupSize rows. Missing
// values become nulls.
type BuilderWriter struct {
	Allocator memory.Allocator
	Logger    *zap.Logger
}

var _ Writer = (*BuilderWriter)(nil)

// Write implements Writer.
func (w *BuilderWriter) Write(ctx context.Context, src host.Source, req WriteRequest) (WriteResult, error) {
	cols, err := planWrite(req)
	if err != nil {
		return WriteResult{}, err
	}
	l := w.Logger
	if l == nil {
		l = logger.Get()
	}
	mem := w.Allocator
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	budget := req.ChunkBytes
	if budget <= 0 {
		budget = DefaultChunkBytes
	}
	rgSize := req.RowGroupSize
	if rgSize <= 0 {
		rgSize = DefaultRowGroupSize
	}
	timer := progress.NewTimer(l)

	var res WriteResult
	fields := make([]arrow.Field, len(cols))
	columns := make([]arrow.Column, 0, len(cols))
	defer func() {
		for i := range columns {
			columns[i].Release()
		}
	}()
	for j, c := range cols {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		dtype, err := c.physical.ArrowType()
		if err != nil {
			return res, err
		}
		bc := &builderColumn{
			req:     req,
			col:     c,
			columns: len(cols),
			values:  rowValue{src: src, path: req.Path},
			builder: array.NewBuilder(mem, dtype),
			budget:  budget,
		}
		if err := schema.Dispatch(c.physical, bc); err != nil {
			bc.release()
			return res, err
		}
		fields[j] = arrow.Field{Name: c.name, Type: dtype, Nullable: true}
		chunked := arrow.NewChunked(dtype, bc.chunks)
		columns = append(columns, *arrow.NewColumn(fields[j], chunked))
		chunked.Release()
		bc.release()

		res.Rows = bc.rows
		res.ExtendedMissing += bc.extended
		l.Debug("built column",
			zap.String("column", c.name),
			zap.Int("chunks", len(columns[j].Data().Chunks())))
	}
	timer.Lap("Copied data into Arrow table")

	tbl := array.NewTable(arrow.NewSchema(fields, nil), columns, res.Rows)
	defer tbl.Release()

	out, err := createOutput(req.Path)
	if err != nil {
		return res, err
	}
	err = pqarrow.WriteTable(tbl, out, rgSize, writerProperties(req, rgSize), pqarrow.DefaultWriterProps())
	if cerr := closeOutput(out); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return res, sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot write "+req.Path)
	}
	timer.Lap("Wrote table to file")

	metrics.RowsWritten.WithLabelValues("builder").Add(float64(res.Rows))
	metrics.Coerced(metrics.CoercedExtendedMissing, res.ExtendedMissing)
	logWrite(l, "builder", req, res)
	return res, nil
}

// builderColumn is the builder writer's visitor for one output column.
type builderColumn struct {
	req     WriteRequest
	col     outColumn
	columns int
	values  rowValue
	builder array.Builder
	budget  int64

	chunks   []arrow.Array
	bytes    int64
	rows     int64
	extended int64
}

// each appends every selected row through add, which returns the bytes it
// added to the in-flight chunk. Rows rejected by the predicate still count
// toward progress.
func (b *builderColumn) each(add func(row int64) (int64, error)) error {
	n := b.req.To - b.req.From + 1
	for row := b.req.From; row <= b.req.To; row++ {
		tickWrite(b.req.Progress, b.col, b.columns, row-b.req.From+1, n)
		if b.req.If != nil && !b.req.If(row) {
			continue
		}
		size, err := add(row)
		if err != nil {
			return err
		}
		b.rows++
		b.bytes += size
		if b.bytes > b.budget {
			b.flush()
		}
	}
	if b.builder.Len() > 0 || len(b.chunks) == 0 {
		b.flush()
	}
	return nil
}

func (b *builderColumn) flush() {
	b.chunks = append(b.chunks, b.builder.NewArray())
	b.bytes = 0
}

func (b *builderColumn) release() {
	for _, a := range b.chunks {
		a.Release()
	}
	b.chunks = nil
	b.builder.Release()
}

// numeric appends host doubles; missing values become nulls.
func (b *builderColumn) numeric(size int64, add func(z float64)) error {
	return b.each(func(row int64) (int64, error) {
		z, err := b.values.numeric(b.col, row)
		if err != nil {
			return 0, err
		}
		if host.IsMissing(z) {
			if host.IsExtendedMissing(z) {
				b.extended++
			}
			b.builder.AppendNull()
			return size, nil
		}
		add(z)
		return size, nil
	})
}

func (b *builderColumn) Boolean() error {
	bb := b.builder.(*array.BooleanBuilder)
	return b.numeric(1, func(z float64) { bb.Append(z != 0) })
}

func (b *builderColumn) Int32() error {
	ib := b.builder.(*array.Int32Builder)
	return b.numeric(4, func(z float64) { ib.Append(int32(z)) })
}

func (b *builderColumn) Int64() error {
	ib := b.builder.(*array.Int64Builder)
	return b.numeric(8, func(z float64) { ib.Append(int64(z)) })
}

func (b *builderColumn) Float32() error {
	fb := b.builder.(*array.Float32Builder)
	return b.numeric(4, func(z float64) { fb.Append(float32(z)) })
}

func (b *builderColumn) Float64() error {
	fb := b.builder.(*array.Float64Builder)
	return b.numeric(8, func(z float64) { fb.Append(z) })
}

func (b *builderColumn) ByteArray() error {
	sb := b.builder.(*array.StringBuilder)
	return b.each(func(row int64) (int64, error) {
		s, err := b.values.text(b.col, row)
		if err != nil {
			return 0, err
		}
		sb.Append(s)
		return int64(len(s)) + 4, nil
	})
}

func (b *builderColumn) FixedByteArray(width int) error {
	fb := b.builder.(*array.FixedSizeBinaryBuilder)
	buf := make([]byte, width)
	return b.each(func(row int64) (int64, error) {
		s, err := b.values.text(b.col, row)
		if err != nil {
			return 0, err
		}
		stringpool.PadFixed(buf, s)
		fb.Append(buf)
		return int64(width), nil
	})
}
