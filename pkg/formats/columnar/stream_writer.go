package columnar

import (
	"context"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"
	"go.uber.org/zap"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/logger"
	"github.com/ajitpratap0/sparquet/pkg/metrics"
	"github.com/ajitpratap0/sparquet/pkg/progress"
	"github.com/ajitpratap0/sparquet/pkg/schema"
	stringpool "github.com/ajitpratap0/sparquet/pkg/strings"
)

// DefaultStreamBatch is the number of values a StreamWriter hands to a
// column writer per call.
const DefaultStreamBatch = 4096

// StreamWriter writes every column in turn into a single row group through
// typed column writers. Numeric and fixed-length columns are required, so a
// missing value fails the write; byte-array columns are optional.
type StreamWriter struct {
	BatchSize int
	Logger    *zap.Logger
}

var _ Writer = (*StreamWriter)(nil)

// Write implements Writer.
func (w *StreamWriter) Write(ctx context.Context, src host.Source, req WriteRequest) (res WriteResult, err error) {
	cols, err := planWrite(req)
	if err != nil {
		return res, err
	}
	l := w.Logger
	if l == nil {
		l = logger.Get()
	}
	batch := w.BatchSize
	if batch <= 0 {
		batch = DefaultStreamBatch
	}
	root, err := streamSchema(cols)
	if err != nil {
		return res, err
	}
	timer := progress.NewTimer(l)

	out, err := createOutput(req.Path)
	if err != nil {
		return res, err
	}
	pw := file.NewParquetWriter(out, root, file.WithWriterProps(writerProperties(req, 0)))
	defer func() {
		if cerr := pw.Close(); err == nil && cerr != nil {
			err = sperrors.Wrap(cerr, sperrors.ErrorTypeUnderlyingLibrary, "cannot finish "+req.Path)
		}
		if cerr := closeOutput(out); err == nil && cerr != nil {
			err = sperrors.Wrap(cerr, sperrors.ErrorTypeUnderlyingLibrary, "cannot close "+req.Path)
		}
		if err == nil {
			timer.Lap("Wrote row group to file")
			metrics.RowsWritten.WithLabelValues("stream").Add(float64(res.Rows))
			logWrite(l, "stream", req, res)
		}
	}()

	rg := pw.AppendRowGroup()
	for _, c := range cols {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		cw, err := rg.NextColumn()
		if err != nil {
			return res, sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot open column "+c.name)
		}
		sc := &streamColumn{
			req:     req,
			col:     c,
			columns: len(cols),
			values:  rowValue{src: src, path: req.Path},
			writer:  cw,
			batch:   batch,
		}
		err = schema.Dispatch(c.physical, sc)
		if cerr := cw.Close(); err == nil && cerr != nil {
			err = sperrors.Wrap(cerr, sperrors.ErrorTypeUnderlyingLibrary, "cannot close column "+c.name)
		}
		if err != nil {
			return res, err
		}
		res.Rows = sc.rows
	}
	if err := rg.Close(); err != nil {
		return res, sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot close row group")
	}
	return res, nil
}

// streamSchema builds the flat file schema for the planned columns.
func streamSchema(cols []outColumn) (*pqschema.GroupNode, error) {
	fields := make(pqschema.FieldList, len(cols))
	for j, c := range cols {
		rep := parquet.Repetitions.Required
		typeLen := -1
		switch c.physical.Kind {
		case schema.KindByteArray:
			rep = parquet.Repetitions.Optional
		case schema.KindFixedByteArray:
			typeLen = c.physical.Width
		}
		node, err := pqschema.NewPrimitiveNode(c.name, rep, c.physical.Parquet(), -1, int32(typeLen))
		if err != nil {
			return nil, sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot declare column "+c.name)
		}
		fields[j] = node
	}
	root, err := pqschema.NewGroupNode("schema", parquet.Repetitions.Required, fields, -1)
	if err != nil {
		return nil, sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot declare schema")
	}
	return root, nil
}

// streamColumn is the stream writer's visitor for one output column.
type streamColumn struct {
	req     WriteRequest
	col     outColumn
	columns int
	values  rowValue
	writer  file.ColumnChunkWriter
	batch   int
	rows    int64
}

// streamValues collects the selected rows of one column into batches and
// hands each full batch to write. Rows rejected by the predicate still
// count toward progress.
func streamValues[T any](s *streamColumn, value func(row int64) (T, error), write func(values []T) error) error {
	buf := make([]T, 0, s.batch)
	n := s.req.To - s.req.From + 1
	for row := s.req.From; row <= s.req.To; row++ {
		tickWrite(s.req.Progress, s.col, s.columns, row-s.req.From+1, n)
		if s.req.If != nil && !s.req.If(row) {
			continue
		}
		x, err := value(row)
		if err != nil {
			return err
		}
		buf = append(buf, x)
		s.rows++
		if len(buf) == s.batch {
			if err := write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		return write(buf)
	}
	return nil
}

// required reads a host double, failing on any missing value.
func (s *streamColumn) required(row int64) (float64, error) {
	z, err := s.values.numeric(s.col, row)
	if err != nil {
		return 0, err
	}
	if host.IsMissing(z) {
		return 0, sperrors.Newf(sperrors.ErrorTypeMissingNotSupported,
			"missing value at row %d, column %s; the low-level writer cannot write missing values", row, s.col.name).
			WithDetail("file", s.req.Path).
			WithDetail("row", row).
			WithDetail("column", s.col.name)
	}
	return z, nil
}

func (s *streamColumn) written(err error) error {
	if err != nil {
		return sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot write column "+s.col.name)
	}
	return nil
}

func (s *streamColumn) Boolean() error {
	cw := s.writer.(*file.BooleanColumnChunkWriter)
	return streamValues(s, func(row int64) (bool, error) {
		z, err := s.required(row)
		return z != 0, err
	}, func(values []bool) error {
		_, err := cw.WriteBatch(values, nil, nil)
		return s.written(err)
	})
}

func (s *streamColumn) Int32() error {
	cw := s.writer.(*file.Int32ColumnChunkWriter)
	return streamValues(s, func(row int64) (int32, error) {
		z, err := s.required(row)
		return int32(z), err
	}, func(values []int32) error {
		_, err := cw.WriteBatch(values, nil, nil)
		return s.written(err)
	})
}

func (s *streamColumn) Int64() error {
	cw := s.writer.(*file.Int64ColumnChunkWriter)
	return streamValues(s, func(row int64) (int64, error) {
		z, err := s.required(row)
		return int64(z), err
	}, func(values []int64) error {
		_, err := cw.WriteBatch(values, nil, nil)
		return s.written(err)
	})
}

func (s *streamColumn) Float32() error {
	cw := s.writer.(*file.Float32ColumnChunkWriter)
	return streamValues(s, func(row int64) (float32, error) {
		z, err := s.required(row)
		return float32(z), err
	}, func(values []float32) error {
		_, err := cw.WriteBatch(values, nil, nil)
		return s.written(err)
	})
}

func (s *streamColumn) Float64() error {
	cw := s.writer.(*file.Float64ColumnChunkWriter)
	return streamValues(s, s.required, func(values []float64) error {
		_, err := cw.WriteBatch(values, nil, nil)
		return s.written(err)
	})
}

func (s *streamColumn) ByteArray() error {
	cw := s.writer.(*file.ByteArrayColumnChunkWriter)
	defs := make([]int16, s.batch)
	for i := range defs {
		defs[i] = 1
	}
	return streamValues(s, func(row int64) (parquet.ByteArray, error) {
		v, err := s.values.text(s.col, row)
		return parquet.ByteArray(v), err
	}, func(values []parquet.ByteArray) error {
		_, err := cw.WriteBatch(values, defs[:len(values)], nil)
		return s.written(err)
	})
}

func (s *streamColumn) FixedByteArray(width int) error {
	cw := s.writer.(*file.FixedLenByteArrayColumnChunkWriter)
	return streamValues(s, func(row int64) (parquet.FixedLenByteArray, error) {
		v, err := s.values.text(s.col, row)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, width)
		stringpool.PadFixed(buf, v)
		return buf, nil
	}, func(values []parquet.FixedLenByteArray) error {
		_, err := cw.WriteBatch(values, nil, nil)
		return s.written(err)
	})
}
