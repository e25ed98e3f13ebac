package columnar

import (
	"context"
	"errors"
	"os"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"go.uber.org/zap"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/metrics"
	"github.com/ajitpratap0/sparquet/pkg/progress"
	"github.com/ajitpratap0/sparquet/pkg/schema"
)

// Defaults for WriteRequest.
const (
	DefaultChunkBytes   = 1 << 30
	DefaultRowGroupSize = 1_000_000
)

// WriteRequest describes one output file.
type WriteRequest struct {
	Path  string
	Names []string
	Codes []schema.HostCode
	// From and To are the host-inclusive rows to write
	From, To int64
	// FixedLen writes string columns as fixed-length byte arrays
	FixedLen bool
	// If gates rows; nil writes every row
	If host.Predicate
	// ChunkBytes bounds the in-flight array of one column
	ChunkBytes int64
	// RowGroupSize is the number of rows per row group
	RowGroupSize int64
	// Compression is the column codec; the zero value is uncompressed
	Compression compress.Compression
	Progress    *progress.Reporter
}

// WriteResult summarises a write.
type WriteResult struct {
	Rows int64
	// ExtendedMissing counts extended missing values written as nulls
	ExtendedMissing int64
}

// Writer drains a host source into one Parquet file.
type Writer interface {
	Write(ctx context.Context, src host.Source, req WriteRequest) (WriteResult, error)
}

// outColumn is one planned output column.
type outColumn struct {
	index    int64 // 1-indexed host column
	name     string
	code     schema.HostCode
	physical schema.Physical
}

// planWrite validates the request and maps every host code to its physical
// type. It runs before the output file is created.
func planWrite(req WriteRequest) ([]outColumn, error) {
	if req.To < req.From || req.To < 1 {
		return nil, sperrors.New(sperrors.ErrorTypeNoObservations, "no observations")
	}
	if req.From < 1 {
		return nil, sperrors.Newf(sperrors.ErrorTypeInvalidArgument, "row range must start at 1 or later, got %d", req.From)
	}
	if len(req.Names) != len(req.Codes) {
		return nil, sperrors.Newf(sperrors.ErrorTypeInvalidArgument,
			"%d column names for %d type codes", len(req.Names), len(req.Codes))
	}
	if len(req.Names) == 0 {
		return nil, sperrors.New(sperrors.ErrorTypeInvalidArgument, "no columns to write")
	}
	cols := make([]outColumn, len(req.Names))
	for j, name := range req.Names {
		p, err := schema.ToPhysical(req.Codes[j], req.FixedLen)
		if err != nil {
			return nil, sperrors.Wrap(err, sperrors.ErrorTypeUnsupportedType, "column "+name)
		}
		cols[j] = outColumn{index: int64(j + 1), name: name, code: req.Codes[j], physical: p}
	}
	return cols, nil
}

func writerProperties(req WriteRequest, rows int64) *parquet.WriterProperties {
	opts := []parquet.WriterProperty{
		parquet.WithCompression(req.Compression),
		parquet.WithCreatedBy("sparquet"),
	}
	if rows > 0 {
		opts = append(opts, parquet.WithMaxRowGroupLength(rows))
	}
	return parquet.NewWriterProperties(opts...)
}

func createOutput(path string) (*os.File, error) {
	out, err := os.Create(path) //nolint:gosec // G304: output path is chosen by the host
	if err != nil {
		return nil, sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot create "+path)
	}
	metrics.FilesOpened.WithLabelValues("write").Inc()
	return out, nil
}

// closeOutput closes out, which the parquet writer may already have closed
// along with its footer.
func closeOutput(out *os.File) error {
	if err := out.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// rowValue reads one host slot of column c. Strings longer than the
// column's width fail with BufferTooSmall.
type rowValue struct {
	src  host.Source
	path string
}

func (r rowValue) numeric(c outColumn, row int64) (float64, error) {
	z, err := r.src.Numeric(c.index, row)
	if err != nil {
		return 0, sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot read column "+c.name)
	}
	return z, nil
}

func (r rowValue) text(c outColumn, row int64) (string, error) {
	s, err := r.src.String(c.index, row)
	if err != nil {
		return "", sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot read column "+c.name)
	}
	if width := c.code.Width(); len(s) > width {
		return "", sperrors.Newf(sperrors.ErrorTypeBufferTooSmall,
			"value %q of length %d at row %d, column %s exceeds the declared width %d",
			s, len(s), row, c.name, width).
			WithDetail("file", r.path).
			WithDetail("row", row).
			WithDetail("column", c.name).
			WithDetail("length", len(s)).
			WithDetail("width", width)
	}
	return s, nil
}

func tickWrite(p *progress.Reporter, c outColumn, columns int, row, rows int64) {
	if p.Tick() {
		p.Report(progress.Observation{
			Op:        "write",
			RowGroup:  1,
			RowGroups: 1,
			Column:    int(c.index),
			Columns:   columns,
			Row:       row,
			Rows:      rows,
		})
	}
}

func logWrite(l *zap.Logger, strategy string, req WriteRequest, res WriteResult) {
	l.Info("wrote parquet file",
		zap.String("strategy", strategy),
		zap.String("file", req.Path),
		zap.Int("columns", len(req.Names)),
		zap.Int64("rows", res.Rows))
	if res.ExtendedMissing > 0 {
		l.Warn("extended missing values coerced to null",
			zap.String("file", req.Path),
			zap.Int64("count", res.ExtendedMissing))
	}
}
