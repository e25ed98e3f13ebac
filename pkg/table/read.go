package table

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sparquet/pkg/formats/columnar"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/logger"
	"github.com/ajitpratap0/sparquet/pkg/metrics"
	"github.com/ajitpratap0/sparquet/pkg/observability"
	"github.com/ajitpratap0/sparquet/pkg/progress"
)

// ReadRequest selects what the virtual table contributes to the host.
type ReadRequest struct {
	// Columns are 0-indexed file columns, in host column order
	Columns []int
	// Widths are the host string widths per selected column; 0 for numeric
	Widths []int
	// RowGroups are 0-indexed row groups applied to every file; nil means all
	RowGroups []int
	// From and To are 1-indexed inclusive rows over the concatenated files
	From, To int64
	// Offset is the host row preceding the row stored for From
	Offset   int64
	Parallel bool
	Progress *progress.Reporter
}

// ReadResult summarises a read across files.
type ReadResult struct {
	columnar.ReadResult
	// Expected is the number of rows the range asked for
	Expected int64
	Files    int
}

// Assembler reads a virtual table with one columnar reader.
type Assembler struct {
	Reader columnar.Reader
	// Strategy labels metrics and logs
	Strategy string
	Logger   *zap.Logger
}

// Read fills sink with rows [From, To] of the concatenated files. Each file
// covers the next block of host rows. Every file's column count and row
// group selection is checked before the first row is stored; files entirely
// past To are then not read. Null strings and a short row count are reported
// once at the end.
func (a *Assembler) Read(ctx context.Context, paths []string, req ReadRequest, sink host.Sink) (ReadResult, error) {
	l := loggerOr(a.Logger)
	res := ReadResult{Expected: max(req.To-req.From+1, 0)}
	timer := progress.NewTimer(l)

	if err := validateSelection(ctx, paths, req.RowGroups); err != nil {
		return res, err
	}

	var base int64
	err := eachFile(paths, func(f *columnar.File, index int) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		rows := f.VisitedRows(req.RowGroups)
		lo := max(req.From-base, 1)
		hi := min(req.To-base, rows)
		if lo <= hi {
			fctx, span := observability.StartFile(logger.WithFile(ctx, f.Path(), index), "read", f.Path(), index)
			got, err := a.Reader.Read(fctx, f, columnar.ReadRequest{
				Columns:   req.Columns,
				Widths:    req.Widths,
				RowGroups: req.RowGroups,
				From:      lo,
				To:        hi,
				Offset:    req.Offset + base + lo - req.From,
				Parallel:  req.Parallel,
				Progress:  req.Progress,
			}, sink)
			observability.End(span, err)
			if err != nil {
				return false, err
			}
			res.Rows += got.Rows
			res.NullStrings += got.NullStrings
			res.Files++
			l.Debug("read file",
				zap.String("file", f.Path()),
				zap.Int("file_index", index),
				zap.Int64("from", lo),
				zap.Int64("to", hi),
				zap.Int64("rows", got.Rows))
		}
		base += rows
		return base >= req.To, nil
	})
	if err != nil {
		return res, err
	}
	timer.Lap("Read data from disk")

	strategy := a.Strategy
	if strategy == "" {
		strategy = "default"
	}
	metrics.RowsRead.WithLabelValues(strategy).Add(float64(res.Rows))
	metrics.Coerced(metrics.CoercedNullString, res.NullStrings)
	if res.NullStrings > 0 {
		l.Warn("null strings coerced to blank", zap.Int64("count", res.NullStrings))
	}
	if res.Rows != res.Expected {
		l.Warn("read a different number of rows than requested",
			zap.Int64("read", res.Rows),
			zap.Int64("expected", res.Expected))
	}
	return res, nil
}

// validateSelection checks that every file has the first file's column
// count and holds each selected row group.
func validateSelection(ctx context.Context, paths []string, groups []int) error {
	var columns int
	return eachFile(paths, func(f *columnar.File, index int) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if index == 1 {
			columns = f.NumColumns()
		} else if f.NumColumns() != columns {
			return false, columnCountMismatch(f, index, columns)
		}
		return false, f.ValidateRowGroups(groups)
	})
}
