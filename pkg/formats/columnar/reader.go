package columnar

import (
	"context"
	"slices"

	"go.uber.org/zap"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/logger"
	"github.com/ajitpratap0/sparquet/pkg/progress"
	stringpool "github.com/ajitpratap0/sparquet/pkg/strings"
)

// ReadRequest selects what one file contributes to the host.
type ReadRequest struct {
	// Columns are 0-indexed file columns, in host column order
	Columns []int
	// Widths are the host string widths per selected column; 0 for numeric
	Widths []int
	// RowGroups are 0-indexed row groups to visit; nil visits all
	RowGroups []int
	// From and To are 1-indexed inclusive positions over the visited rows
	From, To int64
	// Offset is the host row preceding the row stored for position From
	Offset int64
	// Parallel lets the columnar library decode concurrently
	Parallel bool
	Progress *progress.Reporter
}

// ReadResult summarises a read.
type ReadResult struct {
	// Rows is the number of host rows filled, summed over row groups
	Rows int64
	// NullStrings counts null byte-array values stored as blanks
	NullStrings int64
}

// Reader fills a host sink from one file.
type Reader interface {
	Read(ctx context.Context, f *File, req ReadRequest, sink host.Sink) (ReadResult, error)
}

// NormalizeRowGroups returns the selection sorted ascending without
// duplicates. A nil selection stays nil.
func NormalizeRowGroups(sel []int) []int {
	if sel == nil {
		return nil
	}
	out := slices.Clone(sel)
	slices.Sort(out)
	return slices.Compact(out)
}

// groupSpan is the in-range part of one visited row group.
type groupSpan struct {
	group   int // 0-indexed row group
	ordinal int // 1-indexed position among visited groups
	rows    int64
	lo, hi  int64 // 1-indexed in-group bounds
	rowBase int64 // host row = rowBase + in-group index
}

// plan lays the request's range over the visited row groups. Groups wholly
// before From are skipped; iteration stops once To is reached.
func plan(f *File, req ReadRequest) []groupSpan {
	var spans []groupSpan
	var pos int64
	for k, g := range f.groups(req.RowGroups) {
		if pos >= req.To {
			break
		}
		n := f.RowGroupRows(g)
		lo := max(req.From-pos, 1)
		hi := min(req.To-pos, n)
		if lo <= hi {
			spans = append(spans, groupSpan{
				group:   g,
				ordinal: k + 1,
				rows:    n,
				lo:      lo,
				hi:      hi,
				rowBase: req.Offset + pos - req.From + 1,
			})
		}
		pos += n
	}
	return spans
}

func validateRequest(f *File, req ReadRequest) error {
	if len(req.Widths) != len(req.Columns) {
		return sperrors.Newf(sperrors.ErrorTypeInvalidArgument,
			"%d widths for %d columns", len(req.Widths), len(req.Columns))
	}
	if req.From < 1 {
		return sperrors.Newf(sperrors.ErrorTypeInvalidArgument, "row range must start at 1 or later, got %d", req.From)
	}
	if err := f.ValidateColumns(req.Columns); err != nil {
		return err
	}
	return f.ValidateRowGroups(req.RowGroups)
}

// columnCursor stores the in-range values of one column of one row group.
// Values arrive in row order with their 1-indexed in-group position; those
// before lo are consumed without being stored.
type columnCursor struct {
	sink    host.Sink
	file    string
	name    string
	col     int64 // 1-indexed host column
	width   int
	span    groupSpan
	groups  int
	columns int
	total   int64

	progress *progress.Reporter
	stored   int64
	nulls    int64

	// chunkStart is the in-group offset of the array being visited
	chunkStart int64
}

// numeric stores v, or the missing sentinel when the value is null. It
// reports whether the cursor has passed the end of the range.
func (c *columnCursor) numeric(i int64, v float64, valid bool) (bool, error) {
	if i < c.span.lo {
		return false, nil
	}
	if i > c.span.hi {
		return true, nil
	}
	if !valid {
		v = host.MissingValue
	}
	if err := c.sink.StoreNumeric(c.col, c.span.rowBase+i, v); err != nil {
		return true, sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot store value")
	}
	c.stored++
	c.tick(i)
	return i >= c.span.hi, nil
}

// bytes stores b as a string. A null value is stored blank and counted.
func (c *columnCursor) bytes(i int64, b []byte, valid bool) (bool, error) {
	return c.text(i, stringpool.BytesToString(b), valid)
}

// text stores a copy of s, since s may alias a decode buffer.
func (c *columnCursor) text(i int64, s string, valid bool) (bool, error) {
	if i < c.span.lo {
		return false, nil
	}
	if i > c.span.hi {
		return true, nil
	}
	if !valid {
		c.nulls++
		s = ""
	} else if len(s) > c.width {
		return true, c.tooSmall(i, len(s))
	}
	if err := c.sink.StoreString(c.col, c.span.rowBase+i, stringpool.Clone(s)); err != nil {
		return true, sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot store value")
	}
	c.stored++
	c.tick(i)
	return i >= c.span.hi, nil
}

// fixed stores a fixed-length value without its NUL padding.
func (c *columnCursor) fixed(i int64, b []byte, valid bool) (bool, error) {
	return c.bytes(i, stringpool.TrimNull(b), valid)
}

func (c *columnCursor) tooSmall(i int64, length int) error {
	row := c.span.rowBase + i
	return sperrors.Newf(sperrors.ErrorTypeBufferTooSmall,
		"buffer (%d) too small for value of length %d in %s, row group %d, row %d, column %s; re-run with a larger buffer or a string scan",
		c.width, length, c.file, c.span.group+1, row, c.name).
		WithDetail("file", c.file).
		WithDetail("row_group", c.span.group+1).
		WithDetail("row", row).
		WithDetail("column", c.name).
		WithDetail("length", length).
		WithDetail("width", c.width)
}

// checkFixedWidth fails before reading when the declared width of a
// fixed-length column exceeds the host width.
func (c *columnCursor) checkFixedWidth(width int) error {
	if width > c.width {
		return sperrors.Newf(sperrors.ErrorTypeBufferTooSmall,
			"buffer (%d) too small for fixed-length column %s of width %d in %s",
			c.width, c.name, width, c.file).
			WithDetail("file", c.file).
			WithDetail("row_group", c.span.group+1).
			WithDetail("column", c.name).
			WithDetail("length", width).
			WithDetail("width", c.width)
	}
	return nil
}

func (c *columnCursor) checkStringColumn() error {
	if c.width <= 0 {
		return sperrors.Newf(sperrors.ErrorTypeSchemaMismatch,
			"column %s holds strings but the host column is numeric", c.name)
	}
	return nil
}

func (c *columnCursor) tick(i int64) {
	if c.progress.Tick() {
		c.progress.Report(progress.Observation{
			Op:        "read",
			RowGroup:  c.span.ordinal,
			RowGroups: c.groups,
			Column:    int(c.col),
			Columns:   c.columns,
			Row:       c.span.rowBase + i,
			Rows:      c.total,
		})
	}
}

// readPlan runs fn over every (row group, column) cursor of the request and
// aggregates the result. Rows counts, per row group, the largest number of
// values stored by any column.
func readPlan(ctx context.Context, f *File, req ReadRequest, sink host.Sink, l *zap.Logger,
	fn func(ctx context.Context, c *columnCursor, fileCol int) error) (ReadResult, error) {
	if err := validateRequest(f, req); err != nil {
		return ReadResult{}, err
	}
	if l == nil {
		l = logger.Get()
	}
	if req.To < req.From {
		return ReadResult{}, nil
	}

	groups := len(f.groups(req.RowGroups))
	var res ReadResult
	for _, span := range plan(f, req) {
		var groupMax int64
		for j, col := range req.Columns {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			desc, err := f.Descriptor(col)
			if err != nil {
				return res, err
			}
			c := &columnCursor{
				sink:     sink,
				file:     f.path,
				name:     desc.Name,
				col:      int64(j + 1),
				width:    req.Widths[j],
				span:     span,
				groups:   groups,
				columns:  len(req.Columns),
				total:    req.To - req.From + 1,
				progress: req.Progress,
			}
			if err := fn(ctx, c, col); err != nil {
				return res, err
			}
			res.NullStrings += c.nulls
			groupMax = max(groupMax, c.stored)
		}
		res.Rows += groupMax
		l.Debug("read row group",
			zap.String("file", f.path),
			zap.Int("row_group", span.group+1),
			zap.Int64("rows", groupMax))
	}
	return res, nil
}
