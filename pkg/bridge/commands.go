package bridge

import (
	"context"

	"go.uber.org/zap"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/formats/columnar"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/progress"
	"github.com/ajitpratap0/sparquet/pkg/table"
)

func (b *Bridge) check(args []string) error {
	_, _, err := options(args, 0)
	return err
}

func (b *Bridge) sources(path string, opts map[string]bool) ([]string, error) {
	return table.Sources(path, opts["multi"] || b.config().Multi)
}

func (b *Bridge) observer(l *zap.Logger) progress.Observer {
	if c := b.config(); c.Verbose || c.Debug {
		return progress.LogObserver(l)
	}
	return nil
}

func setInts(env host.Scalars, values map[string]int64) error {
	for name, v := range values {
		if err := env.SetInt(name, v); err != nil {
			return sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot save scalar "+name)
		}
	}
	return nil
}

// shape saves the row, column, row-group and byte counts of the table.
func (b *Bridge) shape(ctx context.Context, env host.Environment, args []string) error {
	pos, opts, err := options(args, 1, "multi")
	if err != nil {
		return err
	}
	paths, err := b.sources(pos[0], opts)
	if err != nil {
		return err
	}
	s, err := table.Shape(paths)
	if err != nil {
		return err
	}
	b.logger(ctx).Info("shape",
		zap.Int("files", len(paths)),
		zap.Int64("rows", s.Rows),
		zap.Int("columns", s.Columns),
		zap.Int("row_groups", s.RowGroups))
	return setInts(env, map[string]int64{
		host.ScalarNRow:   s.Rows,
		host.ScalarNCol:   int64(s.Columns),
		host.ScalarNGroup: int64(s.RowGroups),
		host.ScalarNBytes: s.Bytes,
	})
}

// colnames writes the column names, one per line, to the names file.
func (b *Bridge) colnames(ctx context.Context, env host.Environment, args []string) error {
	pos, opts, err := options(args, 2, "multi")
	if err != nil {
		return err
	}
	paths, err := b.sources(pos[0], opts)
	if err != nil {
		return err
	}
	names, err := table.Names(paths)
	if err != nil {
		return err
	}
	if err := host.WriteNames(pos[1], names); err != nil {
		return sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot write column names")
	}
	b.logger(ctx).Debug("wrote column names", zap.String("names_file", pos[1]), zap.Int("columns", len(names)))
	return setInts(env, map[string]int64{host.ScalarNCol: int64(len(names))})
}

// coltypes saves the host type code and the parquet physical type of every
// selected column.
func (b *Bridge) coltypes(ctx context.Context, env host.Environment, args []string) error {
	pos, opts, err := options(args, 1, "multi")
	if err != nil {
		return err
	}
	s, err := b.settings(env)
	if err != nil {
		return err
	}
	paths, err := b.sources(pos[0], opts)
	if err != nil {
		return err
	}
	sel, err := b.selection(env, paths)
	if err != nil {
		return err
	}
	timer := progress.NewTimer(b.logger(ctx))
	types, err := table.ColumnTypes(paths, table.TypesRequest{
		Columns:   sel.columns,
		RowGroups: sel.rowGroups,
		From:      sel.from,
		To:        sel.to,
		ScanDepth: s.strScan,
		Fallback:  s.strBuffer,
	})
	if err != nil {
		return err
	}
	timer.Lap("Scanned column types")

	coltypes := make([]float64, len(types.Codes))
	rawtypes := make([]float64, len(types.Raw))
	for j := range types.Codes {
		coltypes[j] = float64(types.Codes[j])
		rawtypes[j] = float64(types.Raw[j])
	}
	if err := env.SetMatrix(host.MatrixColTypes, coltypes); err != nil {
		return sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot save matrix "+host.MatrixColTypes)
	}
	if err := env.SetMatrix(host.MatrixRawTypes, rawtypes); err != nil {
		return sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot save matrix "+host.MatrixRawTypes)
	}
	return nil
}

// read stores the selected rows and columns into the host, host row 1
// holding row __sparquet_infrom, and saves the number of rows read.
func (b *Bridge) read(ctx context.Context, env host.Environment, args []string) error {
	pos, opts, err := options(args, 1, "lowlevel", "multi")
	if err != nil {
		return err
	}
	s, err := b.settings(env)
	if err != nil {
		return err
	}
	paths, err := b.sources(pos[0], opts)
	if err != nil {
		return err
	}
	sel, err := b.selection(env, paths)
	if err != nil {
		return err
	}
	codes, err := typeCodes(env, len(sel.columns))
	if err != nil {
		return err
	}
	widths := make([]int, len(codes))
	for j, c := range codes {
		widths[j] = c.Width()
	}

	l := b.logger(ctx)
	a := &table.Assembler{Logger: l}
	if opts["lowlevel"] || b.config().LowLevel {
		a.Reader, a.Strategy = &columnar.ScanReader{Logger: l}, "scan"
	} else {
		a.Reader, a.Strategy = &columnar.BatchReader{Logger: l}, "batch"
	}
	rows := max(sel.to-sel.from+1, 0)
	res, err := a.Read(ctx, paths, table.ReadRequest{
		Columns:   sel.columns,
		Widths:    widths,
		RowGroups: sel.rowGroups,
		From:      sel.from,
		To:        sel.to,
		Parallel:  s.parallel,
		Progress:  s.reporter(rows*int64(len(sel.columns)), b.observer(l)),
	}, env)
	if err != nil {
		return err
	}
	return setInts(env, map[string]int64{host.ScalarNRead: res.Rows})
}

// write saves the host rows in range into a new Parquet file. Column names
// come from the names file and type codes from __sparquet_coltypes.
func (b *Bridge) write(ctx context.Context, env host.Environment, args []string) error {
	pos, opts, err := options(args, 2, "lowlevel", "fixedlen", "if")
	if err != nil {
		return err
	}
	s, err := b.settings(env)
	if err != nil {
		return err
	}
	codec, err := b.config().Codec()
	if err != nil {
		return sperrors.Wrap(err, sperrors.ErrorTypeInvalidArgument, "invalid compression")
	}
	names, err := host.ReadNames(pos[1])
	if err != nil {
		return sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot read column names")
	}
	ncol, err := columnCount(env, int64(len(names)))
	if err != nil {
		return err
	}
	if ncol > int64(len(names)) {
		return sperrors.Newf(sperrors.ErrorTypeHostIO,
			"names file %s has %d names for %d columns", pos[1], len(names), ncol)
	}
	names = names[:ncol]
	codes, err := typeCodes(env, len(names))
	if err != nil {
		return err
	}

	in1, in2 := env.InRange()
	l := b.logger(ctx)
	req := columnar.WriteRequest{
		Path:         pos[0],
		Names:        names,
		Codes:        codes,
		From:         in1,
		To:           in2,
		FixedLen:     opts["fixedlen"] || s.fixedLen,
		ChunkBytes:   s.chunkBytes,
		RowGroupSize: s.rowGroupSize,
		Compression:  codec,
		Progress:     s.reporter(max(in2-in1+1, 0)*int64(len(names)), b.observer(l)),
	}
	if opts["if"] || b.config().IfRows {
		req.If = env.IfObs
	}

	var w columnar.Writer
	if opts["lowlevel"] || b.config().LowLevel {
		w = &columnar.StreamWriter{Logger: l}
	} else {
		w = &columnar.BuilderWriter{Logger: l}
	}
	_, err = w.Write(ctx, env, req)
	return err
}
