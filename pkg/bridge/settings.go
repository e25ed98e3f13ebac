package bridge

import (
	"errors"
	"time"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/formats/columnar"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/progress"
	"github.com/ajitpratap0/sparquet/pkg/schema"
)

// settings are the knobs of one call: config defaults overridden by any
// host scalar that is set.
type settings struct {
	strBuffer    int
	strScan      int64
	chunkBytes   int64
	rowGroupSize int64
	interval     time.Duration
	every        int64
	fixedLen     bool
	parallel     bool
}

func (b *Bridge) settings(env host.Scalars) (settings, error) {
	c := b.config()
	s := settings{
		strBuffer:    c.StrBuffer,
		strScan:      c.StrScan,
		chunkBytes:   c.ChunkBytes,
		rowGroupSize: c.RowGroupSize,
		interval:     c.Interval(),
		every:        c.ProgressEvery,
		fixedLen:     c.FixedLen,
		parallel:     c.Parallel,
	}
	var err error
	var v int64
	if v, err = intScalar(env, host.ScalarStrBuffer, int64(s.strBuffer)); err != nil {
		return s, err
	}
	s.strBuffer = int(v)
	if s.strScan, err = intScalar(env, host.ScalarStrScan, s.strScan); err != nil {
		return s, err
	}
	if s.chunkBytes, err = intScalar(env, host.ScalarChunkBytes, s.chunkBytes); err != nil {
		return s, err
	}
	if s.rowGroupSize, err = intScalar(env, host.ScalarRGSize, s.rowGroupSize); err != nil {
		return s, err
	}
	if s.every, err = intScalar(env, host.ScalarCheck, s.every); err != nil {
		return s, err
	}
	seconds, err := floatScalar(env, host.ScalarProgress, s.interval.Seconds())
	if err != nil {
		return s, err
	}
	s.interval = time.Duration(seconds * float64(time.Second))
	if v, err = intScalar(env, host.ScalarFixedLen, boolInt(s.fixedLen)); err != nil {
		return s, err
	}
	s.fixedLen = v != 0
	if v, err = intScalar(env, host.ScalarThreads, 0); err != nil {
		return s, err
	}
	if v > 0 {
		s.parallel = v > 1
	}
	return s, nil
}

func (s settings) reporter(total int64, obs progress.Observer) *progress.Reporter {
	return progress.NewReporter(s.every, s.interval, total, obs)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func intScalar(env host.Scalars, name string, def int64) (int64, error) {
	v, err := env.Int(name)
	if errors.Is(err, host.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return 0, sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot read scalar "+name)
	}
	return v, nil
}

// columnCount reads __sparquet_ncol, defaulting to def.
func columnCount(env host.Scalars, def int64) (int64, error) {
	ncol, err := intScalar(env, host.ScalarNCol, def)
	if err != nil {
		return 0, err
	}
	if ncol < 0 {
		return 0, sperrors.Newf(sperrors.ErrorTypeInvalidArgument,
			"%s must not be negative, got %d", host.ScalarNCol, ncol)
	}
	return ncol, nil
}

func floatScalar(env host.Scalars, name string, def float64) (float64, error) {
	v, err := env.Float(name)
	if errors.Is(err, host.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return 0, sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot read scalar "+name)
	}
	return v, nil
}

// intMatrix returns nil when the matrix is not set.
func intMatrix(env host.Scalars, name string) ([]int64, error) {
	v, err := host.IntMatrix(env, name)
	if errors.Is(err, host.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot read matrix "+name)
	}
	return v, nil
}

// selection is the host's choice of columns, row groups and rows, converted
// to 0-indexed columns and row groups.
type selection struct {
	columns   []int
	rowGroups []int
	from, to  int64
}

// selection reads __sparquet_colix (all columns when unset, truncated to
// __sparquet_ncol when that is set), __sparquet_rowgix (the first
// __sparquet_readrg entries; all groups when 0 or unset) and
// __sparquet_infrom/__sparquet_into (defaulting to every visited row).
func (b *Bridge) selection(env host.Scalars, paths []string) (selection, error) {
	var sel selection
	colix, err := intMatrix(env, host.MatrixColIx)
	if err != nil {
		return sel, err
	}
	ncol, err := columnCount(env, int64(len(colix)))
	if err != nil {
		return sel, err
	}
	if colix == nil {
		f, err := columnar.Open(paths[0])
		if err != nil {
			return sel, err
		}
		n := f.NumColumns()
		_ = f.Close()
		for j := 0; j < n; j++ {
			sel.columns = append(sel.columns, j)
		}
	} else {
		if ncol > int64(len(colix)) {
			return sel, sperrors.Newf(sperrors.ErrorTypeHostIO,
				"%s has %d entries for %d columns", host.MatrixColIx, len(colix), ncol)
		}
		for _, c := range colix[:ncol] {
			sel.columns = append(sel.columns, int(c-1))
		}
	}

	readrg, err := intScalar(env, host.ScalarReadRG, 0)
	if err != nil {
		return sel, err
	}
	if readrg > 0 {
		rowgix, err := intMatrix(env, host.MatrixRowGIx)
		if err != nil {
			return sel, err
		}
		if int64(len(rowgix)) < readrg {
			return sel, sperrors.Newf(sperrors.ErrorTypeHostIO,
				"%s has %d entries for %d row groups", host.MatrixRowGIx, len(rowgix), readrg)
		}
		groups := make([]int, readrg)
		for i, g := range rowgix[:readrg] {
			groups[i] = int(g - 1)
		}
		sel.rowGroups = columnar.NormalizeRowGroups(groups)
	}

	if sel.from, err = intScalar(env, host.ScalarInFrom, 1); err != nil {
		return sel, err
	}
	sel.to, err = intScalar(env, host.ScalarInTo, -1)
	if err != nil {
		return sel, err
	}
	if sel.to < 0 {
		if sel.to, err = visitedRows(paths, sel.rowGroups); err != nil {
			return sel, err
		}
	}
	return sel, nil
}

// visitedRows counts the rows of the selected row groups over every file.
func visitedRows(paths []string, groups []int) (int64, error) {
	var n int64
	for _, p := range paths {
		f, err := columnar.Open(p)
		if err != nil {
			return 0, err
		}
		err = f.ValidateRowGroups(groups)
		if err == nil {
			n += f.VisitedRows(groups)
		}
		_ = f.Close()
		if err != nil {
			return 0, err
		}
	}
	return n, nil
}

// typeCodes reads the host type codes of ncol columns.
func typeCodes(env host.Scalars, ncol int) ([]schema.HostCode, error) {
	raw, err := host.IntMatrix(env, host.MatrixColTypes)
	if err != nil {
		return nil, sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot read matrix "+host.MatrixColTypes)
	}
	if len(raw) < ncol {
		return nil, sperrors.Newf(sperrors.ErrorTypeHostIO,
			"%s has %d entries for %d columns", host.MatrixColTypes, len(raw), ncol)
	}
	out := make([]schema.HostCode, ncol)
	for j := range out {
		out[j] = schema.HostCode(raw[j])
	}
	return out, nil
}
