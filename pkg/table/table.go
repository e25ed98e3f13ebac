// Package table treats one Parquet file, or the files listed in a manifest,
// as a single virtual table. Every file after the first must agree with the
// first on its column count (and, where names or types are reported, on
// those too); rows are numbered across the concatenation in manifest order.
package table

import (
	"go.uber.org/zap"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/formats/columnar"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/logger"
)

// Sources resolves the files behind path: path itself, or in multi mode the
// files listed in the manifest at path.
func Sources(path string, multi bool) ([]string, error) {
	if !multi {
		return []string{path}, nil
	}
	paths, err := host.ReadManifest(path)
	if err != nil {
		return nil, sperrors.Wrap(err, sperrors.ErrorTypeHostIO, "cannot read file list")
	}
	if len(paths) == 0 {
		return nil, sperrors.Newf(sperrors.ErrorTypeInvalidArgument, "file list %s is empty", path)
	}
	return paths, nil
}

// eachFile opens every path in turn and hands it to fn with its 1-based
// index. Files are closed before the next one opens.
func eachFile(paths []string, fn func(f *columnar.File, index int) (stop bool, err error)) error {
	for i, p := range paths {
		f, err := columnar.Open(p)
		if err != nil {
			return err
		}
		stop, err := fn(f, i+1)
		if cerr := f.Close(); err == nil && cerr != nil {
			err = sperrors.Wrap(cerr, sperrors.ErrorTypeUnderlyingLibrary, "cannot close "+p)
		}
		if err != nil || stop {
			return err
		}
	}
	return nil
}

func columnCountMismatch(f *columnar.File, index, want int) error {
	return sperrors.Newf(sperrors.ErrorTypeSchemaMismatch,
		"file #%d (%s) had %d columns (expected %d)", index, f.Path(), f.NumColumns(), want).
		WithDetail("file_index", index).
		WithDetail("file", f.Path()).
		WithDetail("columns", f.NumColumns()).
		WithDetail("expected", want)
}

// Shape sums rows, row groups and bytes over paths. Column counts must
// agree.
func Shape(paths []string) (columnar.Shape, error) {
	var total columnar.Shape
	err := eachFile(paths, func(f *columnar.File, index int) (bool, error) {
		s := f.Shape()
		if index == 1 {
			total.Columns = s.Columns
		} else if s.Columns != total.Columns {
			return false, columnCountMismatch(f, index, total.Columns)
		}
		total.Rows += s.Rows
		total.RowGroups += s.RowGroups
		total.Bytes += s.Bytes
		return false, nil
	})
	return total, err
}

// Names returns the column names of the first file. Every later file must
// carry the same names in the same order.
func Names(paths []string) ([]string, error) {
	var names []string
	err := eachFile(paths, func(f *columnar.File, index int) (bool, error) {
		got := f.Names()
		if index == 1 {
			names = got
			return false, nil
		}
		if len(got) != len(names) {
			return false, columnCountMismatch(f, index, len(names))
		}
		for j, name := range got {
			if name != names[j] {
				return false, sperrors.Newf(sperrors.ErrorTypeSchemaMismatch,
					"file #%d (%s): column %d is %s (expected %s)", index, f.Path(), j+1, name, names[j]).
					WithDetail("file_index", index).
					WithDetail("file", f.Path()).
					WithDetail("column", j+1)
			}
		}
		return false, nil
	})
	return names, err
}

func loggerOr(l *zap.Logger) *zap.Logger {
	if l == nil {
		return logger.Get()
	}
	return l
}
