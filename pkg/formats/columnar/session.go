// Package columnar moves data between a host dataset and Parquet files.
//
// A File is a short-lived read session over one Parquet file: it reports
// the file's shape and column descriptors and hands row groups to the
// readers. Two readers fill a host.Sink: BatchReader decodes whole column
// chunks into arrow arrays, ScanReader pulls values through typed
// column-chunk cursors. Both produce identical output. Two writers drain a
// host.Source: BuilderWriter accumulates arrow arrays in byte-budgeted
// chunks and writes one table, StreamWriter encodes values straight into a
// single row group.
package columnar

import (
	"os"

	"github.com/apache/arrow-go/v18/parquet/file"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/metrics"
	"github.com/ajitpratap0/sparquet/pkg/schema"
)

// Shape summarises a file or a set of files.
type Shape struct {
	Rows      int64 `json:"rows"`
	Columns   int   `json:"columns"`
	RowGroups int   `json:"row_groups"`
	Bytes     int64 `json:"bytes"`
}

// File is an open Parquet file.
type File struct {
	path string
	size int64
	rdr  *file.Reader
}

// Open opens the Parquet file at path.
func Open(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot stat "+path)
	}
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot open "+path)
	}
	metrics.FilesOpened.WithLabelValues("read").Inc()
	return &File{path: path, size: info.Size(), rdr: rdr}, nil
}

// Close releases the file.
func (f *File) Close() error {
	return f.rdr.Close()
}

// Path is the path the file was opened from.
func (f *File) Path() string {
	return f.path
}

// Shape reports rows, columns, row groups and the size on disk.
func (f *File) Shape() Shape {
	return Shape{
		Rows:      f.rdr.NumRows(),
		Columns:   f.NumColumns(),
		RowGroups: f.rdr.NumRowGroups(),
		Bytes:     f.size,
	}
}

// NumColumns is the number of leaf columns.
func (f *File) NumColumns() int {
	return f.rdr.MetaData().Schema.NumColumns()
}

// NumRowGroups is the number of row groups.
func (f *File) NumRowGroups() int {
	return f.rdr.NumRowGroups()
}

// RowGroupRows is the number of rows in row group i.
func (f *File) RowGroupRows(i int) int64 {
	return f.rdr.RowGroup(i).NumRows()
}

// Names returns the column names in file order.
func (f *File) Names() []string {
	names := make([]string, f.NumColumns())
	for i := range names {
		names[i] = f.rdr.MetaData().Schema.Column(i).Name()
	}
	return names
}

// Descriptor describes leaf column i.
func (f *File) Descriptor(i int) (schema.ColumnDescriptor, error) {
	if i < 0 || i >= f.NumColumns() {
		return schema.ColumnDescriptor{}, sperrors.Newf(sperrors.ErrorTypeInvalidArgument,
			"column %d out of range for %s with %d columns", i+1, f.path, f.NumColumns())
	}
	return schema.Describe(i, f.rdr.MetaData().Schema.Column(i)), nil
}

// Descriptors describes every leaf column.
func (f *File) Descriptors() []schema.ColumnDescriptor {
	out := make([]schema.ColumnDescriptor, f.NumColumns())
	for i := range out {
		out[i] = schema.Describe(i, f.rdr.MetaData().Schema.Column(i))
	}
	return out
}

// maxDefinitionLevel is the definition level of a present value in column i.
func (f *File) maxDefinitionLevel(i int) int16 {
	return f.rdr.MetaData().Schema.Column(i).MaxDefinitionLevel()
}

// ValidateRowGroups fails with RowGroupOutOfRange for any 0-indexed group
// not present in the file.
func (f *File) ValidateRowGroups(groups []int) error {
	n := f.NumRowGroups()
	for _, g := range groups {
		if g < 0 || g >= n {
			return sperrors.Newf(sperrors.ErrorTypeRowGroupOutOfRange,
				"attempted to read row group %d but %s has only %d", g+1, f.path, n).
				WithDetail("row_group", g+1).
				WithDetail("row_groups", n).
				WithDetail("file", f.path)
		}
	}
	return nil
}

// ValidateColumns fails with InvalidArgument for any 0-indexed column not
// present in the file.
func (f *File) ValidateColumns(cols []int) error {
	for _, c := range cols {
		if _, err := f.Descriptor(c); err != nil {
			return err
		}
	}
	return nil
}

// groups expands a row-group selection; nil selects every group.
func (f *File) groups(sel []int) []int {
	if sel != nil {
		return sel
	}
	all := make([]int, f.NumRowGroups())
	for i := range all {
		all[i] = i
	}
	return all
}

// VisitedRows is the number of rows in the selected row groups.
func (f *File) VisitedRows(sel []int) int64 {
	var n int64
	for _, g := range f.groups(sel) {
		n += f.RowGroupRows(g)
	}
	return n
}
