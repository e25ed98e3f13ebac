package table

import (
	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/formats/columnar"
	"github.com/ajitpratap0/sparquet/pkg/schema"
)

// TypesRequest selects the columns to type and the rows a width scan may
// look at.
type TypesRequest struct {
	// Columns are 0-indexed file columns
	Columns []int
	// RowGroups are 0-indexed row groups; nil means all
	RowGroups []int
	From, To  int64
	// ScanDepth is the number of rows scanned for string widths; 0 disables
	// the scan
	ScanDepth int64
	// Fallback is the string width used when no scan ran
	Fallback int
}

// Types is the host view of the selected columns.
type Types struct {
	Codes []schema.HostCode
	// Raw holds the parquet physical type of each column
	Raw []int
	// Names of the selected columns, from the first file
	Names []string
}

// ColumnTypes maps the selected columns to host codes. Every file must
// agree on each selected column's name and physical type; byte-array widths are scanned over
// the concatenated rows and are the longest value across all files.
func ColumnTypes(paths []string, req TypesRequest) (Types, error) {
	scanner := columnar.NewWidthScanner(len(req.Columns), req.From, req.To, req.ScanDepth, req.Fallback)
	first := make([]schema.ColumnDescriptor, len(req.Columns))
	var columns int
	err := eachFile(paths, func(f *columnar.File, index int) (bool, error) {
		if index == 1 {
			columns = f.NumColumns()
		} else if f.NumColumns() != columns {
			return false, columnCountMismatch(f, index, columns)
		}
		if err := f.ValidateColumns(req.Columns); err != nil {
			return false, err
		}
		if err := f.ValidateRowGroups(req.RowGroups); err != nil {
			return false, err
		}
		for j, col := range req.Columns {
			desc, err := f.Descriptor(col)
			if err != nil {
				return false, err
			}
			switch {
			case index == 1:
				first[j] = desc
			case desc.Name != first[j].Name:
				return false, sperrors.Newf(sperrors.ErrorTypeSchemaMismatch,
					"file #%d (%s): column %d is %s (expected %s)", index, f.Path(), col+1, desc.Name, first[j].Name).
					WithDetail("file_index", index).
					WithDetail("file", f.Path()).
					WithDetail("column", first[j].Name)
			case desc.Physical != first[j].Physical:
				return false, sperrors.Newf(sperrors.ErrorTypeSchemaMismatch,
					"inconsistent type for column %s in file #%d (%s): %s (expected %s)",
					desc.Name, index, f.Path(), desc.Physical, first[j].Physical).
					WithDetail("file_index", index).
					WithDetail("file", f.Path()).
					WithDetail("column", desc.Name)
			}
			if err := scanner.Visit(f, j, col, req.RowGroups); err != nil {
				return false, err
			}
		}
		return false, nil
	})
	if err != nil {
		return Types{}, err
	}

	out := Types{
		Codes: make([]schema.HostCode, len(req.Columns)),
		Raw:   make([]int, len(req.Columns)),
		Names: make([]string, len(req.Columns)),
	}
	for j, desc := range first {
		code, err := scanner.Code(j, desc.Physical)
		if err != nil {
			return Types{}, sperrors.Wrap(err, sperrors.TypeOf(err), "column "+desc.Name)
		}
		out.Codes[j] = code
		out.Raw[j] = int(desc.Physical.Parquet())
		out.Names[j] = desc.Name
	}
	return out, nil
}
