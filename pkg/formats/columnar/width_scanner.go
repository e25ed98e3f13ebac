package columnar

import (
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/schema"
)

// WidthScanner measures the longest byte-array value of each selected
// column over a window of rows. The window spans the virtual concatenation
// of every file scanned, so the position of each column carries over from
// one file to the next.
type WidthScanner struct {
	from, end int64
	depth     int64
	fallback  int
	batch     int64

	seen    []int64
	longest []int
}

// NewWidthScanner scans at most depth rows starting at row from and ending
// no later than row to. A depth of 0 disables the scan, leaving every
// byte-array column at the fallback width.
func NewWidthScanner(columns int, from, to, depth int64, fallback int) *WidthScanner {
	from = max(from, 1)
	end := to
	if depth > 0 {
		end = min(to, from+depth-1)
	}
	return &WidthScanner{
		from:     from,
		end:      end,
		depth:    depth,
		fallback: fallback,
		batch:    DefaultScanBatch,
		seen:     make([]int64, columns),
		longest:  make([]int, columns),
	}
}

// Enabled reports whether byte-array columns are scanned.
func (s *WidthScanner) Enabled() bool {
	return s.depth > 0 && s.end >= s.from
}

// Visit inspects selected column j, file column col, of f. Byte-array
// columns are scanned when the scanner is enabled; 96-bit integer and
// unknown columns fail.
func (s *WidthScanner) Visit(f *File, j, col int, groups []int) error {
	desc, err := f.Descriptor(col)
	if err != nil {
		return err
	}
	return schema.Dispatch(desc.Physical, &widthVisitor{scanner: s, file: f, j: j, col: col, name: desc.Name, groups: groups})
}

// Width is the host width of selected column j: the longest value seen, 1
// when the window was covered but held only empty values, and the fallback
// when the scan did not reach the end of its window.
func (s *WidthScanner) Width(j int) int {
	switch {
	case s.longest[j] > 0:
		return s.longest[j]
	case s.seen[j] >= s.end:
		return 1
	default:
		return s.fallback
	}
}

// Code maps the physical type of selected column j to its host code.
func (s *WidthScanner) Code(j int, p schema.Physical) (schema.HostCode, error) {
	scanned := 0
	if s.Enabled() && p.Kind == schema.KindByteArray {
		scanned = s.Width(j)
	}
	return schema.ToHostCode(p, scanned, s.fallback)
}

func (s *WidthScanner) scan(f *File, j, col int, name string, groups []int) error {
	maxDef := f.maxDefinitionLevel(col)
	for _, g := range f.groups(groups) {
		if s.seen[j] >= s.end {
			return nil
		}
		n := f.RowGroupRows(g)
		if s.seen[j]+n < s.from {
			s.seen[j] += n
			continue
		}

		cr, err := f.rdr.RowGroup(g).Column(col)
		if err != nil {
			return sperrors.Wrap(err, sperrors.ErrorTypeUnderlyingLibrary, "cannot open column "+name)
		}
		r, ok := cr.(*file.ByteArrayColumnChunkReader)
		if !ok {
			return sperrors.Newf(sperrors.ErrorTypeUnknownType, "column %s has unexpected chunk reader %T", name, cr)
		}

		base := s.seen[j]
		v := &scanColumn{file: f, cursor: &columnCursor{name: name}, col: col, batch: s.batch, maxDef: maxDef}
		err = scanValues(v, r.HasNext, r.ReadBatch, func(i int64, x parquet.ByteArray, valid bool) (bool, error) {
			pos := base + i
			if pos < s.from {
				return false, nil
			}
			if pos > s.end {
				return true, nil
			}
			if valid && len(x) > s.longest[j] {
				s.longest[j] = len(x)
			}
			return pos >= s.end, nil
		})
		if err != nil {
			return err
		}
		s.seen[j] = base + n
	}
	return nil
}

// widthVisitor scans byte-array columns and accepts every other known type.
type widthVisitor struct {
	scanner *WidthScanner
	file    *File
	j, col  int
	name    string
	groups  []int
}

func (v *widthVisitor) Boolean() error           { return nil }
func (v *widthVisitor) Int32() error             { return nil }
func (v *widthVisitor) Int64() error             { return nil }
func (v *widthVisitor) Float32() error           { return nil }
func (v *widthVisitor) Float64() error           { return nil }
func (v *widthVisitor) FixedByteArray(int) error { return nil }

func (v *widthVisitor) ByteArray() error {
	if !v.scanner.Enabled() {
		return nil
	}
	return v.scanner.scan(v.file, v.j, v.col, v.name, v.groups)
}
