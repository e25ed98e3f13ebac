package host

import (
	"fmt"
)

// Variable is one host column. Width is 0 for numeric variables and the
// string capacity in bytes otherwise.
type Variable struct {
	Name    string    `json:"name"`
	Width   int       `json:"width,omitempty"`
	Numbers []float64 `json:"numbers,omitempty"`
	Strings []string  `json:"strings,omitempty"`
}

// IsString reports whether v holds strings.
func (v *Variable) IsString() bool {
	return v.Width > 0
}

// Len is the number of rows of v.
func (v *Variable) Len() int {
	if v.IsString() {
		return len(v.Strings)
	}
	return len(v.Numbers)
}

// Dataset is an in-memory Environment. It backs the CLI host-state
// document and the tests.
type Dataset struct {
	vars     []*Variable
	scalars  map[string]float64
	matrices map[string][]float64
	in1, in2 int64
	ifObs    Predicate
	ifRows   []int64
}

var _ Environment = (*Dataset)(nil)

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		scalars:  make(map[string]float64),
		matrices: make(map[string][]float64),
	}
}

// AddNumeric appends a numeric variable.
func (d *Dataset) AddNumeric(name string, values ...float64) *Dataset {
	d.vars = append(d.vars, &Variable{Name: name, Numbers: append([]float64(nil), values...)})
	return d
}

// AddString appends a string variable of the given capacity.
func (d *Dataset) AddString(name string, width int, values ...string) *Dataset {
	d.vars = append(d.vars, &Variable{Name: name, Width: width, Strings: append([]string(nil), values...)})
	return d
}

// Prepare replaces the variables with empty ones of the given widths, each
// holding rows slots. Numeric slots start at MissingValue and string slots
// blank, matching a freshly allocated host dataset.
func (d *Dataset) Prepare(names []string, widths []int, rows int64) error {
	if len(names) != len(widths) {
		return fmt.Errorf("host: %d names for %d widths", len(names), len(widths))
	}
	vars := make([]*Variable, len(names))
	for j, name := range names {
		v := &Variable{Name: name, Width: widths[j]}
		if v.IsString() {
			v.Strings = make([]string, rows)
		} else {
			v.Numbers = make([]float64, rows)
			for i := range v.Numbers {
				v.Numbers[i] = MissingValue
			}
		}
		vars[j] = v
	}
	d.vars = vars
	return nil
}

// Variables returns the variables in column order.
func (d *Dataset) Variables() []*Variable {
	return d.vars
}

// Variable returns the 1-indexed column.
func (d *Dataset) Variable(col int64) (*Variable, error) {
	if col < 1 || col > int64(len(d.vars)) {
		return nil, fmt.Errorf("host: column %d out of range [1, %d]", col, len(d.vars))
	}
	return d.vars[col-1], nil
}

// NumRows is the length of the longest variable.
func (d *Dataset) NumRows() int64 {
	var n int
	for _, v := range d.vars {
		if v.Len() > n {
			n = v.Len()
		}
	}
	return int64(n)
}

// SetRange sets the observation range returned by InRange.
func (d *Dataset) SetRange(in1, in2 int64) {
	d.in1, d.in2 = in1, in2
}

// SetIf installs the row predicate returned by IfObs.
func (d *Dataset) SetIf(p Predicate) {
	d.ifObs = p
	d.ifRows = nil
}

// InRange defaults to every row of the dataset.
func (d *Dataset) InRange() (int64, int64) {
	if d.in1 == 0 && d.in2 == 0 {
		return 1, d.NumRows()
	}
	return d.in1, d.in2
}

// IfObs defaults to true for every row.
func (d *Dataset) IfObs(row int64) bool {
	if d.ifObs == nil {
		return true
	}
	return d.ifObs(row)
}

func (d *Dataset) Int(name string) (int64, error) {
	v, err := d.Float(name)
	return int64(v), err
}

func (d *Dataset) Float(name string) (float64, error) {
	v, ok := d.scalars[name]
	if !ok {
		return 0, fmt.Errorf("scalar %s: %w", name, ErrNotFound)
	}
	return v, nil
}

func (d *Dataset) SetInt(name string, value int64) error {
	d.scalars[name] = float64(value)
	return nil
}

func (d *Dataset) SetFloat(name string, value float64) error {
	d.scalars[name] = value
	return nil
}

func (d *Dataset) Matrix(name string) ([]float64, error) {
	v, ok := d.matrices[name]
	if !ok {
		return nil, fmt.Errorf("matrix %s: %w", name, ErrNotFound)
	}
	return append([]float64(nil), v...), nil
}

func (d *Dataset) SetMatrix(name string, values []float64) error {
	d.matrices[name] = append([]float64(nil), values...)
	return nil
}

func (d *Dataset) slot(col, row int64, wantString bool) (*Variable, error) {
	v, err := d.Variable(col)
	if err != nil {
		return nil, err
	}
	if v.IsString() != wantString {
		return nil, fmt.Errorf("host: column %d (%s) has the wrong kind", col, v.Name)
	}
	if row < 1 || row > int64(v.Len()) {
		return nil, fmt.Errorf("host: row %d out of range [1, %d] for column %s", row, v.Len(), v.Name)
	}
	return v, nil
}

func (d *Dataset) StoreNumeric(col, row int64, value float64) error {
	v, err := d.slot(col, row, false)
	if err != nil {
		return err
	}
	v.Numbers[row-1] = value
	return nil
}

// StoreString fails when value exceeds the variable's capacity.
func (d *Dataset) StoreString(col, row int64, value string) error {
	v, err := d.slot(col, row, true)
	if err != nil {
		return err
	}
	if len(value) > v.Width {
		return fmt.Errorf("host: value of length %d exceeds str%d in column %s", len(value), v.Width, v.Name)
	}
	v.Strings[row-1] = value
	return nil
}

func (d *Dataset) Numeric(col, row int64) (float64, error) {
	v, err := d.slot(col, row, false)
	if err != nil {
		return 0, err
	}
	return v.Numbers[row-1], nil
}

func (d *Dataset) String(col, row int64) (string, error) {
	v, err := d.slot(col, row, true)
	if err != nil {
		return "", err
	}
	return v.Strings[row-1], nil
}
