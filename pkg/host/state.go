package host

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/ajitpratap0/sparquet/pkg/compression"
)

// State is the serialisable form of a Dataset. The CLI loads it, runs one
// command against it, and saves it back, standing in for a live host.
type State struct {
	Scalars   map[string]float64   `json:"scalars,omitempty"`
	Matrices  map[string][]float64 `json:"matrices,omitempty"`
	Variables []*Variable          `json:"variables,omitempty"`
	In1       int64                `json:"in1,omitempty"`
	In2       int64                `json:"in2,omitempty"`
	// If lists the 1-indexed rows that satisfy the if-condition; empty
	// means every row does.
	If []int64 `json:"if,omitempty"`
}

// FromState builds a dataset from a state document.
func FromState(s *State) *Dataset {
	d := NewDataset()
	for k, v := range s.Scalars {
		d.scalars[k] = v
	}
	for k, v := range s.Matrices {
		d.matrices[k] = append([]float64(nil), v...)
	}
	d.vars = append(d.vars, s.Variables...)
	d.in1, d.in2 = s.In1, s.In2
	if len(s.If) > 0 {
		d.ifRows = append([]int64(nil), s.If...)
		rows := make(map[int64]struct{}, len(s.If))
		for _, r := range s.If {
			rows[r] = struct{}{}
		}
		d.ifObs = func(row int64) bool {
			_, ok := rows[row]
			return ok
		}
	}
	return d
}

// State snapshots the dataset. A predicate installed with SetIf is not
// serialisable and is dropped.
func (d *Dataset) State() *State {
	return &State{
		Scalars:   d.scalars,
		Matrices:  d.matrices,
		Variables: d.vars,
		In1:       d.in1,
		In2:       d.in2,
		If:        d.ifRows,
	}
}

// LoadState reads a state document. A missing file yields an empty state.
// Paths ending in a compression suffix (.zst, .gz, .lz4, .sz) are
// decompressed.
func LoadState(path string) (*State, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is chosen by the caller
	if os.IsNotExist(err) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read host state: %w", err)
	}
	defer f.Close()

	r, err := compression.NewReader(f, compression.ForPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read host state %s: %w", path, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read host state %s: %w", path, err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse host state %s: %w", path, err)
	}
	return &s, nil
}

// SaveState writes a state document, compressed when the path carries a
// compression suffix.
func SaveState(path string, s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode host state: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // G304: path is chosen by the caller
	if err != nil {
		return fmt.Errorf("failed to write host state: %w", err)
	}
	w, err := compression.NewWriter(f, compression.ForPath(path), compression.Default)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write host state: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		_ = f.Close()
		return fmt.Errorf("failed to write host state: %w", err)
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write host state: %w", err)
	}
	return f.Close()
}
