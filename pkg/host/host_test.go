package host

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sparquet/pkg/compression"
)

func TestMissingValues(t *testing.T) {
	assert.True(t, IsMissing(MissingValue))
	assert.False(t, IsExtendedMissing(MissingValue))
	assert.False(t, IsMissing(1e300))

	prev := MissingValue
	for k := 1; k <= 26; k++ {
		z := ExtendedMissing(k)
		assert.True(t, IsMissing(z))
		assert.True(t, IsExtendedMissing(z))
		assert.Greater(t, z, prev)
		prev = z
	}
}

func TestDatasetSlots(t *testing.T) {
	ds := NewDataset().
		AddNumeric("x", 1, 2, 3).
		AddString("s", 4, "a", "bb")
	assert.Equal(t, int64(3), ds.NumRows())

	v, err := ds.Numeric(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	s, err := ds.String(2, 2)
	require.NoError(t, err)
	assert.Equal(t, "bb", s)

	require.NoError(t, ds.StoreString(2, 1, "abcd"))
	assert.Error(t, ds.StoreString(2, 1, "abcde"))

	tests := []struct {
		name string
		call func() error
	}{
		{"column out of range", func() error { _, err := ds.Numeric(3, 1); return err }},
		{"row out of range", func() error { _, err := ds.Numeric(1, 4); return err }},
		{"row zero", func() error { return ds.StoreNumeric(1, 0, 1) }},
		{"numeric into string", func() error { return ds.StoreNumeric(2, 1, 1) }},
		{"string from numeric", func() error { _, err := ds.String(1, 1); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.call())
		})
	}
}

func TestDatasetPrepare(t *testing.T) {
	ds := NewDataset().AddNumeric("old", 1)
	require.NoError(t, ds.Prepare([]string{"n", "s"}, []int{0, 5}, 2))
	require.Len(t, ds.Variables(), 2)

	n, _ := ds.Variable(1)
	s, _ := ds.Variable(2)
	assert.Equal(t, []float64{MissingValue, MissingValue}, n.Numbers)
	assert.Equal(t, []string{"", ""}, s.Strings)

	assert.Error(t, ds.Prepare([]string{"n"}, []int{0, 1}, 2))
}

func TestDatasetRangeAndIf(t *testing.T) {
	ds := NewDataset().AddNumeric("x", 1, 2, 3, 4)
	in1, in2 := ds.InRange()
	assert.Equal(t, int64(1), in1)
	assert.Equal(t, int64(4), in2)
	assert.True(t, ds.IfObs(3))

	ds.SetRange(2, 3)
	in1, in2 = ds.InRange()
	assert.Equal(t, int64(2), in1)
	assert.Equal(t, int64(3), in2)

	ds.SetIf(func(row int64) bool { return row%2 == 0 })
	assert.True(t, ds.IfObs(2))
	assert.False(t, ds.IfObs(3))
}

func TestDatasetScalars(t *testing.T) {
	ds := NewDataset()
	_, err := ds.Int(ScalarNRow)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = ds.Matrix(MatrixColIx)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = IntMatrix(ds, MatrixColIx)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, ds.SetInt(ScalarNRow, 7))
	n, err := ds.Int(ScalarNRow)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	require.NoError(t, ds.SetFloat(ScalarProgress, 0.5))
	f, err := ds.Float(ScalarProgress)
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	values := []float64{3, 1, 2}
	require.NoError(t, ds.SetMatrix(MatrixColIx, values))
	values[0] = 99
	ix, err := IntMatrix(ds, MatrixColIx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ix)
}

func TestNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, WriteNames(path, []string{"id", "", "name"}))

	names, err := ReadNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "", "name"}, names)

	_, err = ReadNames(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files.txt")
	require.NoError(t, os.WriteFile(path, []byte("a.parquet\r\n\n  \nb.parquet\n"), 0o600))

	paths, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.parquet", "b.parquet"}, paths)
}

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	empty, err := LoadState(path)
	require.NoError(t, err)
	assert.Empty(t, FromState(empty).Variables())

	ds := FromState(&State{
		Scalars:  map[string]float64{ScalarStrScan: 10},
		Matrices: map[string][]float64{MatrixColTypes: {-5, 3}},
		In1:      1,
		In2:      2,
		If:       []int64{2},
	})
	ds.AddNumeric("x", 1, MissingValue).AddString("s", 3, "abc", "")
	require.NoError(t, SaveState(path, ds.State()))

	loaded, err := LoadState(path)
	require.NoError(t, err)
	back := FromState(loaded)

	scan, err := back.Int(ScalarStrScan)
	require.NoError(t, err)
	assert.Equal(t, int64(10), scan)
	types, err := back.Matrix(MatrixColTypes)
	require.NoError(t, err)
	assert.Equal(t, []float64{-5, 3}, types)
	assert.False(t, back.IfObs(1))
	assert.True(t, back.IfObs(2))

	x, err := back.Numeric(1, 2)
	require.NoError(t, err)
	assert.True(t, IsMissing(x))
	s, err := back.String(2, 1)
	require.NoError(t, err)
	assert.Equal(t, "abc", s)
}

func TestLoadStateInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := LoadState(path)
	assert.Error(t, err)
}

func TestCompressedStateAndManifest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"state.json.zst", "state.json.gz", "state.json.lz4"} {
		path := filepath.Join(dir, name)
		ds := NewDataset().AddNumeric("x", 1, 2)
		require.NoError(t, ds.SetInt(ScalarNCol, 1))
		require.NoError(t, SaveState(path, ds.State()))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotEqual(t, byte('{'), raw[0], name)

		loaded, err := LoadState(path)
		require.NoError(t, err, name)
		back := FromState(loaded)
		assert.Equal(t, int64(2), back.NumRows(), name)
	}

	manifest := filepath.Join(dir, "files.txt.zst")
	f, err := os.Create(manifest)
	require.NoError(t, err)
	w, err := compression.NewWriter(f, compression.Zstd, compression.Default)
	require.NoError(t, err)
	_, err = w.Write([]byte("a.parquet\n\nb.parquet\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	paths, err := ReadManifest(manifest)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.parquet", "b.parquet"}, paths)
}
