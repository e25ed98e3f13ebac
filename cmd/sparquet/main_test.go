package main

import (
	"bytes"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sparquet/pkg/host"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestWriteThenReadThroughStateFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.json.zst")
	dst := filepath.Join(dir, "dst.json")
	names := filepath.Join(dir, "names.txt")
	data := filepath.Join(dir, "data.parquet")

	ds := host.NewDataset().
		AddNumeric("x", 1.5, host.MissingValue).
		AddString("s", 5, "ab", "cde")
	require.NoError(t, ds.SetMatrix(host.MatrixColTypes, []float64{-5, 5}))
	require.NoError(t, host.SaveState(src, ds.State()))
	require.NoError(t, host.WriteNames(names, []string{"x", "s"}))

	_, err := execute(t, "--state", src, "write", data, names)
	require.NoError(t, err)

	out, err := execute(t, "--state", dst, "--json", "read", data)
	require.NoError(t, err)
	var r result
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 0, r.Code)
	assert.Equal(t, 2.0, r.Scalars[host.ScalarNRead])
	assert.Equal(t, []float64{-5, 2045}, r.Matrices[host.MatrixColTypes])

	state, err := host.LoadState(dst)
	require.NoError(t, err)
	back := host.FromState(state)
	x, err := back.Variable(1)
	require.NoError(t, err)
	assert.Equal(t, "x", x.Name)
	assert.Equal(t, []float64{1.5, host.MissingValue}, x.Numbers)
	s, err := back.Variable(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab", "cde"}, s.Strings)
}

func TestCommandErrorsCarryCode(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "--state", filepath.Join(dir, "st.json"), "--json", "shape", filepath.Join(dir, "absent.parquet"))
	require.Error(t, err)

	var r result
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.NotZero(t, r.Code)
	assert.NotEmpty(t, r.Error)
}

func TestArgumentCount(t *testing.T) {
	_, err := execute(t, "--state", filepath.Join(t.TempDir(), "st.json"), "write", "only-one.parquet")
	assert.Error(t, err)
}
