package columnar

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/progress"
	"github.com/ajitpratap0/sparquet/pkg/schema"
	"github.com/ajitpratap0/sparquet/pkg/testutil"
)

// roundTripDataset holds one column per host type code. Fixed-length byte
// arrays cannot be combined with booleans, so fixedLen drops the flag column.
func roundTripDataset(fixedLen bool) (*host.Dataset, []schema.HostCode) {
	ds := host.NewDataset()
	var codes []schema.HostCode
	if !fixedLen {
		ds.AddNumeric("flag", 1, 0, 1, 0)
		codes = append(codes, schema.CodeBoolean)
	}
	ds.AddNumeric("small", -3, 0, 7, 32767).
		AddNumeric("n", 1, -2, 3, 2147483647).
		AddNumeric("f", 1.5, -2.25, 0, 3.75).
		AddNumeric("d", 0.1, 1e300, -7, 42).
		AddString("s", 5, "abcde", "", "x", "hello")
	codes = append(codes, schema.CodeInt16, schema.CodeInt32, schema.CodeFloat32, schema.CodeFloat64, 5)
	return ds, codes
}

func TestRoundTrip(t *testing.T) {
	for wname, w := range writers(t) {
		for rname, r := range readers(t) {
			for _, fixed := range []bool{false, true} {
				name := wname + "/" + rname
				if fixed {
					name += "/fixedlen"
				}
				t.Run(name, func(t *testing.T) {
					src, codes := roundTripDataset(fixed)
					req := writeRequest(testutil.TempPath(t, "rt.parquet"), src, codes...)
					req.FixedLen = fixed

					res, err := w.Write(context.Background(), src, req)
					require.NoError(t, err)
					assert.Equal(t, int64(4), res.Rows)

					got, rres, err := readBack(t, r, req.Path, 1, 4, 5)
					require.NoError(t, err)
					assert.Equal(t, int64(4), rres.Rows)
					assert.Zero(t, rres.NullStrings)
					for j, v := range src.Variables() {
						col := int64(j + 1)
						if v.IsString() {
							assert.Equal(t, v.Strings, strs(t, got, col), v.Name)
						} else {
							assert.Equal(t, v.Numbers, numbers(t, got, col), v.Name)
						}
					}
				})
			}
		}
	}
}

func TestWriteFixedLenRejectsBoolean(t *testing.T) {
	src := host.NewDataset().AddNumeric("flag", 1, 0).AddString("s", 3, "a", "b")
	for wname, w := range writers(t) {
		path := testutil.TempPath(t, "fixed.parquet")
		req := writeRequest(path, src, schema.CodeBoolean, 3)
		req.FixedLen = true

		_, err := w.Write(context.Background(), src, req)
		require.Error(t, err, wname)
		assert.True(t, sperrors.IsType(err, sperrors.ErrorTypeUnsupportedType), wname)
	}
}

func TestWriteThreeByTwo(t *testing.T) {
	src := host.NewDataset().
		AddNumeric("A", 1, 2, host.MissingValue).
		AddString("B", 10, "ab", "", "longerword")

	t.Run("width 10", func(t *testing.T) {
		req := writeRequest(testutil.TempPath(t, "a.parquet"), src, schema.CodeInt32, 10)
		_, err := (&BuilderWriter{}).Write(context.Background(), src, req)
		require.NoError(t, err)

		for rname, r := range readers(t) {
			got, res, err := readBack(t, r, req.Path, 1, 3, 10)
			require.NoError(t, err, rname)
			assert.Equal(t, int64(3), res.Rows)
			assert.Equal(t, []float64{1, 2, host.MissingValue}, numbers(t, got, 1), rname)
			assert.Equal(t, []string{"ab", "", "longerword"}, strs(t, got, 2), rname)
		}
	})

	t.Run("width 5", func(t *testing.T) {
		// the stream writer rejects the missing A value before reaching B
		complete := host.NewDataset().
			AddNumeric("A", 1, 2, 3).
			AddString("B", 10, "ab", "", "longerword")
		inputs := map[string]*host.Dataset{"builder": src, "stream": complete}
		for wname, w := range writers(t) {
			req := writeRequest(testutil.TempPath(t, "b.parquet"), inputs[wname], schema.CodeInt32, 5)
			_, err := w.Write(context.Background(), inputs[wname], req)
			require.Error(t, err, wname)
			assert.True(t, sperrors.IsType(err, sperrors.ErrorTypeBufferTooSmall), wname)
			assert.Contains(t, err.Error(), "longerword")
			d := details(t, err)
			assert.Equal(t, int64(3), d["row"])
			assert.Equal(t, "B", d["column"])
			assert.Equal(t, 10, d["length"])
		}
	})
}

func TestBuilderWriterFailedColumnReturnsError(t *testing.T) {
	tests := []struct {
		name  string
		src   *host.Dataset
		codes []schema.HostCode
	}{
		{"first column", host.NewDataset().AddString("B", 10, "longerword"), []schema.HostCode{5}},
		{"middle column", host.NewDataset().
			AddNumeric("A", 1).
			AddString("B", 10, "longerword").
			AddNumeric("C", 2), []schema.HostCode{schema.CodeInt32, 5, schema.CodeFloat64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := writeRequest(testutil.TempPath(t, "fail.parquet"), tt.src, tt.codes...)
			var err error
			require.NotPanics(t, func() {
				_, err = (&BuilderWriter{Logger: testutil.TestLogger(t)}).Write(context.Background(), tt.src, req)
			})
			require.Error(t, err)
			assert.True(t, sperrors.IsType(err, sperrors.ErrorTypeBufferTooSmall))
			assert.Contains(t, err.Error(), "longerword")
		})
	}

	t.Run("cancelled", func(t *testing.T) {
		src := host.NewDataset().AddNumeric("A", 1)
		req := writeRequest(testutil.TempPath(t, "cancel.parquet"), src, schema.CodeInt32)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var err error
		require.NotPanics(t, func() {
			_, err = (&BuilderWriter{}).Write(ctx, src, req)
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWriteMissingValues(t *testing.T) {
	src := host.NewDataset().AddNumeric("x", 1, host.MissingValue, host.ExtendedMissing(3))

	t.Run("builder stores nulls", func(t *testing.T) {
		req := writeRequest(testutil.TempPath(t, "m.parquet"), src, schema.CodeFloat64)
		res, err := (&BuilderWriter{}).Write(context.Background(), src, req)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.ExtendedMissing)

		for rname, r := range readers(t) {
			got, _, err := readBack(t, r, req.Path, 1, 3, 1)
			require.NoError(t, err)
			assert.Equal(t, []float64{1, host.MissingValue, host.MissingValue}, numbers(t, got, 1), rname)
		}
	})

	t.Run("stream rejects missing", func(t *testing.T) {
		req := writeRequest(testutil.TempPath(t, "m.parquet"), src, schema.CodeFloat64)
		_, err := (&StreamWriter{}).Write(context.Background(), src, req)
		require.Error(t, err)
		assert.True(t, sperrors.IsType(err, sperrors.ErrorTypeMissingNotSupported))
		assert.Equal(t, 17042, sperrors.Code(err))
		assert.Equal(t, int64(2), details(t, err)["row"])
	})
}

func TestWriteNoObservations(t *testing.T) {
	src := host.NewDataset().AddNumeric("x")
	for wname, w := range writers(t) {
		path := testutil.TempPath(t, "empty.parquet")
		req := writeRequest(path, src, schema.CodeFloat64)
		req.From, req.To = 1, 0

		_, err := w.Write(context.Background(), src, req)
		require.Error(t, err, wname)
		assert.True(t, sperrors.IsType(err, sperrors.ErrorTypeNoObservations), wname)
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "%s created %s", wname, path)
	}
}

func TestWriteUnsupportedCode(t *testing.T) {
	src := host.NewDataset().AddNumeric("x", 1)
	req := writeRequest(testutil.TempPath(t, "u.parquet"), src, schema.HostCode(-9))
	_, err := (&BuilderWriter{}).Write(context.Background(), src, req)
	require.Error(t, err)
	assert.True(t, sperrors.IsType(err, sperrors.ErrorTypeUnsupportedType))
}

func TestWriteSmallBudgetAndRowGroups(t *testing.T) {
	values := make([]float64, 10)
	labels := make([]string, 10)
	for i := range values {
		values[i] = float64(i + 1)
		labels[i] = string(rune('a' + i))
	}
	src := host.NewDataset().AddNumeric("x", values...).AddString("s", 1, labels...)

	req := writeRequest(testutil.TempPath(t, "chunks.parquet"), src, schema.CodeFloat64, 1)
	req.ChunkBytes = 8
	req.RowGroupSize = 3
	res, err := (&BuilderWriter{}).Write(context.Background(), src, req)
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Rows)

	f, err := Open(req.Path)
	require.NoError(t, err)
	assert.Equal(t, 4, f.NumRowGroups())
	assert.Equal(t, int64(10), f.Shape().Rows)
	require.NoError(t, f.Close())

	got, _, err := readBack(t, &ScanReader{}, req.Path, 1, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, values, numbers(t, got, 1))
	assert.Equal(t, labels, strs(t, got, 2))
}

func TestWriteIfPredicate(t *testing.T) {
	src := host.NewDataset().AddNumeric("x", 10, 20, 30, 40, 50).AddString("s", 2, "a", "b", "c", "d", "e")
	for wname, w := range writers(t) {
		t.Run(wname, func(t *testing.T) {
			rep := progress.NewReporter(1, 0, 10, progress.ObserverFunc(func(progress.Observation) {}))
			req := writeRequest(testutil.TempPath(t, "if.parquet"), src, schema.CodeFloat64, 2)
			req.If = func(row int64) bool { return row%2 == 1 }
			req.Progress = rep

			res, err := w.Write(context.Background(), src, req)
			require.NoError(t, err)
			assert.Equal(t, int64(3), res.Rows)
			assert.Equal(t, int64(10), rep.Processed())

			got, _, err := readBack(t, &BatchReader{}, req.Path, 1, 3, 2)
			require.NoError(t, err)
			assert.Equal(t, []float64{10, 30, 50}, numbers(t, got, 1))
			assert.Equal(t, []string{"a", "c", "e"}, strs(t, got, 2))
		})
	}
}

func TestWriteSubrange(t *testing.T) {
	src := host.NewDataset().AddNumeric("x", 1, 2, 3, 4, 5)
	req := writeRequest(testutil.TempPath(t, "sub.parquet"), src, schema.CodeInt32)
	req.From, req.To = 2, 4
	res, err := (&StreamWriter{}).Write(context.Background(), src, req)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Rows)

	got, _, err := readBack(t, &ScanReader{}, req.Path, 1, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, numbers(t, got, 1))
}
