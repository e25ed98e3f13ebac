package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sparquet/pkg/schema"
	"github.com/ajitpratap0/sparquet/pkg/testutil"
)

func scanWidth(t *testing.T, s *WidthScanner, paths ...string) int {
	t.Helper()
	for _, p := range paths {
		f, err := Open(p)
		require.NoError(t, err)
		require.NoError(t, s.Visit(f, 0, 0, nil))
		require.NoError(t, f.Close())
	}
	return s.Width(0)
}

func TestWidthScanner(t *testing.T) {
	mixed := testutil.WriteParquet(t, testutil.TempPath(t, "mixed.parquet"), 2,
		testutil.StringCol("s", "ab", "abcde", "abcdefgh"))
	empty := testutil.WriteParquet(t, testutil.TempPath(t, "empty.parquet"), 2,
		testutil.StringCol("s", "", nil, ""))
	long := testutil.WriteParquet(t, testutil.TempPath(t, "long.parquet"), 2,
		testutil.StringCol("s", "abcdef", "", ""))

	tests := []struct {
		name     string
		from, to int64
		depth    int64
		paths    []string
		want     int
	}{
		{"longest value", 1, 3, 10, []string{mixed}, 8},
		{"depth bounds the window", 1, 3, 2, []string{mixed}, 5},
		{"window starts late", 3, 3, 10, []string{mixed}, 8},
		{"only empty values", 1, 3, 10, []string{empty}, 1},
		{"window not reached", 1, 100, 50, []string{empty}, 2045},
		{"carries across files", 1, 6, 4, []string{empty, long}, 6},
		{"stops at first file", 1, 6, 3, []string{empty, long}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewWidthScanner(1, tt.from, tt.to, tt.depth, 2045)
			require.True(t, s.Enabled())
			assert.Equal(t, tt.want, scanWidth(t, s, tt.paths...))

			code, err := s.Code(0, schema.ByteArray)
			require.NoError(t, err)
			assert.Equal(t, schema.HostCode(tt.want), code)
		})
	}
}

func TestWidthScannerDisabled(t *testing.T) {
	s := NewWidthScanner(1, 1, 10, 0, 2045)
	assert.False(t, s.Enabled())

	code, err := s.Code(0, schema.ByteArray)
	require.NoError(t, err)
	assert.Equal(t, schema.HostCode(2045), code)

	code, err = s.Code(0, schema.FixedByteArray(12))
	require.NoError(t, err)
	assert.Equal(t, schema.HostCode(12), code)
}

func TestWidthScannerIgnoresNumericColumns(t *testing.T) {
	path := testutil.WriteParquet(t, testutil.TempPath(t, "n.parquet"), 10,
		testutil.Int64Col("n", 1, 2),
		testutil.StringCol("s", "abc", "a"))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	s := NewWidthScanner(2, 1, 2, 5, 9)
	require.NoError(t, s.Visit(f, 0, 0, nil))
	require.NoError(t, s.Visit(f, 1, 1, nil))
	assert.Equal(t, 3, s.Width(1))

	code, err := s.Code(0, schema.Int64)
	require.NoError(t, err)
	assert.Equal(t, schema.CodeFloat64, code)
}
