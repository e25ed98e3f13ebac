package compression

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want Algorithm
	}{
		{"state.json", None},
		{"state.json.zst", Zstd},
		{"files.txt.GZ", Gzip},
		{"files.txt.lz4", LZ4},
		{"state.sz", S2},
		{"noext", None},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ForPath(tt.path))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("/data/part-00001.parquet\n"), 200)

	for _, alg := range []Algorithm{None, Gzip, LZ4, Zstd, S2} {
		for _, level := range []Level{Fastest, Default, Best} {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, alg, level)
			require.NoError(t, err, alg)
			_, err = w.Write(original)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			if alg != None {
				assert.Less(t, buf.Len(), len(original), alg)
			}

			r, err := NewReader(&buf, alg)
			require.NoError(t, err, alg)
			got, err := io.ReadAll(r)
			require.NoError(t, err, alg)
			require.NoError(t, r.Close())
			assert.Equal(t, original, got, alg)
		}
	}
}

func TestUnsupported(t *testing.T) {
	_, err := NewWriter(io.Discard, "brotli", Default)
	assert.Error(t, err)
	_, err = NewReader(bytes.NewReader(nil), "brotli")
	assert.Error(t, err)
}
