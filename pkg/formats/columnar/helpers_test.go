package columnar

import (
	"context"
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/stretchr/testify/require"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/schema"
	"github.com/ajitpratap0/sparquet/pkg/testutil"
)

func writers(t *testing.T) map[string]Writer {
	return map[string]Writer{
		"builder": &BuilderWriter{Logger: testutil.TestLogger(t)},
		"stream":  &StreamWriter{BatchSize: 2, Logger: testutil.TestLogger(t)},
	}
}

func readers(t *testing.T) map[string]Reader {
	return map[string]Reader{
		"batch": &BatchReader{Logger: testutil.TestLogger(t)},
		"scan":  &ScanReader{BatchSize: 3, Logger: testutil.TestLogger(t)},
	}
}

// writeRequest describes a write of every row of ds with the given codes.
func writeRequest(path string, ds *host.Dataset, codes ...schema.HostCode) WriteRequest {
	names := make([]string, len(ds.Variables()))
	for j, v := range ds.Variables() {
		names[j] = v.Name
	}
	return WriteRequest{
		Path:        path,
		Names:       names,
		Codes:       codes,
		From:        1,
		To:          ds.NumRows(),
		Compression: compress.Codecs.Snappy,
	}
}

// readBack reads rows [from, to] of every column of path into a fresh
// dataset. String columns get strWidth.
func readBack(t *testing.T, r Reader, path string, from, to int64, strWidth int) (*host.Dataset, ReadResult, error) {
	t.Helper()
	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	descs := f.Descriptors()
	cols := make([]int, len(descs))
	widths := make([]int, len(descs))
	for j, d := range descs {
		cols[j] = j
		if k := d.Physical.Kind; k == schema.KindByteArray || k == schema.KindFixedByteArray {
			widths[j] = strWidth
		}
	}
	ds := host.NewDataset()
	require.NoError(t, ds.Prepare(f.Names(), widths, to-from+1))
	res, err := r.Read(context.Background(), f, ReadRequest{
		Columns: cols,
		Widths:  widths,
		From:    from,
		To:      to,
	}, ds)
	return ds, res, err
}

func numbers(t *testing.T, ds *host.Dataset, col int64) []float64 {
	t.Helper()
	v, err := ds.Variable(col)
	require.NoError(t, err)
	return v.Numbers
}

func strs(t *testing.T, ds *host.Dataset, col int64) []string {
	t.Helper()
	v, err := ds.Variable(col)
	require.NoError(t, err)
	return v.Strings
}

func details(t *testing.T, err error) map[string]interface{} {
	t.Helper()
	var e *sperrors.Error
	require.True(t, errors.As(err, &e), "not a domain error: %v", err)
	return e.Details
}
