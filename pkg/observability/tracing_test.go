package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
)

func TestCommandSpansAreExported(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Initialize(TracingConfig{ServiceName: "sparquet-test", Writer: &buf}))
	t.Cleanup(func() { _ = Shutdown(context.Background()) })

	ctx, span := StartCommand(context.Background(), "read", []string{"multi"})
	_, fileSpan := StartFile(ctx, "read", "/tmp/a.parquet", 1)
	End(fileSpan, sperrors.New(sperrors.ErrorTypeSchemaMismatch, "column count"))
	End(span, nil)

	out := buf.String()
	assert.Contains(t, out, "sparquet.read")
	assert.Contains(t, out, "sparquet.read.file")
	assert.Contains(t, out, "schema_mismatch")
}

func TestShutdownWithoutProvider(t *testing.T) {
	assert.NoError(t, Shutdown(context.Background()))

	_, span := StartCommand(context.Background(), "check", nil)
	End(span, nil)
}
