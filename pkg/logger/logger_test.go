package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	ctx := WithCommand(context.Background(), "read")
	ctx = WithFile(ctx, "/tmp/a.parquet", 2)
	WithContext(ctx).Warn("short read")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "read", fields["command"])
	assert.Equal(t, "/tmp/a.parquet", fields["file"])
	assert.Equal(t, int64(2), fields["file_index"])
}

func TestInitRejectsBadLevel(t *testing.T) {
	err := Init(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestGetFallsBackToDefault(t *testing.T) {
	Set(nil)
	l := Get()
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
}
