package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2045, cfg.StrBuffer)
	assert.Equal(t, int64(1<<30), cfg.ChunkBytes)
	assert.Equal(t, int64(1_000_000), cfg.RowGroupSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero buffer", func(c *Config) { c.StrBuffer = 0 }},
		{"negative scan", func(c *Config) { c.StrScan = -1 }},
		{"zero chunk", func(c *Config) { c.ChunkBytes = 0 }},
		{"zero row group", func(c *Config) { c.RowGroupSize = 0 }},
		{"negative interval", func(c *Config) { c.ProgressInterval = -1 }},
		{"unknown codec", func(c *Config) { c.Compression = "lzma" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCodec(t *testing.T) {
	tests := map[string]compress.Compression{
		"":       compress.Codecs.Snappy,
		"SNAPPY": compress.Codecs.Snappy,
		"none":   compress.Codecs.Uncompressed,
		"gzip":   compress.Codecs.Gzip,
		"zstd":   compress.Codecs.Zstd,
		"brotli": compress.Codecs.Brotli,
		"lz4":    compress.Codecs.Lz4Raw,
	}
	for name, want := range tests {
		got, err := (&Config{Compression: name}).Codec()
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestEffectiveLogLevel(t *testing.T) {
	assert.Equal(t, "warn", (&Config{}).EffectiveLogLevel())
	assert.Equal(t, "error", (&Config{LogLevel: "error"}).EffectiveLogLevel())
	assert.Equal(t, "info", (&Config{LogLevel: "error", Verbose: true}).EffectiveLogLevel())
	assert.Equal(t, "debug", (&Config{Verbose: true, Debug: true}).EffectiveLogLevel())
	assert.Equal(t, 1500*time.Millisecond, (&Config{ProgressInterval: 1.5}).Interval())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sparquet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("str_buffer: 244\ncompression: zstd\nlog_level: ${SPARQUET_TEST_LEVEL}\n"), 0o600))
	t.Setenv("SPARQUET_TEST_LEVEL", "debug")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 244, cfg.StrBuffer)
	assert.Equal(t, "zstd", cfg.Compression)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(DefaultRowGroupSize), cfg.RowGroupSize)

	t.Setenv("SPARQUET_ROW_GROUP_SIZE", "10")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 244, cfg.StrBuffer)
	assert.Equal(t, int64(10), cfg.RowGroupSize)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.FixedLen = true
	cfg.StrScan = 50
	require.NoError(t, Save(path, cfg))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
