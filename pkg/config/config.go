package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/parquet/compress"
)

// Defaults
const (
	DefaultStrBuffer       = 2045
	DefaultChunkBytes      = 1 << 30
	DefaultRowGroupSize    = 1_000_000
	DefaultProgressEvery   = 100_000
	DefaultCompression     = "snappy"
	DefaultLogLevel        = "warn"
	DefaultLogEncoding     = "console"
	DefaultProgressSeconds = 0
)

// Config is the bridge configuration.
type Config struct {
	// StrBuffer is the host width used for byte-array columns when no
	// width scan ran
	StrBuffer int `yaml:"str_buffer" json:"str_buffer" mapstructure:"str_buffer"`
	// StrScan is how many rows the width scanner inspects; 0 disables it
	StrScan int64 `yaml:"str_scan" json:"str_scan" mapstructure:"str_scan"`
	// ChunkBytes bounds the in-flight arrow array of one column
	ChunkBytes int64 `yaml:"chunk_bytes" json:"chunk_bytes" mapstructure:"chunk_bytes"`
	// RowGroupSize is the number of rows per written row group
	RowGroupSize int64 `yaml:"row_group_size" json:"row_group_size" mapstructure:"row_group_size"`
	// ProgressInterval is the minimum number of seconds between progress reports
	ProgressInterval float64 `yaml:"progress_interval" json:"progress_interval" mapstructure:"progress_interval"`
	// ProgressEvery is the number of values between progress checks
	ProgressEvery int64 `yaml:"progress_every" json:"progress_every" mapstructure:"progress_every"`

	FixedLen bool `yaml:"fixed_len" json:"fixed_len" mapstructure:"fixed_len"`
	LowLevel bool `yaml:"low_level" json:"low_level" mapstructure:"low_level"`
	Multi    bool `yaml:"multi" json:"multi" mapstructure:"multi"`
	IfRows   bool `yaml:"if_rows" json:"if_rows" mapstructure:"if_rows"`
	// Parallel lets the columnar library decode columns concurrently
	Parallel bool `yaml:"parallel" json:"parallel" mapstructure:"parallel"`

	// Compression is the writer codec (none, snappy, gzip, zstd, brotli, lz4)
	Compression string `yaml:"compression" json:"compression" mapstructure:"compression"`

	Verbose     bool   `yaml:"verbose" json:"verbose" mapstructure:"verbose"`
	Debug       bool   `yaml:"debug" json:"debug" mapstructure:"debug"`
	LogLevel    string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	LogEncoding string `yaml:"log_encoding" json:"log_encoding" mapstructure:"log_encoding"`
	Tracing     bool   `yaml:"tracing" json:"tracing" mapstructure:"tracing"`
}

// Default returns a Config with the default settings.
func Default() *Config {
	return &Config{
		StrBuffer:        DefaultStrBuffer,
		ChunkBytes:       DefaultChunkBytes,
		RowGroupSize:     DefaultRowGroupSize,
		ProgressInterval: DefaultProgressSeconds,
		ProgressEvery:    DefaultProgressEvery,
		Compression:      DefaultCompression,
		LogLevel:         DefaultLogLevel,
		LogEncoding:      DefaultLogEncoding,
	}
}

// Validate validates the configuration for correctness.
func (c *Config) Validate() error {
	if c.StrBuffer <= 0 {
		return fmt.Errorf("str_buffer must be positive")
	}
	if c.StrScan < 0 {
		return fmt.Errorf("str_scan cannot be negative")
	}
	if c.ChunkBytes <= 0 {
		return fmt.Errorf("chunk_bytes must be positive")
	}
	if c.RowGroupSize <= 0 {
		return fmt.Errorf("row_group_size must be positive")
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval cannot be negative")
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("progress_every cannot be negative")
	}
	if _, err := c.Codec(); err != nil {
		return err
	}
	return nil
}

// Codec maps Compression to the parquet codec.
func (c *Config) Codec() (compress.Compression, error) {
	switch strings.ToLower(c.Compression) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unknown compression %q", c.Compression)
	}
}

// Interval is ProgressInterval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.ProgressInterval * float64(time.Second))
}

// EffectiveLogLevel raises the configured level for the verbose and debug
// toggles.
func (c *Config) EffectiveLogLevel() string {
	switch {
	case c.Debug:
		return "debug"
	case c.Verbose:
		return "info"
	case c.LogLevel == "":
		return DefaultLogLevel
	default:
		return c.LogLevel
	}
}
