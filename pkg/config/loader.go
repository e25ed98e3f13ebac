package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the environment overrides, e.g. SPARQUET_STR_BUFFER.
const EnvPrefix = "SPARQUET"

// Load builds a Config from the defaults, an optional config file and the
// SPARQUET_* environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load over a caller-supplied viper instance, so a CLI can bind
// its flags first.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("str_buffer", d.StrBuffer)
	v.SetDefault("str_scan", d.StrScan)
	v.SetDefault("chunk_bytes", d.ChunkBytes)
	v.SetDefault("row_group_size", d.RowGroupSize)
	v.SetDefault("progress_interval", d.ProgressInterval)
	v.SetDefault("progress_every", d.ProgressEvery)
	v.SetDefault("fixed_len", d.FixedLen)
	v.SetDefault("low_level", d.LowLevel)
	v.SetDefault("multi", d.Multi)
	v.SetDefault("if_rows", d.IfRows)
	v.SetDefault("parallel", d.Parallel)
	v.SetDefault("compression", d.Compression)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_encoding", d.LogEncoding)
	v.SetDefault("tracing", d.Tracing)
}

// LoadFile reads a plain YAML config over the defaults, with ${VAR}
// references expanded from the environment.
func LoadFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the caller
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
