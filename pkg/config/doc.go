// Package config loads and validates the bridge configuration.
//
// # Sources
//
// Settings are resolved in increasing order of precedence:
//
//   - built-in defaults (Default)
//   - a YAML or TOML config file (Load) or a plain YAML file (LoadFile)
//   - SPARQUET_* environment variables, e.g. SPARQUET_STR_BUFFER=244
//   - the host's __sparquet_* scalars, applied by the dispatcher per call
//
// # Example
//
//	str_buffer: 244
//	str_scan: 1000
//	row_group_size: 500000
//	compression: zstd
//	log_level: ${SPARQUET_LOG}
//
// LoadFile expands ${VAR_NAME} references from the environment before
// parsing.
package config
