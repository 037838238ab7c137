// Package config provides server configuration for memkv.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default configuration values
//   - verify.go: validation (address formats, port conflicts, ranges)
//   - sanitize.go: normalization of loaded values
//
// Configuration is loaded via internal/infra/confloader from files,
// environment variables and flags.
package config
