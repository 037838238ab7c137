// Package config provides memkv-cli configuration.
//
// Settings come from ~/.memkv/cli.yaml (optional) and are overridden by
// command-line flags or their MEMKV_* environment variables:
//
//	server: 127.0.0.1:6379
//	output: text
//	timeout: 5s
//	history_file: ~/.memkv/history
package config
