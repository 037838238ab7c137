// Package main provides the entry point for memkv-server.
//
// memkv-server serves an in-memory key-value store over the Redis
// serialization protocol (SET, GET, DEL, QUIT) and, optionally, an admin
// HTTP endpoint with health, version and Prometheus metrics.
//
// Usage:
//
//	memkv-server [flags]
//	memkv-server --config /path/to/config.yaml
//	memkv-server --addr 0.0.0.0:6380 --admin-addr 127.0.0.1:9121
//
// Configuration is layered: defaults, the YAML file, MEMKV_* environment
// variables, then flags.
package main
