// Package metric provides Prometheus metrics for memkv.
//
// A Registry owns its own prometheus.Registry (Go runtime and process
// collectors included) and is exposed at /metrics by the admin server.
// All recording methods are safe on a nil *Registry, so metrics stay
// optional for callers such as tests.
package metric
