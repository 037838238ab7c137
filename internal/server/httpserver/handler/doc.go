// Package handler provides the admin HTTP handlers for memkv.
//
//   - health.go: liveness, readiness and version
//   - types.go: the JSON response envelope
//
// /metrics is served by the Prometheus registry and is mounted by the
// router, not here.
package handler
