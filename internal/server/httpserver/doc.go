// Package httpserver provides the admin HTTP server for memkv.
//
// The admin server is optional and listens separately from the RESP port:
//
//   - /health: liveness
//   - /ready: readiness, fails once the store is poisoned
//   - /version: build information
//   - /metrics: Prometheus exposition
//
// Every request passes through RequestID, Recover and AccessLog.
package httpserver
