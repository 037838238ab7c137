// Package redisserver serves the memkv command set over RESP.
//
//   - session.go: per-connection request loop (Handle, Session)
//   - server.go: TCP listener, accept loop, connection registry, shutdown
//   - limiter.go: optional per-client-IP request rate limiting
//
// Each accepted connection runs in its own goroutine. The store is the only
// state sessions share; a failure in one session never affects another.
package redisserver
