// Package logger provides structured logging for memkv.
//
//   - logger.go: slog-based Logger, level control, the process logger and
//     connection-scoped attributes
//   - context.go: context propagation of the logger and connection ID
//   - redact.go: redaction of secrets and binary payloads
//
// The level is held in a shared slog.LevelVar, so SetLevel takes effect for
// every logger created by New, including ones already handed out.
package logger
