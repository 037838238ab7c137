// Package resp implements the RESP2 value model used by memkv.
//
// It provides:
//
//   - value.go: the closed Value union and its byte encoding
//   - decoder.go: a streaming decoder producing one Value per call
//   - writer.go: buffered helpers for writing Values to a connection
//
// The decoder is binary-safe: bulk payloads are read by declared length and
// never scanned for terminators. Declared lengths and counts are checked
// against configurable limits before any memory is reserved for them.
package resp
