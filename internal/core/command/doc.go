// Package command translates decoded requests into commands and executes
// them against the shared store.
//
//   - command.go: the closed Command set and Parse
//   - executor.go: Executor mapping each command to a reply
//
// Supported commands: SET key value, GET key, DEL key, QUIT.
// Command names are matched case-insensitively (ASCII). Keys are decoded as
// UTF-8 with invalid sequences replaced; values are kept as raw bytes.
package command
