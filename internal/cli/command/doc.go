// Package command defines the memkv-cli commands using urfave/cli/v2.
//
//   - root.go: the App, global flags and settings resolution
//   - kv.go: set, get, del and quit, one request each
//   - repl.go: the interactive mode, also the default without a subcommand
package command
