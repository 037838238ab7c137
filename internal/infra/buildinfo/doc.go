// Package buildinfo exposes version information of the running binary.
//
// Version, Commit and BuildTime are set with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/memkv/internal/infra/buildinfo.Version=v1.0.0"
//
// When they are left unset, the commit and time recorded by the Go
// toolchain (vcs.revision, vcs.time) are used where available.
package buildinfo
