// Package main provides the entry point for memkv-cli.
//
// memkv-cli talks to memkv-server over RESP, either one command per
// invocation or interactively:
//
//	memkv-cli set greeting "hello world"
//	memkv-cli -o json get greeting
//	memkv-cli -s 10.0.0.5:6379
//
// The exit status is 1 when the server answers with an error reply.
package main
