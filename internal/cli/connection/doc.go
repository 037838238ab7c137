// Package connection provides the RESP client used by memkv-cli.
//
// A Client holds one TCP connection, dialed lazily on the first request
// and re-dialed after the server closes it.
package connection
