// Package cmap provides a concurrent-safe sharded map keyed by string.
//
// Keys are spread over shards with murmur3, and each shard has its own
// RWMutex. The server keeps its connection registry and per-client rate
// limiters in it, both of which are touched from every session goroutine.
//
//	m := cmap.New[*Conn]()
//	m.Set(id, conn)
//	conn, ok := m.Get(id)
package cmap
