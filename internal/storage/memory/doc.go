// Package memory provides the in-memory key-value store for memkv.
//
// The store is created empty at process start and shared by pointer with
// every connection session. It is volatile: nothing is persisted.
//
// Thread Safety:
//
// A single sync.Mutex guards the entire mapping. Reads and writes contend
// equally for it and it is held for one map operation at a time.
//
// Failure model:
//
// A panic while the lock is held poisons the store. Later calls return
// ErrPoisoned instead of operating on possibly inconsistent state; the store
// is not rebuilt until the process restarts.
package memory
