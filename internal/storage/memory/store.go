package memory

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrPoisoned is returned by every access after a panic escaped a critical
// section. The mapping may be half-updated, so it is never touched again.
var ErrPoisoned = errors.New("memory: store lock poisoned")

// Store maps keys to binary values.
//
// One mutex covers the whole mapping. Every operation holds it for exactly
// one map access, so each operation is atomic with respect to the others
// but no cross-operation atomicity is offered.
type Store struct {
	mu       sync.Mutex
	items    map[string][]byte
	poisoned atomic.Bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		items: make(map[string][]byte),
	}
}

// Set inserts or overwrites key. The store takes ownership of value; the
// caller must not modify it afterwards.
func (s *Store) Set(key string, value []byte) error {
	return s.withLock(func(items map[string][]byte) {
		items[key] = value
	})
}

// Get returns the value stored under key. The returned slice is shared with
// the store and must be treated as read-only.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := s.withLock(func(items map[string][]byte) {
		value, found = items[key]
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) (bool, error) {
	var found bool
	err := s.withLock(func(items map[string][]byte) {
		if _, found = items[key]; found {
			delete(items, key)
		}
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Len returns the number of keys.
func (s *Store) Len() (int, error) {
	var n int
	err := s.withLock(func(items map[string][]byte) {
		n = len(items)
	})
	return n, err
}

// Poisoned reports whether the store has become unusable.
func (s *Store) Poisoned() bool {
	return s.poisoned.Load()
}

// withLock runs fn while holding the store lock. If fn panics, the store is
// poisoned, the lock released and the panic propagated to the caller.
func (s *Store) withLock(fn func(items map[string][]byte)) error {
	s.mu.Lock()
	if s.poisoned.Load() {
		s.mu.Unlock()
		return ErrPoisoned
	}
	defer s.release()
	fn(s.items)
	return nil
}

func (s *Store) release() {
	if r := recover(); r != nil {
		s.poisoned.Store(true)
		s.mu.Unlock()
		panic(fmt.Sprintf("memory: panic while holding store lock: %v", r))
	}
	s.mu.Unlock()
}
