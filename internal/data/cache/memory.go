package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[T any] struct {
	val     T
	expires time.Time
}

type memoryStore[T any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]memoryEntry[T]
	versions map[string]uint64
}

// NewMemoryStore keeps entries in process for ttl (DefaultTTL when <= 0).
func NewMemoryStore[T any](ttl time.Duration) Store[T] {
	return newMemoryStore[T](ttl, time.Now)
}

func newMemoryStore[T any](ttl time.Duration, now func() time.Time) *memoryStore[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryStore[T]{
		ttl:      ttl,
		now:      now,
		entries:  map[string]memoryEntry[T]{},
		versions: map[string]uint64{},
	}
}

// live returns the unexpired entry for key. Callers hold mu.
func (s *memoryStore[T]) live(key string) (memoryEntry[T], bool) {
	e, ok := s.entries[key]
	if !ok {
		return e, false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return e, false
	}
	return e, true
}

func (s *memoryStore[T]) Get(_ context.Context, key string) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		var zero T
		return zero, false, nil
	}
	return e.val, true, nil
}

func (s *memoryStore[T]) Version(_ context.Context, key string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[key], nil
}

func (s *memoryStore[T]) Fill(_ context.Context, key string, ver uint64, val T) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versions[key] != ver {
		return false, nil
	}
	s.entries[key] = memoryEntry[T]{val: val, expires: s.now().Add(s.ttl)}
	return true, nil
}

func (s *memoryStore[T]) Update(_ context.Context, key string, fn func(T) T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[key]++
	e, ok := s.live(key)
	if !ok {
		return nil
	}
	e.val = fn(e.val)
	s.entries[key] = e
	return nil
}

func (s *memoryStore[T]) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
		s.versions[k]++
	}
	return nil
}
