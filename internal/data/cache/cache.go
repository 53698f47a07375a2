// Package cache holds disposable read snapshots keyed by string. The store of
// record always wins: writers invalidate, readers refill on a miss.
//
// Every key carries a version that moves on each Update or Delete. A reader
// takes the version before loading from the store and hands it back to Fill,
// which refuses to store the loaded value if a writer got in between.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/greenlight-backend/internal/observability"
)

// Store is a keyed snapshot cache. A miss is (zero, false, nil).
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	// Version returns the key's current write version.
	Version(ctx context.Context, key string) (uint64, error)
	// Fill stores val only if the key's version still equals ver. It reports
	// whether the value was stored.
	Fill(ctx context.Context, key string, ver uint64, val T) (bool, error)
	// Update replaces a cached value with fn(value) atomically with respect to
	// other Update, Fill and Delete calls on the key. A missing key stays
	// missing. The version moves either way.
	Update(ctx context.Context, key string, fn func(T) T) error
	// Delete drops the keys and moves their versions.
	Delete(ctx context.Context, keys ...string) error
}

const DefaultTTL = 10 * time.Minute

// ErrContended is returned when an optimistic redis transaction keeps losing
// to concurrent writers.
var ErrContended = errors.New("cache: key contended")

type instrumented[T any] struct {
	inner   Store[T]
	name    string
	metrics *observability.Metrics
}

// WithMetrics reports hit/miss/error counts for every Get and the outcome of
// every Fill under name.
func WithMetrics[T any](inner Store[T], name string, metrics *observability.Metrics) Store[T] {
	if metrics == nil {
		return inner
	}
	return &instrumented[T]{inner: inner, name: name, metrics: metrics}
}

func (s *instrumented[T]) Get(ctx context.Context, key string) (T, bool, error) {
	v, ok, err := s.inner.Get(ctx, key)
	switch {
	case err != nil:
		s.metrics.IncCacheLookup(s.name, "error")
	case ok:
		s.metrics.IncCacheLookup(s.name, "hit")
	default:
		s.metrics.IncCacheLookup(s.name, "miss")
	}
	return v, ok, err
}

func (s *instrumented[T]) Version(ctx context.Context, key string) (uint64, error) {
	return s.inner.Version(ctx, key)
}

func (s *instrumented[T]) Fill(ctx context.Context, key string, ver uint64, val T) (bool, error) {
	stored, err := s.inner.Fill(ctx, key, ver, val)
	if err == nil && !stored {
		s.metrics.IncCacheLookup(s.name, "stale_fill")
	}
	return stored, err
}

func (s *instrumented[T]) Update(ctx context.Context, key string, fn func(T) T) error {
	return s.inner.Update(ctx, key, fn)
}

func (s *instrumented[T]) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}
