package store

import (
	"context"
	"strings"
	"time"
)

// ScopedStore prefixes every key of an inner store, so several tenants or
// subsystems can share one backend.
//
//	docs := store.Scoped(backend, "doc:")
//	cache := store.Scoped(backend, "render:")
type ScopedStore struct {
	inner  Store
	prefix string
}

// Scoped wraps inner with prefix. An empty prefix returns inner unchanged.
func Scoped(inner Store, prefix string) Store {
	if prefix == "" {
		return inner
	}
	return &ScopedStore{inner: inner, prefix: prefix}
}

func (s *ScopedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *ScopedStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

func (s *ScopedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Keys returns matching keys with the scope prefix removed.
func (s *ScopedStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.inner.Keys(ctx, s.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, s.prefix)
	}
	return keys, nil
}

// Close closes the inner store.
func (s *ScopedStore) Close() error {
	return s.inner.Close()
}
