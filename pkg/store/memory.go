package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/meshgraph/pkg/observability"
)

// MemoryStore keeps entries in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	closed  bool
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get returns a copy of the stored value.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return nil, false, ErrClosed
	}
	if !ok || expired(e.expiresAt) {
		if ok {
			s.mu.Lock()
			delete(s.entries, key)
			s.mu.Unlock()
		}
		observability.Store().OnStoreMiss(ctx, "memory")
		return nil, false, nil
	}
	observability.Store().OnStoreHit(ctx, "memory")
	return slices.Clone(e.data), true, nil
}

// Set stores a copy of data.
func (s *MemoryStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.entries[key] = memoryEntry{data: slices.Clone(data), expiresAt: expiry(ttl)}
	observability.Store().OnStoreSet(ctx, "memory", len(data))
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.entries, key)
	observability.Store().OnStoreDelete(ctx, "memory")
	return nil
}

// Keys lists live keys with the given prefix.
func (s *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var keys []string
	for k, e := range s.entries {
		if strings.HasPrefix(k, prefix) && !expired(e.expiresAt) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Close drops all entries; later calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}

var _ Store = (*MemoryStore)(nil)
