package store

import (
	"context"
	"time"
)

// NullStore never stores anything. Pipelines use it when artifact caching
// is disabled.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() Store {
	return NullStore{}
}

// Get always misses.
func (NullStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards data.
func (NullStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete does nothing.
func (NullStore) Delete(context.Context, string) error { return nil }

// Keys is always empty.
func (NullStore) Keys(context.Context, string) ([]string, error) { return nil, nil }

// Close does nothing.
func (NullStore) Close() error { return nil }

var _ Store = NullStore{}
