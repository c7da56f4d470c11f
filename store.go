package versionrouter

import (
	"context"
	"sync"
)

// Store is the accumulation collection: an insertion-ordered sequence of
// order items. Implementations must be safe for concurrent use, and Clear
// must be mutually exclusive with Append.
type Store interface {
	Append(ctx context.Context, item OrderItem) error
	// Items returns a snapshot in insertion order.
	Items(ctx context.Context) ([]OrderItem, error)
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	items []OrderItem
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, item OrderItem) error {
	item = item.clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	return nil
}

func (s *MemoryStore) Items(_ context.Context) ([]OrderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]OrderItem, len(s.items))
	for i, it := range s.items {
		out[i] = it.clone()
	}
	return out, nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}
