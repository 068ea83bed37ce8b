package state

import (
	"context"
	"reflect"
	"sync"
)

// MemoryStore is a mutex-guarded map. Values are compared with
// reflect.DeepEqual for CompareAndSwap, so pointer values compare by identity.
type MemoryStore[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore[K comparable, V any]() *MemoryStore[K, V] {
	return &MemoryStore[K, V]{items: make(map[K]V)}
}

func (s *MemoryStore[K, V]) Get(_ context.Context, key K) (V, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *MemoryStore[K, V]) Set(_ context.Context, key K, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *MemoryStore[K, V]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *MemoryStore[K, V]) CompareAndSwap(_ context.Context, key K, expected V, existed bool, next V) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[key]
	if ok != existed {
		return false, nil
	}
	if ok && !reflect.DeepEqual(current, expected) {
		return false, nil
	}
	s.items[key] = next
	return true, nil
}

// Range iterates over a snapshot so fn may call back into the store.
func (s *MemoryStore[K, V]) Range(_ context.Context, fn func(key K, value V) bool) error {
	s.mu.RLock()
	keys := make([]K, 0, len(s.items))
	values := make([]V, 0, len(s.items))
	for k, v := range s.items {
		keys = append(keys, k)
		values = append(values, v)
	}
	s.mu.RUnlock()

	for i := range keys {
		if !fn(keys[i], values[i]) {
			break
		}
	}
	return nil
}

// Len reports the number of entries.
func (s *MemoryStore[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
