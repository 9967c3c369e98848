package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and embedding.
//
// FailNext, when set, makes operations fail after the given number of
// successful single-key writes. Tests use it to exercise the mixed state
// a multi-key operation leaves behind when it fails partway.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string]string
	failErr  error
	failOnOp int
	opCount  int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// FailAfter makes every mutating operation after the next n successful
// ones return err. Pass n=0 to fail immediately.
func (s *MemoryStore) FailAfter(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOnOp = n
	s.failErr = err
	s.opCount = 0
}

func (s *MemoryStore) checkFailLocked() error {
	if s.failErr == nil {
		return nil
	}
	if s.opCount >= s.failOnOp {
		return s.failErr
	}
	s.opCount++
	return nil
}

// Get returns the value for key, or found=false when absent.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

// Set writes the value for key.
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFailLocked(); err != nil {
		return err
	}
	s.data[key] = value
	return nil
}

// Remove deletes the key.
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFailLocked(); err != nil {
		return err
	}
	delete(s.data, key)
	return nil
}

// MultiGet returns pairs for the keys that exist, in request order.
func (s *MemoryStore) MultiGet(ctx context.Context, keys []string) ([]KV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pairs := make([]KV, 0, len(keys))
	for _, key := range keys {
		if value, ok := s.data[key]; ok {
			pairs = append(pairs, KV{Key: key, Value: value})
		}
	}
	return pairs, nil
}

// MultiSet writes all pairs one key at a time.
func (s *MemoryStore) MultiSet(ctx context.Context, pairs []KV) error {
	for _, kv := range pairs {
		if err := s.Set(ctx, kv.Key, kv.Value); err != nil {
			return err
		}
	}
	return nil
}

// MultiRemove deletes all keys one key at a time.
func (s *MemoryStore) MultiRemove(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := s.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns every key currently present, sorted.
func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
