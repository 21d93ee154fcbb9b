package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps encoded values in a map. Values are round-tripped through
// JSON so it behaves like the durable backends.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = data
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key string, dest any) error {
	s.mu.RLock()
	data, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Keys returns the stored keys; used by tests and diagnostics.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Raw returns the encoded value stored under key.
func (s *MemoryStore) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.values[key]
	return data, ok
}
