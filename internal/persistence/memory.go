package persistence

import (
	"context"
	"encoding/json"
	"sync"
)

// MemorySessionStore keeps serialized blobs in process memory. It backs the
// adapter contract in tests and when Redis is unreachable at startup: values
// still round-trip through JSON so both implementations see the same shapes.
type MemorySessionStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{values: make(map[string][]byte)}
}

// Save serializes value and keeps it under key.
func (s *MemorySessionStore) Save(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = payload
}

// Load deserializes the value under key into out.
func (s *MemorySessionStore) Load(ctx context.Context, key string, out any) bool {
	s.mu.Lock()
	payload, ok := s.values[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(payload, out) == nil
}

// Clear removes every key.
func (s *MemorySessionStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string][]byte)
}
