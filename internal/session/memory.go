package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and as a fallback when no
// redis address is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) storeKey(sessionID, key string) string {
	return sessionID + ":" + key
}

func (s *MemoryStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[s.storeKey(sessionID, key)], nil
}

func (s *MemoryStore) Set(ctx context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.storeKey(sessionID, key)] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, s.storeKey(sessionID, key))
	return nil
}
