package nonceRepo

import (
	"context"
	"sync"
	"time"

	"slotchain/models"
)

// MemoryNonceStore keeps challenges in process memory. Entries do not survive
// a restart and are not shared between replicas.
type MemoryNonceStore struct {
	mu      sync.Mutex
	entries map[string]models.NonceEntry
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{entries: make(map[string]models.NonceEntry)}
}

func (s *MemoryNonceStore) Put(_ context.Context, key string, entry models.NonceEntry) error {
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryNonceStore) Get(_ context.Context, key string) (*models.NonceEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (s *MemoryNonceStore) Consume(_ context.Context, key, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok || entry.Nonce != nonce {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

func (s *MemoryNonceStore) SweepExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of outstanding entries.
func (s *MemoryNonceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
