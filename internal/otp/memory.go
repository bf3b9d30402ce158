package otp

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is a process-local Store for tests and single-instance
// development runs. Deployments with more than one server process need the
// Redis-backed store so every instance sees the same codes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore builds an empty in-memory code store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     TTL,
		now:     time.Now,
	}
}

// Put stores code under key, replacing any live entry and restarting the TTL.
func (s *MemoryStore) Put(_ context.Context, key, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[normalize(key)] = entry{code: code, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// ConsumeIfMatch implements the Store contract.
func (s *MemoryStore) ConsumeIfMatch(_ context.Context, key, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := normalize(key)
	e, ok := s.entries[k]
	if !ok {
		return false, nil
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, k)
		return false, nil
	}
	if e.code != code {
		// Wrong guess: the pending code stays valid until expiry.
		return false, nil
	}
	delete(s.entries, k)
	return true, nil
}

func normalize(key string) string {
	return strings.ToLower(key)
}
