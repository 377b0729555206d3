package respcache

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is how many writes pass between expired-entry sweeps.
const sweepEvery = 100

type memoryEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore keeps responses in process memory with an optional TTL.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	writes  int
	now     func() time.Time
}

// NewMemoryStore creates an in-memory store. ttl <= 0 keeps entries for the process lifetime.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a live entry or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	now := s.now()
	s.mu.RLock()
	entry, ok := s.entries[key]
	if ok && !entry.expired(now) {
		s.mu.RUnlock()
		return entry.data, nil
	}
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	// Expired, remove lazily. Re-check under the write lock since a
	// concurrent Set may have refreshed it.
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, exists := s.entries[key]; exists {
		if e.expired(s.now()) {
			delete(s.entries, key)
			return nil, ErrNotFound
		}
		return e.data, nil
	}
	return nil, ErrNotFound
}

// Set stores a copy of value.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.writes++
	if s.writes%sweepEvery == 0 {
		for k, e := range s.entries {
			if e.expired(now) {
				delete(s.entries, k)
			}
		}
	}

	entry := memoryEntry{data: append([]byte(nil), value...)}
	if s.ttl > 0 {
		entry.expiresAt = now.Add(s.ttl)
	}
	s.entries[key] = entry
	return nil
}

// Clear drops every entry.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
