package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/seasonmatch/internal/domain/model"
)

type memKey struct {
	role   model.Role
	season int
}

type memEntry struct {
	candidates []model.Candidate
	fetchedAt  time.Time
}

// MemoryStore keeps cached seasons in process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[memKey]memEntry
	closed  bool
	settings
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{entries: make(map[memKey]memEntry), settings: newSettings(opts)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, role model.Role, season int) ([]model.Candidate, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	e, ok := s.entries[memKey{role: role, season: season}]
	if !ok || s.expired(e.fetchedAt) {
		return nil, false, nil
	}
	return slices.Clone(e.candidates), true, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, role model.Role, season int, candidates []model.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.entries[memKey{role: role, season: season}] = memEntry{candidates: slices.Clone(candidates), fetchedAt: s.now()}
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}
