// Package store holds the activity log. Append allocates the next id and
// inserts under a single exclusive lock; interleaving those two steps
// across writers would break id uniqueness. Reads take the read lock and
// return copies.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"roster/internal/domain"
	"roster/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int
	entries map[int]domain.LogEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1, entries: make(map[int]domain.LogEntry)}
}

// Append assigns the entry id and timestamp and inserts. The returned entry
// carries the allocated id.
func (s *InMemoryStore) Append(_ context.Context, entry domain.LogEntry) domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.entries[entry.ID] = entry
	return entry
}

// List returns every entry, newest first (ties broken by id descending).
func (s *InMemoryStore) List(_ context.Context) []domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LogEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *InMemoryStore) Get(_ context.Context, id int) (domain.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.entries[id]; ok {
		return entry, nil
	}
	return domain.LogEntry{}, sentinel.ErrNotFound
}

// Clear wipes the log all-or-nothing and returns how many entries were
// removed. The id sequence keeps advancing; ids are never reused.
func (s *InMemoryStore) Clear(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := len(s.entries)
	s.entries = make(map[int]domain.LogEntry)
	return removed
}
