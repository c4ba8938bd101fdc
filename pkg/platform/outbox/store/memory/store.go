// Package memory provides an in-memory outbox store for tests and dev wiring.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"proofgate/pkg/platform/outbox"
	"proofgate/pkg/platform/sentinel"
)

// Store keeps outbox entries in memory.
type Store struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*outbox.Entry
}

// New creates an in-memory outbox store.
func New() *Store {
	return &Store{entries: make(map[uuid.UUID]*outbox.Entry)}
}

// Append adds a new entry.
func (s *Store) Append(_ context.Context, entry *outbox.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

// FetchUnprocessed returns pending entries oldest-first.
func (s *Store) FetchUnprocessed(_ context.Context, limit int) ([]*outbox.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*outbox.Entry
	for _, e := range s.entries {
		if e.IsPending() {
			cp := *e
			pending = append(pending, &cp)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// MarkProcessed marks an entry as published.
func (s *Store) MarkProcessed(_ context.Context, id uuid.UUID, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || !entry.IsPending() {
		return sentinel.ErrNotFound
	}
	entry.ProcessedAt = &processedAt
	return nil
}

// CountPending returns the number of unprocessed entries.
func (s *Store) CountPending(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, e := range s.entries {
		if e.IsPending() {
			count++
		}
	}
	return count, nil
}

// DeleteProcessedBefore removes old processed entries.
func (s *Store) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, e := range s.entries {
		if e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

var _ outbox.Store = (*Store)(nil)
