package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemory is a sliding-window counter. Sliding windows avoid the burst at
// window boundaries that fixed windows permit. Not distributed; use the
// redis store when running more than one instance.
type InMemory struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewInMemory creates an empty in-memory limiter store.
func NewInMemory() *InMemory {
	return &InMemory{windows: make(map[string][]time.Time)}
}

// Allow records the request if the key is under its limit.
func (s *InMemory) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-window)

	kept := s.windows[key][:0]
	for _, ts := range s.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit {
		s.windows[key] = kept
		return &Result{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   kept[0].Add(window),
		}, nil
	}

	kept = append(kept, now)
	s.windows[key] = kept
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(kept),
		ResetAt:   kept[0].Add(window),
	}, nil
}

// Reset clears the counter for a key.
func (s *InMemory) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
}
