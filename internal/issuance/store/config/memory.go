// Package config provides the controller's one-time configuration stores.
// A field is a named value that transitions from unset to set exactly once;
// the stores expose no update or delete.
package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"proofgate/pkg/domain"
	"proofgate/pkg/platform/sentinel"
)

// Field names for the controller's configuration.
const (
	FieldVerificationTarget = "verification_target"
	FieldRegistryTarget     = "registry_target"
)

// Entry records a configured value and its provenance.
type Entry struct {
	Field string
	Value domain.Address
	SetBy domain.Address
	SetAt time.Time
}

// InMemory is a mutex-guarded configuration store for tests and development.
type InMemory struct {
	mu     sync.RWMutex
	fields map[string]Entry
}

// NewInMemory creates an empty in-memory configuration store.
func NewInMemory() *InMemory {
	return &InMemory{fields: make(map[string]Entry)}
}

// SetOnce records the field value. It fails with sentinel.ErrAlreadyUsed if
// the field was ever set before, regardless of the value.
func (s *InMemory) SetOnce(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fields[entry.Field]; exists {
		return fmt.Errorf("config field %q: %w", entry.Field, sentinel.ErrAlreadyUsed)
	}
	s.fields[entry.Field] = entry
	return nil
}

// Get returns the configured entry, or sentinel.ErrNotFound while unset.
func (s *InMemory) Get(ctx context.Context, field string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.fields[field]
	if !ok {
		return Entry{}, fmt.Errorf("config field %q: %w", field, sentinel.ErrNotFound)
	}
	return entry, nil
}
