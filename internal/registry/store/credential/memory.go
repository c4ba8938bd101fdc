// Package credential provides the registry's credential stores.
package credential

import (
	"context"
	"fmt"
	"sync"

	"proofgate/internal/registry/models"
	"proofgate/pkg/domain"
	"proofgate/pkg/platform/sentinel"
)

type pairKey struct {
	owner domain.Address
	topic domain.Topic
}

// InMemory is a mutex-guarded credential store for tests and development.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[domain.CredentialID]*models.Credential
	byPair map[pairKey]domain.CredentialID
	mints  []domain.CredentialID // global mint order
	lastID uint64
}

// NewInMemory creates an empty in-memory credential store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[domain.CredentialID]*models.Credential),
		byPair: make(map[pairKey]domain.CredentialID),
	}
}

// Insert assigns the next id and records the credential.
func (s *InMemory) Insert(ctx context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{owner: cred.Owner, topic: cred.Topic}
	if _, exists := s.byPair[key]; exists {
		return fmt.Errorf("credential for (%s, %s): %w", cred.Owner, cred.Topic, sentinel.ErrAlreadyUsed)
	}

	s.lastID++
	cred.ID = domain.CredentialID(s.lastID)

	stored := *cred
	s.byID[cred.ID] = &stored
	s.byPair[key] = cred.ID
	s.mints = append(s.mints, cred.ID)
	return nil
}

// Get returns the credential with the given id.
func (s *InMemory) Get(ctx context.Context, id domain.CredentialID) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("credential %d: %w", id, sentinel.ErrNotFound)
	}
	out := *cred
	return &out, nil
}

// SetOwner rewrites the owner of an existing credential.
func (s *InMemory) SetOwner(ctx context.Context, id domain.CredentialID, owner domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("credential %d: %w", id, sentinel.ErrNotFound)
	}

	delete(s.byPair, pairKey{owner: cred.Owner, topic: cred.Topic})
	cred.Owner = owner
	s.byPair[pairKey{owner: owner, topic: cred.Topic}] = id
	return nil
}

// ByOwner lists the owner's credentials in mint order.
func (s *InMemory) ByOwner(ctx context.Context, owner domain.Address) ([]*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Credential, 0)
	for _, id := range s.mints {
		if cred := s.byID[id]; cred.Owner == owner {
			c := *cred
			out = append(out, &c)
		}
	}
	return out, nil
}
