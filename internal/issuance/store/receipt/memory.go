package receipt

import (
	"context"
	"sync"

	gwmodels "proofgate/internal/gateway/models"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
)

// InMemory keeps receipts in a map, for tests and cache-less deployments.
// Entries never expire.
type InMemory struct {
	mu       sync.RWMutex
	receipts map[domain.Fact]gwmodels.Receipt
}

// NewInMemory creates an empty in-memory receipt store.
func NewInMemory() *InMemory {
	return &InMemory{receipts: make(map[domain.Fact]gwmodels.Receipt)}
}

// Save records the receipt, replacing any previous one for the same fact.
func (s *InMemory) Save(_ context.Context, receipt gwmodels.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[receipt.Fact] = receipt
	return nil
}

// Receipt returns the recorded receipt for the fact.
func (s *InMemory) Receipt(_ context.Context, fact domain.Fact) (gwmodels.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receipt, ok := s.receipts[fact]
	if !ok {
		return gwmodels.Receipt{}, dErrors.New(dErrors.CodeNotFound, "no receipt recorded for fact")
	}
	return receipt, nil
}
