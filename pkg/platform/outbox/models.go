// Package outbox implements the transactional outbox pattern: domain events are
// appended in the same transaction as the state change they describe, and a
// background worker publishes them to Kafka afterwards. A claim therefore never
// reports success with its events lost, and never emits events for an aborted
// mint.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry represents a pending event in the outbox table.
type Entry struct {
	ID            uuid.UUID
	AggregateType string     // e.g., "credential", "config"
	AggregateID   string     // e.g., credential id, config field name
	EventType     string     // e.g., "credential_issued", "proof_verified"
	Payload       []byte     // JSON-encoded event body
	CreatedAt     time.Time  // When the entry was created
	ProcessedAt   *time.Time // NULL = pending, non-NULL = published to Kafka
}

// IsPending returns true if this entry has not been processed yet.
func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// NewEntry creates a new outbox entry with a generated UUID.
func NewEntry(aggregateType, aggregateID, eventType string, payload []byte) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now(),
	}
}
