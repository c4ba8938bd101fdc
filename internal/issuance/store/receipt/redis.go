// Package receipt caches the latest verification receipt per fact in Redis.
// The cache is observability-only: saving is best-effort after a successful
// claim and a miss is never an issuance failure.
package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	gwmodels "proofgate/internal/gateway/models"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
)

const keyPrefix = "proofgate:receipt:"

// RedisStore caches receipts keyed by fact digest with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a receipt cache over the given client.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Save stores the receipt under its fact. Receipts for the same statement
// are identical by construction, so overwrites are harmless.
func (s *RedisStore) Save(ctx context.Context, receipt gwmodels.Receipt) error {
	raw, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+receipt.Fact.String(), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache receipt: %w", err)
	}
	return nil
}

// Receipt returns the cached receipt for a fact. Expired or never-cached
// facts yield NotFound.
func (s *RedisStore) Receipt(ctx context.Context, fact domain.Fact) (gwmodels.Receipt, error) {
	raw, err := s.client.Get(ctx, keyPrefix+fact.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return gwmodels.Receipt{}, dErrors.New(dErrors.CodeNotFound, "no receipt recorded for this fact")
		}
		return gwmodels.Receipt{}, dErrors.Wrap(err, dErrors.CodeInternal, "receipt lookup failed")
	}

	var receipt gwmodels.Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return gwmodels.Receipt{}, dErrors.Wrap(err, dErrors.CodeInternal, "decode cached receipt")
	}
	return receipt, nil
}
