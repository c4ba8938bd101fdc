//go:build integration

package config_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"proofgate/internal/issuance/store/config"
	"proofgate/pkg/domain"
	"proofgate/pkg/platform/sentinel"
	"proofgate/pkg/testutil/containers"
)

type PostgresConfigSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *config.PostgresStore
}

func TestPostgresConfigSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresConfigSuite))
}

func (s *PostgresConfigSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = config.NewPostgres(s.postgres.DB)
}

func (s *PostgresConfigSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "controller_config"))
}

func (s *PostgresConfigSuite) TestSetOnceKeepsFirstValue() {
	ctx := context.Background()

	first := config.Entry{Field: config.FieldVerificationTarget, Value: "0xfe1", SetBy: "0xabc", SetAt: time.Now().UTC()}
	s.Require().NoError(s.store.SetOnce(ctx, first))

	second := config.Entry{Field: config.FieldVerificationTarget, Value: "0xdead", SetBy: "0xabc", SetAt: time.Now().UTC()}
	s.Require().ErrorIs(s.store.SetOnce(ctx, second), sentinel.ErrAlreadyUsed)

	entry, err := s.store.Get(ctx, config.FieldVerificationTarget)
	s.Require().NoError(err)
	s.Equal(first.Value, entry.Value)
	s.Equal(first.SetBy, entry.SetBy)
}

func (s *PostgresConfigSuite) TestFieldsAreIndependent() {
	ctx := context.Background()

	s.Require().NoError(s.store.SetOnce(ctx, config.Entry{
		Field: config.FieldVerificationTarget, Value: "0xfe1", SetBy: "0xabc", SetAt: time.Now().UTC(),
	}))

	_, err := s.store.Get(ctx, config.FieldRegistryTarget)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.SetOnce(ctx, config.Entry{
		Field: config.FieldRegistryTarget, Value: "0xfe2", SetBy: "0xabc", SetAt: time.Now().UTC(),
	}))
}

func (s *PostgresConfigSuite) TestUnsetFieldNotFound() {
	_, err := s.store.Get(context.Background(), config.FieldRegistryTarget)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentSetOnce races writers on the same field and checks that
// exactly one of them wins.
func (s *PostgresConfigSuite) TestConcurrentSetOnce() {
	ctx := context.Background()

	const writers = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int64
	)
	values := []string{"0xfe1", "0xfe2", "0xfe3", "0xfe4"}
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := config.Entry{
				Field: config.FieldRegistryTarget,
				Value: domain.Address(values[i%len(values)]),
				SetBy: "0xabc",
				SetAt: time.Now().UTC(),
			}
			if err := s.store.SetOnce(ctx, entry); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(1), successes.Load())

	entry, err := s.store.Get(ctx, config.FieldRegistryTarget)
	s.Require().NoError(err)
	s.Contains(values, entry.Value.String())
}
