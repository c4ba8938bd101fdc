package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proofgate/internal/platform/kafka/producer"
	"proofgate/pkg/platform/outbox"
	"proofgate/pkg/platform/outbox/store/memory"
)

type fakeProducer struct {
	mu       sync.Mutex
	messages []*producer.Message
	err      error
}

func (f *fakeProducer) Produce(_ context.Context, msg *producer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeProducer) produced() []*producer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*producer.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

func TestWorker_PublishesPendingEntries(t *testing.T) {
	store := memory.New()
	prod := &fakeProducer{}
	ctx := context.Background()

	entry := outbox.NewEntry("credential", "1", "credential_issued", []byte(`{"credential_id":1}`))
	require.NoError(t, store.Append(ctx, entry))

	w := New(store, prod, WithTopic("test.events"), WithPollInterval(10*time.Millisecond))
	w.Start()

	require.Eventually(t, func() bool {
		return len(prod.produced()) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, w.Stop(ctx))

	msgs := prod.produced()
	require.Len(t, msgs, 1)
	assert.Equal(t, "test.events", msgs[0].Topic)
	assert.Equal(t, entry.ID.String(), string(msgs[0].Key))
	assert.JSONEq(t, `{"credential_id":1}`, string(msgs[0].Value))
	assert.Equal(t, "credential_issued", msgs[0].Headers["event_type"])
	assert.Equal(t, "credential", msgs[0].Headers["aggregate_type"])

	pending, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestWorker_RetriesOnPublishFailure(t *testing.T) {
	store := memory.New()
	prod := &fakeProducer{err: errors.New("broker unavailable")}
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, outbox.NewEntry("credential", "1", "proof_verified", []byte(`{}`))))

	w := New(store, prod, WithPollInterval(10*time.Millisecond))
	w.Start()

	// The entry stays pending while the producer fails.
	time.Sleep(50 * time.Millisecond)
	pending, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	// Once the producer recovers, the entry goes out.
	prod.mu.Lock()
	prod.err = nil
	prod.mu.Unlock()

	require.Eventually(t, func() bool {
		return len(prod.produced()) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, w.Stop(ctx))
}

func TestWorker_DrainsOnStop(t *testing.T) {
	store := memory.New()
	prod := &fakeProducer{}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, outbox.NewEntry("credential", "1", "credential_issued", nil)))
	}

	// Long poll interval: only the shutdown drain can publish these.
	w := New(store, prod, WithPollInterval(time.Hour))
	w.Start()
	require.NoError(t, w.Stop(ctx))

	assert.Len(t, prod.produced(), 3)
	pending, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}
