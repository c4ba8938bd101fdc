package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proofgate/pkg/domain"
	"proofgate/pkg/platform/middleware/ratelimit"
	"proofgate/pkg/requestcontext"
)

func TestInMemoryAllow(t *testing.T) {
	store := ratelimit.NewInMemory()
	ctx := context.Background()

	for i := range 3 {
		result, err := store.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 3-i-1, result.Remaining)
	}

	result, err := store.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestInMemoryKeysAreIndependent(t *testing.T) {
	store := ratelimit.NewInMemory()
	ctx := context.Background()

	_, err := store.Allow(ctx, "a", 1, time.Minute)
	require.NoError(t, err)

	result, err := store.Allow(ctx, "b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestInMemoryWindowSlides(t *testing.T) {
	store := ratelimit.NewInMemory()
	ctx := context.Background()

	_, err := store.Allow(ctx, "k", 1, 10*time.Millisecond)
	require.NoError(t, err)

	result, err := store.Allow(ctx, "k", 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.False(t, result.Allowed)

	time.Sleep(15 * time.Millisecond)

	result, err = store.Allow(ctx, "k", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	mw := ratelimit.Middleware(ratelimit.NewInMemory(), 2, time.Minute, ratelimit.ByCaller, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	caller := requestcontext.WithCaller(context.Background(), domain.Address("0xa1"))
	for range 2 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(caller))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(caller))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestMiddlewareSeparatesCallers(t *testing.T) {
	mw := ratelimit.Middleware(ratelimit.NewInMemory(), 1, time.Minute, ratelimit.ByCaller, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := requestcontext.WithCaller(context.Background(), domain.Address("0xa1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(first))
	require.Equal(t, http.StatusOK, rec.Code)

	second := requestcontext.WithCaller(context.Background(), domain.Address("0xb2"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(second))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*ratelimit.Result, error) {
	return nil, context.DeadlineExceeded
}

func TestMiddlewareFailsOpen(t *testing.T) {
	mw := ratelimit.Middleware(failingStore{}, 1, time.Minute, ratelimit.ByCaller, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
