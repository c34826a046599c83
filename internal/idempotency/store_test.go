package idempotency

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	key := "key-" + uuid.NewString()

	_, err := s.Lookup(ctx, key, "h1")
	require.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Reserve(ctx, key, "h1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Reserve(ctx, key, "h1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Lookup(ctx, key, "h1")
	assert.ErrorIs(t, err, ErrInProgress)

	_, err = s.Finalize(ctx, key, "h1", 200, []byte(`{"ok":true}`), "application/json")
	require.NoError(t, err)

	rec, err := s.Lookup(ctx, key, "h1")
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Status)
	assert.JSONEq(t, `{"ok":true}`, string(rec.Body))

	_, err = s.Lookup(ctx, key, "other")
	assert.ErrorIs(t, err, ErrHashMismatch)

	require.NoError(t, s.Release(ctx, key))
	_, err = s.Lookup(ctx, key, "h1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewStore(nil, time.Hour))
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewStore(nil, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := s.Finalize(ctx, "k", "h", 201, []byte("{}"), "application/json")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Lookup(ctx, "k", "h")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, s.Sweep())

	ok, err := s.Reserve(ctx, "k", "h")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWaitForCompletion(t *testing.T) {
	s := NewStore(nil, time.Hour)
	ctx := context.Background()
	ok, err := s.Reserve(ctx, "w", "h")
	require.NoError(t, err)
	require.True(t, ok)

	go func() {
		time.Sleep(60 * time.Millisecond)
		_, _ = s.Finalize(context.Background(), "w", "h", 200, []byte("done"), "text/plain")
	}()

	rec, err := s.WaitForCompletion(ctx, "w", "h")
	require.NoError(t, err)
	assert.Equal(t, "done", string(rec.Body))

	ok, err = s.Reserve(ctx, "never", "h")
	require.NoError(t, err)
	require.True(t, ok)
	short, cancel := context.WithTimeout(ctx, 80*time.Millisecond)
	defer cancel()
	_, err = s.WaitForCompletion(short, "never", "h")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	exerciseStore(t, NewStore(client, time.Minute))
}
