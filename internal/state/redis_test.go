package state

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server when REDIS_TEST_URL is set.
func newTestRedisStore[V any](t *testing.T) *RedisStore[int, V] {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url, 0)
	require.NoError(t, err)

	prefix := "realtime-test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return NewRedisStore[int, V](client, prefix, time.Minute, strconv.Atoi)
}

func TestRedisStoreCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := newTestRedisStore[int](t)

	ok, err := s.CompareAndSwap(ctx, 1, 0, true, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.CompareAndSwap(ctx, 1, 0, false, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompareAndSwap(ctx, 1, 0, false, 3)
	require.NoError(t, err)
	assert.False(t, ok, "existing key must not match existed=false")

	ok, err = s.CompareAndSwap(ctx, 1, 1, true, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	v, found, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, v)
}

func TestRedisStoreRangeAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestRedisStore[[]string](t)

	_, err := Mutate[int, []string](ctx, s, 7, func(cur []string, _ bool) ([]string, bool) {
		return append(cur, "c1"), true
	})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, 8, []string{"c2"}))

	seen := map[int][]string{}
	require.NoError(t, s.Range(ctx, func(k int, v []string) bool {
		seen[k] = v
		return true
	}))
	assert.Equal(t, map[int][]string{7: {"c1"}, 8: {"c2"}}, seen)

	require.NoError(t, s.Delete(ctx, 7))
	_, found, err := s.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStoreKeyFormat(t *testing.T) {
	s := NewRedisStore[int, string](nil, "realtime:presence:", 0, strconv.Atoi)
	assert.Equal(t, "realtime:presence:42", s.key(42))
}
