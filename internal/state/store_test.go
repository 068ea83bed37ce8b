package state

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[string, int]()

	ok, err := s.CompareAndSwap(ctx, "a", 0, true, 1)
	require.NoError(t, err)
	assert.False(t, ok, "missing key must not match existed=true")

	ok, err = s.CompareAndSwap(ctx, "a", 0, false, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompareAndSwap(ctx, "a", 5, true, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.CompareAndSwap(ctx, "a", 1, true, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	v, found, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, v)
}

func TestMutateAddsAndDeletes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[int, []string]()

	add := func(conn string) func([]string, bool) ([]string, bool) {
		return func(cur []string, _ bool) ([]string, bool) {
			return append(append([]string(nil), cur...), conn), true
		}
	}

	_, err := Mutate[int, []string](ctx, s, 1, add("c1"))
	require.NoError(t, err)
	got, err := Mutate[int, []string](ctx, s, 1, add("c2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, got)

	_, err = Mutate[int, []string](ctx, s, 1, func(cur []string, _ bool) ([]string, bool) {
		return nil, false
	})
	require.NoError(t, err)

	_, found, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreRangeAllowsReentrantWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[string, int]()
	require.NoError(t, s.Set(ctx, "a", 1))
	require.NoError(t, s.Set(ctx, "b", 2))

	var keys []string
	err := s.Range(ctx, func(k string, v int) bool {
		keys = append(keys, k)
		return s.Delete(ctx, k) == nil
	})
	require.NoError(t, err)

	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b"}, keys)
	assert.Equal(t, 0, s.Len())
}
