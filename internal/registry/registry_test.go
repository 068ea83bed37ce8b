package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/mocks"
	"realtime-service/internal/models"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := mocks.NewDirectory()
	dir.AddUser(1, "alice")
	dir.AddUser(2, "bob")
	return New(dir, nil, nil)
}

func TestRegisterFirstAndSecondDevice(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t)

	first, err := r.Register(ctx, "c1", 1)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = r.Register(ctx, "c2", 1)
	require.NoError(t, err)
	assert.False(t, first)

	assert.ElementsMatch(t, []string{"c1", "c2"}, r.ConnectionsOf(ctx, 1))
	uid, ok := r.UserOf(ctx, "c2")
	assert.True(t, ok)
	assert.Equal(t, 1, uid)
}

func TestRegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t)

	_, err := r.Register(ctx, "c1", 1)
	require.NoError(t, err)
	first, err := r.Register(ctx, "c1", 1)
	require.NoError(t, err)
	assert.False(t, first)
	assert.Len(t, r.ConnectionsOf(ctx, 1), 1)
}

func TestRegisterUnknownUserRejected(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t)

	_, err := r.Register(ctx, "c9", 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	_, ok := r.UserOf(ctx, "c9")
	assert.False(t, ok)
	assert.False(t, r.IsOnline(ctx, 99))
}

func TestRegisterLookupError(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Exists", mock.Anything, 1).Return(false, assert.AnError).Once()
	r := New(users, nil, nil)

	_, err := r.Register(context.Background(), "c1", 1)
	require.ErrorIs(t, err, assert.AnError)
	users.AssertExpectations(t)
}

func TestUnregisterReportsLastConnection(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(t)
	_, _ = r.Register(ctx, "c1", 1)
	_, _ = r.Register(ctx, "c2", 1)

	uid, last, ok, err := r.Unregister(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, uid)
	assert.False(t, last)

	_, last, ok, err = r.Unregister(ctx, "c2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, last)
	assert.False(t, r.IsOnline(ctx, 1))
}

func TestUnregisterUnknownConnection(t *testing.T) {
	r := newRegistry(t)
	_, last, ok, err := r.Unregister(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, last)
}
