package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/fabric"
	"realtime-service/internal/mocks"
	"realtime-service/internal/models"
)

func newTracker(t *testing.T) (*Tracker, *mocks.Directory, *mocks.RecordingFabric) {
	t.Helper()
	dir := mocks.NewDirectory()
	dir.AddUser(1, "alice")
	dir.AddUser(2, "bob")
	dir.AddUser(3, "carol")
	fab := mocks.NewRecordingFabric()
	tr := NewTracker(dir, nil, fab)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }
	return tr, dir, fab
}

func TestFirstConnectGoesOnlineAndSendsRoster(t *testing.T) {
	ctx := context.Background()
	tr, dir, fab := newTracker(t)

	require.NoError(t, tr.Connected(ctx, 1, "c1", true))

	p, err := tr.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, p.IsOnline)
	assert.Nil(t, p.LastSeen)
	require.Len(t, dir.Updates, 1)

	deltas := fab.Named(models.EventUserStatusUpdate)
	require.Len(t, deltas, 1)
	assert.Equal(t, fabric.Everyone, deltas[0].Group)
	assert.Equal(t, []string{"c1"}, deltas[0].Exclude)

	bulk := fab.Named(models.EventBulkUserStatusUpdate)
	require.Len(t, bulk, 1)
	assert.Equal(t, fabric.ConnGroup("c1"), bulk[0].Group)
	roster := bulk[0].Event.Data.([]models.UserStatusPayload)
	require.Len(t, roster, 2)
	for _, entry := range roster {
		assert.NotEqual(t, 1, entry.UserID)
	}
}

func TestSecondDeviceKeepsAwayState(t *testing.T) {
	ctx := context.Background()
	tr, dir, fab := newTracker(t)

	require.NoError(t, tr.Connected(ctx, 1, "c1", true))
	require.NoError(t, tr.SetAway(ctx, 1, "c1"))
	fab.Reset()
	updates := len(dir.Updates)

	require.NoError(t, tr.Connected(ctx, 1, "c2", false))

	p, err := tr.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, p.IsAway)
	assert.Equal(t, updates, len(dir.Updates))
	assert.Empty(t, fab.Named(models.EventUserStatusUpdate))
	assert.Len(t, fab.Named(models.EventBulkUserStatusUpdate), 1)
}

func TestAwayOnlineTransitions(t *testing.T) {
	ctx := context.Background()
	tr, _, fab := newTracker(t)
	require.NoError(t, tr.Connected(ctx, 1, "c1", true))
	fab.Reset()

	require.NoError(t, tr.SetOnline(ctx, 1, "c1"))
	assert.Empty(t, fab.All(), "already online is a no-op")

	require.NoError(t, tr.SetAway(ctx, 1, "c1"))
	p, _ := tr.Get(ctx, 1)
	assert.True(t, p.IsOnline)
	assert.True(t, p.IsAway)
	require.NotNil(t, p.LastSeen)

	require.NoError(t, tr.SetAway(ctx, 1, "c1"))
	assert.Len(t, fab.Named(models.EventUserStatusUpdate), 1)

	require.NoError(t, tr.SetOnline(ctx, 1, "c1"))
	p, _ = tr.Get(ctx, 1)
	assert.False(t, p.IsAway)
	assert.Nil(t, p.LastSeen)
	assert.Len(t, fab.Named(models.EventUserStatusUpdate), 2)
}

func TestSetAwayRejectedWhenOffline(t *testing.T) {
	tr, _, _ := newTracker(t)
	err := tr.SetAway(context.Background(), 2, "c2")
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestDisconnectLastForcesOfflineFromAway(t *testing.T) {
	ctx := context.Background()
	tr, _, fab := newTracker(t)
	require.NoError(t, tr.Connected(ctx, 1, "c1", true))
	require.NoError(t, tr.SetAway(ctx, 1, "c1"))

	tr.Disconnected(ctx, 1, false)
	p, _ := tr.Get(ctx, 1)
	assert.True(t, p.IsOnline)

	fab.Reset()
	tr.Disconnected(ctx, 1, true)
	p, _ = tr.Get(ctx, 1)
	assert.False(t, p.IsOnline)
	assert.False(t, p.IsAway)
	require.NotNil(t, p.LastSeen)

	deltas := fab.Named(models.EventUserStatusUpdate)
	require.Len(t, deltas, 1)
	payload := deltas[0].Event.Data.(models.UserStatusPayload)
	assert.Equal(t, "offline", payload.Status)
}

func TestGetUnknownUser(t *testing.T) {
	tr, _, _ := newTracker(t)
	_, err := tr.Get(context.Background(), 42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestResetFallsBackToPersistedPresence(t *testing.T) {
	ctx := context.Background()
	tr, dir, _ := newTracker(t)

	require.NoError(t, tr.Connected(ctx, 1, "c1", true))
	require.NoError(t, tr.Connected(ctx, 2, "c2", true))
	require.NoError(t, dir.UpdatePresence(ctx, models.Offline(1, tr.now())))

	require.NoError(t, tr.Reset(ctx))

	p, err := tr.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, p.IsOnline)

	p, err = tr.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, p.IsOnline)
}
