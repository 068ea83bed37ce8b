package call

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/fabric"
	"realtime-service/internal/models"
)

func connectedChannelCall(t *testing.T, callID string) *harness {
	t.Helper()
	ctx := context.Background()
	h := newHarness(t)
	h.initiateChannel(t, callID)
	require.NoError(t, h.c.Accept(ctx, "conn-b", bob, callID))
	require.NoError(t, h.c.Accept(ctx, "conn-d", dave, callID))
	h.fabric.Reset()
	return h
}

func TestScreenShareLastWriterWins(t *testing.T) {
	ctx := context.Background()
	h := connectedChannelCall(t, "ss-1")

	require.NoError(t, h.c.StartScreenShare(ctx, "conn-a", alice, "ss-1"))
	require.NoError(t, h.c.StartScreenShare(ctx, "conn-b", bob, "ss-1"))

	view, err := h.c.Snapshot(ctx, "ss-1")
	require.NoError(t, err)
	assert.Equal(t, bob, view.ScreenSharerID)

	forced := h.fabric.Named(models.EventForceStopScreenShare)
	require.Len(t, forced, 1)
	assert.Equal(t, fabric.ConnGroup("conn-a"), forced[0].Group)

	s := h.session(t, "ss-1")
	a, _ := s.participant(alice)
	b, _ := s.participant(bob)
	assert.False(t, a.ScreenSharing)
	assert.True(t, b.ScreenSharing)
}

func TestStopScreenShareNotHeldIsNoop(t *testing.T) {
	ctx := context.Background()
	h := connectedChannelCall(t, "ss-2")
	require.NoError(t, h.c.StartScreenShare(ctx, "conn-a", alice, "ss-2"))
	h.fabric.Reset()

	require.NoError(t, h.c.StopScreenShare(ctx, "conn-b", bob, "ss-2"))

	assert.Empty(t, h.fabric.All())
	view, _ := h.c.Snapshot(ctx, "ss-2")
	assert.Equal(t, alice, view.ScreenSharerID)
}

func TestScreenShareRequiresParticipant(t *testing.T) {
	h := connectedChannelCall(t, "ss-3")
	err := h.c.StartScreenShare(context.Background(), "conn-c", carol, "ss-3")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestStoppingShareClearsRemoteControl(t *testing.T) {
	ctx := context.Background()
	h := connectedChannelCall(t, "rc-1")
	require.NoError(t, h.c.StartScreenShare(ctx, "conn-a", alice, "rc-1"))
	require.NoError(t, h.c.RequestRemoteControl(ctx, "conn-b", bob, TargetRequest{CallID: "rc-1", TargetUserID: alice}))
	require.NoError(t, h.c.AcceptRemoteControl(ctx, "conn-a", alice, "rc-1"))

	view, _ := h.c.Snapshot(ctx, "rc-1")
	require.NotNil(t, view.RemoteControl)
	assert.True(t, view.RemoteControl.Granted)

	require.NoError(t, h.c.StopScreenShare(ctx, "conn-a", alice, "rc-1"))

	view, _ = h.c.Snapshot(ctx, "rc-1")
	assert.Nil(t, view.RemoteControl)
	assert.Zero(t, view.ScreenSharerID)
	stopped := h.fabric.Named(models.EventRemoteControlStopped)
	require.Len(t, stopped, 2)
	assert.Equal(t, "screen-share-stopped", stopped[0].Event.Data.(RemoteControlPayload).Reason)
}

func TestPreemptedShareClearsRemoteControl(t *testing.T) {
	ctx := context.Background()
	h := connectedChannelCall(t, "rc-2")
	require.NoError(t, h.c.StartScreenShare(ctx, "conn-a", alice, "rc-2"))
	require.NoError(t, h.c.RequestRemoteControl(ctx, "conn-b", bob, TargetRequest{CallID: "rc-2", TargetUserID: alice}))

	require.NoError(t, h.c.StartScreenShare(ctx, "conn-d", dave, "rc-2"))

	view, _ := h.c.Snapshot(ctx, "rc-2")
	assert.Nil(t, view.RemoteControl)
	assert.Equal(t, dave, view.ScreenSharerID)
}
