package signaling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/models"
)

func startDispatcher(t *testing.T) (*Dispatcher, context.CancelFunc) {
	t.Helper()
	d := NewDispatcher(16)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Run(ctx) }()
	t.Cleanup(cancel)
	return d, cancel
}

func TestDispatcherPreservesOrder(t *testing.T) {
	d, _ := startDispatcher(t)
	ctx := context.Background()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		require.NoError(t, d.Submit(ctx, "test", "c1", func(context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
	}
	require.NoError(t, d.Do(ctx, "flush", func(context.Context) error { return nil }))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestDispatcherDoReturnsHandlerError(t *testing.T) {
	d, _ := startDispatcher(t)
	err := d.Do(context.Background(), "fail", func(context.Context) error { return models.ErrNotFound })
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDispatcherRecoversPanics(t *testing.T) {
	d, _ := startDispatcher(t)
	ctx := context.Background()

	err := d.Do(ctx, "boom", func(context.Context) error { panic("bad frame") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad frame")

	assert.NoError(t, d.Do(ctx, "after", func(context.Context) error { return nil }))
}

func TestDispatcherScheduleRunsOnLoop(t *testing.T) {
	d, _ := startDispatcher(t)
	ran := make(chan struct{})
	d.Schedule(func(context.Context) { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("scheduled callback did not run")
	}
}

func TestDispatcherStopped(t *testing.T) {
	d, cancel := startDispatcher(t)
	cancel()

	assert.Eventually(t, func() bool {
		return d.Submit(context.Background(), "late", "c1", func(context.Context) error { return nil }) == ErrStopped
	}, time.Second, 10*time.Millisecond)
}
