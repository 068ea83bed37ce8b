package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CALLING_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, 20*time.Second, cfg.CallingTimeout)
	assert.Equal(t, "push.send", cfg.PushRoutingKey)
	assert.False(t, cfg.DebugRoutes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CALLING_TIMEOUT", "5s")
	t.Setenv("EVENT_QUEUE_SIZE", "16")
	t.Setenv("DEBUG_ROUTES", "true")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.CallingTimeout)
	assert.Equal(t, 16, cfg.QueueSize)
	assert.True(t, cfg.DebugRoutes)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("CALLING_TIMEOUT", "-1s")
	t.Setenv("EVENT_QUEUE_SIZE", "many")
	t.Setenv("DEBUG_ROUTES", "maybe")

	cfg := Load()

	assert.Equal(t, 20*time.Second, cfg.CallingTimeout)
	assert.Equal(t, 1024, cfg.QueueSize)
	assert.False(t, cfg.DebugRoutes)
}
