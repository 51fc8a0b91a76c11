package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1:8080", cfg.Network.Addr())
	assert.Equal(t, int64(1048576), cfg.Network.MaxMessageSize)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, 1000, cfg.Session.MaxSessions)
	assert.True(t, cfg.Session.HeartbeatEnabled)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	assert.Equal(t, 16*time.Millisecond, cfg.Game.TickInterval)
	assert.Equal(t, PhysicsTypeFake, cfg.Physics.Type)
	assert.Equal(t, -9.8, cfg.Physics.GravityY)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("TOPPLE_HOST", "0.0.0.0")
	t.Setenv("TOPPLE_PORT", "9090")
	t.Setenv("TOPPLE_SESSION_TTL", "30m")
	t.Setenv("TOPPLE_SESSION_HEARTBEAT_ENABLED", "false")
	t.Setenv("TOPPLE_PHYSICS_TYPE", "native")
	t.Setenv("TOPPLE_PHYSICS_LIBRARY_PATH", "/opt/engine.so")
	t.Setenv("TOPPLE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Network.Addr())
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.False(t, cfg.Session.HeartbeatEnabled)
	assert.Equal(t, PhysicsTypeNative, cfg.Physics.Type)
	assert.Equal(t, "/opt/engine.so", cfg.Physics.LibraryPath)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("TOPPLE_PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
		"":      slog.LevelInfo,
	} {
		cfg := Config{LogLevel: name}
		assert.Equal(t, want, cfg.SlogLevel(), "level %q", name)
	}
}

func TestPhysicsStepInterval(t *testing.T) {
	p := Physics{FixedTimeStep: 0.05}
	assert.Equal(t, 50*time.Millisecond, p.StepInterval())
}
