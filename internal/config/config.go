package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Version is reported by the health endpoint and the CLI
const Version = "1.0.0"

// Physics backend selectors
const (
	PhysicsTypeFake   = "fake"
	PhysicsTypeNative = "native"
)

// Network holds listener and connection settings
type Network struct {
	Host              string        `env:"TOPPLE_HOST"               envDefault:"127.0.0.1"`
	Port              int           `env:"TOPPLE_PORT"               envDefault:"8080"`
	MaxMessageSize    int64         `env:"TOPPLE_MAX_MESSAGE_SIZE"   envDefault:"1048576"`
	ConnectionTimeout time.Duration `env:"TOPPLE_CONNECTION_TIMEOUT" envDefault:"60s"`
	SendQueueSize     int           `env:"TOPPLE_SEND_QUEUE_SIZE"    envDefault:"64"`
}

// Addr returns the host:port listen address
func (n Network) Addr() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// Session holds session lifecycle settings
type Session struct {
	TTL             time.Duration `env:"TOPPLE_SESSION_TTL"              envDefault:"1h"`
	CleanupInterval time.Duration `env:"TOPPLE_SESSION_CLEANUP_INTERVAL" envDefault:"5m"`
	MaxSessions     int           `env:"TOPPLE_MAX_SESSIONS"             envDefault:"1000"`

	// HeartbeatEnabled runs the server-side heartbeat loop. Disable
	// when a deployment drives liveness purely through the reaper.
	HeartbeatEnabled  bool          `env:"TOPPLE_SESSION_HEARTBEAT_ENABLED" envDefault:"true"`
	HeartbeatInterval time.Duration `env:"TOPPLE_HEARTBEAT_INTERVAL"        envDefault:"30s"`
	InactivityTimeout time.Duration `env:"TOPPLE_INACTIVITY_TIMEOUT"        envDefault:"5m"`
}

// Game holds gameplay settings
type Game struct {
	MaxPlayers   int           `env:"TOPPLE_MAX_PLAYERS"   envDefault:"4"`
	FieldWidth   float64       `env:"TOPPLE_FIELD_WIDTH"   envDefault:"10"`
	FieldHeight  float64       `env:"TOPPLE_FIELD_HEIGHT"  envDefault:"20"`
	TickInterval time.Duration `env:"TOPPLE_TICK_INTERVAL" envDefault:"16ms"`
}

// Physics holds engine selection and simulation settings
type Physics struct {
	// Type selects the physics backend ("fake" or "native")
	Type        string `env:"TOPPLE_PHYSICS_TYPE"         envDefault:"fake"`
	LibraryPath string `env:"TOPPLE_PHYSICS_LIBRARY_PATH" envDefault:"lib/libtopple_physics.so"`

	GravityX      float64 `env:"TOPPLE_PHYSICS_GRAVITY_X"  envDefault:"0"`
	GravityY      float64 `env:"TOPPLE_PHYSICS_GRAVITY_Y"  envDefault:"-9.8"`
	Iterations    int     `env:"TOPPLE_PHYSICS_ITERATIONS" envDefault:"10"`
	FixedTimeStep float64 `env:"TOPPLE_PHYSICS_TIME_STEP"  envDefault:"0.016666667"`

	// AutoAdvance runs the simulation stepping loop in the server.
	// Disable when the engine steps itself.
	AutoAdvance bool `env:"TOPPLE_PHYSICS_AUTO_ADVANCE" envDefault:"true"`
}

// StepInterval converts the fixed time step to a ticker interval
func (p Physics) StepInterval() time.Duration {
	return time.Duration(p.FixedTimeStep * float64(time.Second))
}

// Config is the full server configuration
type Config struct {
	Network Network
	Session Session
	Game    Game
	Physics Physics

	LogLevel string `env:"TOPPLE_LOG_LEVEL" envDefault:"info"`

	// AdminTokenHash is the bcrypt hash admin connections must match.
	// Empty disables the admin role.
	AdminTokenHash string `env:"TOPPLE_ADMIN_TOKEN_HASH"`
}

// SlogLevel maps the configured level name to a slog level
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration without consulting the
// environment
func Default() Config {
	return Config{
		Network: Network{
			Host:              "127.0.0.1",
			Port:              8080,
			MaxMessageSize:    1 << 20,
			ConnectionTimeout: 60 * time.Second,
			SendQueueSize:     64,
		},
		Session: Session{
			TTL:               time.Hour,
			CleanupInterval:   5 * time.Minute,
			MaxSessions:       1000,
			HeartbeatEnabled:  true,
			HeartbeatInterval: 30 * time.Second,
			InactivityTimeout: 5 * time.Minute,
		},
		Game: Game{
			MaxPlayers:   4,
			FieldWidth:   10,
			FieldHeight:  20,
			TickInterval: 16 * time.Millisecond,
		},
		Physics: Physics{
			Type:          PhysicsTypeFake,
			LibraryPath:   "lib/libtopple_physics.so",
			GravityX:      0,
			GravityY:      -9.8,
			Iterations:    10,
			FixedTimeStep: 1.0 / 60.0,
			AutoAdvance:   true,
		},
		LogLevel: "info",
	}
}
