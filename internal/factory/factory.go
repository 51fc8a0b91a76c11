package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/topplegame/topple/internal/config"
	"github.com/topplegame/topple/internal/dependencies/clock"
	"github.com/topplegame/topple/internal/dependencies/random"
	"github.com/topplegame/topple/internal/metrics"
	"github.com/topplegame/topple/internal/model"
	"github.com/topplegame/topple/internal/physics"
	"github.com/topplegame/topple/internal/physics/fake"
	"github.com/topplegame/topple/internal/physics/native"
	"github.com/topplegame/topple/internal/services/game"
	"github.com/topplegame/topple/internal/services/session"
	"github.com/topplegame/topple/internal/ws"
)

// App contains all wired application components
type App struct {
	Config config.Config

	// External dependencies
	Boundary physics.Boundary
	Clock    clock.Clock
	Random   random.Random

	// Observability
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Services
	GameManager    *game.Manager
	SessionManager *session.Manager
	Dispatcher     *ws.Dispatcher

	logger *slog.Logger
}

// New creates a new application with all dependencies wired
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	// Use no-op logger if not provided
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	boundary, err := newBoundary(cfg.Physics)
	if err != nil {
		return nil, fmt.Errorf("create physics boundary: %w", err)
	}

	return newWithDependencies(cfg, boundary, clock.New(), random.New(), logger), nil
}

// newBoundary selects the physics backend
func newBoundary(cfg config.Physics) (physics.Boundary, error) {
	switch cfg.Type {
	case config.PhysicsTypeFake:
		return fake.New(), nil
	case config.PhysicsTypeNative:
		return native.New(native.Config{
			LibraryPath:   cfg.LibraryPath,
			Gravity:       model.Vec2{X: cfg.GravityX, Y: cfg.GravityY},
			Iterations:    cfg.Iterations,
			FixedTimeStep: cfg.FixedTimeStep,
		})
	default:
		return nil, fmt.Errorf("invalid physics type %q: must be %q or %q",
			cfg.Type, config.PhysicsTypeFake, config.PhysicsTypeNative)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(cfg config.Config, raw physics.Boundary, clk clock.Clock, rnd random.Random, logger *slog.Logger) *App {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	boundary := physics.Instrument(raw, m)

	games := game.NewManager(cfg.Game, boundary, clk, rnd, m, logger)
	sessions := session.NewManager(cfg.Session, cfg.AdminTokenHash, games, clk, rnd, m, logger)
	dispatcher := ws.NewDispatcher(cfg.Network, sessions, games, clk, rnd, m, logger)

	return &App{
		Config:         cfg,
		Boundary:       boundary,
		Clock:          clk,
		Random:         rnd,
		Registry:       registry,
		Metrics:        m,
		GameManager:    games,
		SessionManager: sessions,
		Dispatcher:     dispatcher,
		logger:         logger,
	}
}

// StartLoops runs the background loops until ctx is cancelled: the game
// tick, session reaping, event fan-out, and, when their toggles are on,
// heartbeat checks and the physics stepping loop.
func (a *App) StartLoops(ctx context.Context) {
	go a.GameManager.RunTickLoop(ctx, a.Config.Game.TickInterval)
	go a.SessionManager.RunReaperLoop(ctx)
	if a.Config.Session.HeartbeatEnabled {
		go a.SessionManager.RunHeartbeatLoop(ctx)
	}
	go a.Dispatcher.RunEventLoop(ctx)

	if a.Config.Physics.AutoAdvance {
		go a.runPhysicsLoop(ctx)
	}

	a.logger.Info("background loops started")
}

// runPhysicsLoop advances the engine at the configured step rate. The
// boundary is a consumed interface, so the loop lives here rather than
// on a service of its own.
func (a *App) runPhysicsLoop(ctx context.Context) {
	dt := a.Config.Physics.FixedTimeStep
	ticker := time.NewTicker(a.Config.Physics.StepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := a.Boundary.Advance(dt); err != nil {
				a.logger.Warn("physics step failed", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown stops the dispatcher, then the session and game managers,
// then the physics engine. The HTTP server is owned by the caller and
// must be stopped before this is called.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if err := a.Dispatcher.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("dispatcher shutdown: %w", err))
	}
	if err := a.SessionManager.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("session shutdown: %w", err))
	}
	if err := a.GameManager.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("game shutdown: %w", err))
	}
	if err := a.Boundary.Close(); err != nil {
		errs = append(errs, fmt.Errorf("physics close: %w", err))
	}

	return errors.Join(errs...)
}
