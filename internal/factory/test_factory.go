package factory

import (
	"io"
	"log/slog"

	"github.com/topplegame/topple/internal/config"
	"github.com/topplegame/topple/internal/dependencies/clock"
	"github.com/topplegame/topple/internal/dependencies/random"
	"github.com/topplegame/topple/internal/physics/fake"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Fake is the physics boundary behind App.Boundary, kept concrete
	// so tests can script failures and inspect created blocks.
	Fake *fake.Boundary
}

// NewTestApp creates an App on the fake physics boundary. Clock and
// random stay real; tests that need deterministic time or ids construct
// managers directly with the mocks instead.
func NewTestApp() *TestApp {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	boundary := fake.New()

	app := newWithDependencies(config.Default(), boundary, clock.New(), random.New(), logger)

	return &TestApp{
		App:  app,
		Fake: boundary,
	}
}
