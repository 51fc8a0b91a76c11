package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/topplegame/topple/internal/api/response"
	"github.com/topplegame/topple/internal/config"
	"github.com/topplegame/topple/internal/dependencies/clock"
	"github.com/topplegame/topple/internal/services/game"
	"github.com/topplegame/topple/internal/services/session"
)

// ConnectionCounter reports how many websocket connections are open
type ConnectionCounter interface {
	ConnectionCount() int
}

// SystemHandler handles the health and diagnostics endpoints
type SystemHandler struct {
	sessions  session.ManagerInterface
	games     game.ManagerInterface
	conns     ConnectionCounter
	clock     clock.Clock
	startedAt time.Time
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(
	sessions session.ManagerInterface,
	games game.ManagerInterface,
	conns ConnectionCounter,
	clk clock.Clock,
) *SystemHandler {
	return &SystemHandler{
		sessions:  sessions,
		games:     games,
		conns:     conns,
		clock:     clk,
		startedAt: clk.Now(),
	}
}

// Health handles GET /api/v1/health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:  "ok",
		Version: config.Version,
	})
}

// Diagnostics handles GET /api/v1/diagnostics
func (h *SystemHandler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Diagnostics{
		Status:        "ok",
		Version:       config.Version,
		UptimeSeconds: int64(h.clock.Since(h.startedAt) / time.Second),
		Sessions:      h.sessions.Count(),
		Games:         h.games.Count(),
		Connections:   h.conns.ConnectionCount(),
		Goroutines:    runtime.NumGoroutine(),
	})
}
