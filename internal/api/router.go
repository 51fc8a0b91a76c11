package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/topplegame/topple/internal/api/apierr"
	"github.com/topplegame/topple/internal/api/handler"
	apimiddleware "github.com/topplegame/topple/internal/api/middleware"
	"github.com/topplegame/topple/internal/dependencies/clock"
	"github.com/topplegame/topple/internal/middleware"
	"github.com/topplegame/topple/internal/services/game"
	"github.com/topplegame/topple/internal/services/session"
	"github.com/topplegame/topple/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger     *slog.Logger
	Dispatcher *ws.Dispatcher
	Sessions   session.ManagerInterface
	Games      game.ManagerInterface
	Clock      clock.Clock
	Registry   *prometheus.Registry
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	systemHandler := handler.NewSystemHandler(cfg.Sessions, cfg.Games, cfg.Dispatcher, cfg.Clock)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)
	wsRecovery := middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler)

	// Websocket endpoint, mounted outside the logging chain because the
	// upgrade needs http.Hijacker
	r.Handle("/ws", wsRecovery(http.HandlerFunc(cfg.Dispatcher.HandleWS)))

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health and diagnostics (no session required)
	api.HandleFunc("/health", systemHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/diagnostics", systemHandler.Diagnostics).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	return r
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewNotFoundError("no such route"))
}
