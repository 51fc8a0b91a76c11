package api_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topplegame/topple/internal/api"
	"github.com/topplegame/topple/internal/api/apierr"
	"github.com/topplegame/topple/internal/api/response"
	"github.com/topplegame/topple/internal/config"
	"github.com/topplegame/topple/internal/factory"
	"github.com/topplegame/topple/internal/model"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app := factory.NewTestApp()
	t.Cleanup(func() {
		_ = app.Shutdown(context.Background())
	})

	router := api.NewRouter(api.RouterConfig{
		Logger:     logger,
		Dispatcher: app.Dispatcher,
		Sessions:   app.SessionManager,
		Games:      app.GameManager,
		Clock:      app.Clock,
		Registry:   app.Registry,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.Health
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, config.Version, resp.Version)
}

func TestDiagnosticsReportsCounts(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.app.SessionManager.CreateSession(t.Context(), "alice", model.RolePlayer, "")
	require.NoError(t, err)
	_, err = ts.app.GameManager.CreateGame(t.Context(), "Tower Derby", model.GameTypeRace, model.DifficultyMedium)
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/diagnostics")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.Diagnostics
	err = json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, config.Version, resp.Version)
	assert.Equal(t, 1, resp.Sessions)
	assert.Equal(t, 1, resp.Games)
	assert.Equal(t, 0, resp.Connections)
	assert.Positive(t, resp.Goroutines)
	assert.GreaterOrEqual(t, resp.UptimeSeconds, int64(0))
}

func TestWebsocketEndpointServesProtocol(t *testing.T) {
	ts := newTestServer(t)

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	// The server greets every connection before anything else
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Welcome to Topple Towers Server")

	rr := ts.request(http.MethodGet, "/api/v1/diagnostics")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.Diagnostics
	err = json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Connections)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return ts.app.Dispatcher.ConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMetricsExposed(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.app.SessionManager.CreateSession(t.Context(), "bob", model.RolePlayer, "")
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "topple_active_sessions 1")
	assert.Contains(t, body, "topple_active_games 0")
	assert.Contains(t, body, "go_goroutines")
}

func TestUnknownRouteReturnsJSONError(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/lobbies")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp apierr.ErrorResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, apierr.CodeNotFound, resp.Error.Code)
}
