package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"

	"github.com/topplegame/topple/internal/config"
	"github.com/topplegame/topple/internal/dependencies/clock"
	"github.com/topplegame/topple/internal/dependencies/random"
	"github.com/topplegame/topple/internal/metrics"
	"github.com/topplegame/topple/internal/model"
	"github.com/topplegame/topple/internal/protocol"
	"github.com/topplegame/topple/internal/services/game"
	"github.com/topplegame/topple/internal/services/session"
	"github.com/topplegame/topple/internal/storage"
)

const welcomeMessage = "Welcome to Topple Towers Server"

var errConnGone = errors.New("connection gone")

// Dispatcher is the only component that talks to transport. It owns the
// connection table, decodes inbound envelopes into commands, routes them
// to the session and game managers, and fans resulting state out to the
// connections of the affected game's players.
type Dispatcher struct {
	cfg      config.Network
	sessions session.ManagerInterface
	games    game.ManagerInterface
	clock    clock.Clock
	random   random.Random
	metrics  *metrics.Metrics
	logger   *slog.Logger

	conns    *storage.Table[string, *Conn]
	upgrader websocket.Upgrader
}

// NewDispatcher creates a dispatcher with the given dependencies
func NewDispatcher(
	cfg config.Network,
	sessions session.ManagerInterface,
	games game.ManagerInterface,
	clk clock.Clock,
	rnd random.Random,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		sessions: sessions,
		games:    games,
		clock:    clk,
		random:   rnd,
		metrics:  m,
		logger:   logger,
		conns:    storage.NewTable[string, *Conn](errConnGone),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// pingInterval keeps pings comfortably inside the peer's idle timeout
func pingInterval(idleTimeout time.Duration) time.Duration {
	return idleTimeout * 9 / 10
}

// HandleWS upgrades the request and services the connection until the
// client goes away. One goroutine (this one) reads, a second writes.
func (d *Dispatcher) HandleWS(w http.ResponseWriter, r *http.Request) {
	sock, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	conn := newConn(d.random.UUID(), sock, d.cfg.SendQueueSize, d.logger)
	d.conns.Insert(conn.ID, conn)
	d.metrics.ActiveConnections.Inc()
	d.logger.Info("connection opened", slog.String("connection_id", conn.ID))

	go conn.writePump(pingInterval(d.cfg.ConnectionTimeout))

	d.sendWelcome(conn)

	ctx := r.Context()
	conn.readPump(d.cfg.MaxMessageSize, d.cfg.ConnectionTimeout, func(raw []byte) {
		d.dispatch(ctx, conn, raw)
	})

	d.drop(context.Background(), conn)
}

// drop tears a connection down after its read pump exits. The bound
// session is touched, not deleted; expiry reaping owns that decision.
func (d *Dispatcher) drop(ctx context.Context, conn *Conn) {
	if _, ok := d.conns.Remove(conn.ID); !ok {
		return
	}
	d.metrics.ActiveConnections.Dec()
	conn.Close()

	if sid := conn.Session(); sid != "" {
		err := d.sessions.UpdateActivity(ctx, sid)
		if err != nil && !errors.Is(err, model.ErrSessionNotFound) {
			d.logger.Warn("touch session on disconnect",
				slog.String("session_id", string(sid)),
				slog.String("error", err.Error()))
		}
	}

	d.logger.Info("connection closed", slog.String("connection_id", conn.ID))
}

// dispatch decodes one inbound frame and runs the command it carries.
// Failures of any kind become an Error frame; the connection stays open.
func (d *Dispatcher) dispatch(ctx context.Context, conn *Conn, raw []byte) {
	// A panicking handler must not take the process down, only answer
	// this one message with an error.
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in message handler",
				slog.String("connection_id", conn.ID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			d.sendError(conn, errors.New("internal server error"))
		}
	}()

	env, cmd, err := protocol.Decode(raw)
	if err != nil {
		d.metrics.MessagesReceived.WithLabelValues(receivedLabel(env)).Inc()
		d.logger.Warn("rejected message",
			slog.String("connection_id", conn.ID),
			slog.String("error", err.Error()))
		d.sendError(conn, err)
		return
	}
	d.metrics.MessagesReceived.WithLabelValues(string(env.MessageType)).Inc()

	if err := d.handle(ctx, conn, cmd); err != nil {
		d.logger.Warn("command failed",
			slog.String("connection_id", conn.ID),
			slog.String("message_type", string(env.MessageType)),
			slog.String("error", err.Error()))
		d.sendError(conn, err)
	}
}

func receivedLabel(env protocol.Envelope) string {
	if env.MessageType == "" {
		return "invalid"
	}
	return string(env.MessageType)
}

func (d *Dispatcher) handle(ctx context.Context, conn *Conn, cmd protocol.Command) error {
	// Auth and Ping are the only commands a fresh connection may send
	switch c := cmd.(type) {
	case protocol.AuthCommand:
		return d.handleAuth(ctx, conn, c)
	case protocol.PingCommand:
		d.reply(conn, protocol.MessageTypePong, protocol.PongData{})
		return nil
	}

	sess, err := d.requireSession(ctx, conn)
	if err != nil {
		return err
	}

	switch c := cmd.(type) {
	case protocol.CreateGameCommand:
		return d.handleCreateGame(ctx, conn, c)
	case protocol.JoinGameCommand:
		return d.handleJoinGame(ctx, conn, sess, c)
	case protocol.LeaveGameCommand:
		return d.handleLeaveGame(ctx, conn, sess)
	case protocol.StartGameCommand:
		return d.gameOp(ctx, conn, sess, protocol.MessageTypeStartGame, d.games.StartGame)
	case protocol.PauseGameCommand:
		return d.gameOp(ctx, conn, sess, protocol.MessageTypePauseGame, d.games.PauseGame)
	case protocol.ResumeGameCommand:
		return d.gameOp(ctx, conn, sess, protocol.MessageTypeResumeGame, d.games.ResumeGame)
	case protocol.FinishGameCommand:
		return d.gameOp(ctx, conn, sess, protocol.MessageTypeFinishGame, func(ctx context.Context, gameID model.GameID) error {
			return d.games.FinishGame(ctx, gameID, c.WinnerID)
		})
	case protocol.SpawnBlockCommand:
		return d.handleSpawnBlock(ctx, conn, sess)
	case protocol.MoveBlockCommand:
		return d.gameOp(ctx, conn, sess, protocol.MessageTypeMoveBlock, func(ctx context.Context, gameID model.GameID) error {
			return d.games.MoveCurrentBlock(ctx, gameID, c.Direction)
		})
	case protocol.RotateBlockCommand:
		return d.gameOp(ctx, conn, sess, protocol.MessageTypeRotateBlock, func(ctx context.Context, gameID model.GameID) error {
			return d.games.RotateCurrentBlock(ctx, gameID, c.AngleDelta)
		})
	case protocol.CastSpellCommand:
		return d.handleCastSpell(ctx, conn, sess, c)
	case protocol.ChatCommand:
		return d.handleChat(ctx, sess, c)
	default:
		return fmt.Errorf("%w: unhandled command %T", model.ErrProtocol, cmd)
	}
}

// requireSession resolves and touches the connection's bound session.
// An expired or reaped session surfaces the same as never having one.
func (d *Dispatcher) requireSession(ctx context.Context, conn *Conn) (*model.Session, error) {
	sid := conn.Session()
	if sid == "" {
		return nil, model.ErrMissingSession
	}
	sess, err := d.sessions.GetSession(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := d.sessions.UpdateActivity(ctx, sid); err != nil {
		return nil, err
	}
	return sess, nil
}

// boundGame resolves the game a session is in for game-scoped commands
func boundGame(sess *model.Session) (model.GameID, error) {
	if sess.GameID == "" {
		return "", fmt.Errorf("%w: session is not in a game", model.ErrInvalidState)
	}
	return sess.GameID, nil
}

func (d *Dispatcher) handleAuth(ctx context.Context, conn *Conn, cmd protocol.AuthCommand) error {
	sess, err := d.sessions.CreateSession(ctx, cmd.UserName, cmd.Role, cmd.AdminToken)
	if err != nil {
		return err
	}
	conn.BindSession(sess.ID)

	d.reply(conn, protocol.MessageTypeAuth, protocol.AuthAckData{
		Success:   true,
		SessionID: sess.ID,
		UserID:    sess.User.ID,
	})
	return nil
}

func (d *Dispatcher) handleCreateGame(ctx context.Context, conn *Conn, cmd protocol.CreateGameCommand) error {
	g, err := d.games.CreateGame(ctx, cmd.GameName, cmd.GameType, cmd.Difficulty)
	if err != nil {
		return err
	}
	d.reply(conn, protocol.MessageTypeCreateGame, protocol.GameCreatedData{
		Success: true,
		GameID:  g.ID,
	})
	return nil
}

func (d *Dispatcher) handleJoinGame(ctx context.Context, conn *Conn, sess *model.Session, cmd protocol.JoinGameCommand) error {
	if err := d.sessions.JoinGame(ctx, sess.ID, cmd.GameID); err != nil {
		return err
	}
	d.reply(conn, protocol.MessageTypeJoinGame, protocol.GameJoinedData{
		Success: true,
		GameID:  cmd.GameID,
	})
	d.broadcastGameState(ctx, cmd.GameID)
	d.broadcast(ctx, cmd.GameID, protocol.MessageTypePlayerJoined, protocol.PlayerJoinedData{
		PlayerID:   model.PlayerID(sess.User.ID),
		PlayerName: sess.User.Name,
	})
	return nil
}

func (d *Dispatcher) handleLeaveGame(ctx context.Context, conn *Conn, sess *model.Session) error {
	gameID, err := boundGame(sess)
	if err != nil {
		return err
	}
	if err := d.sessions.LeaveGame(ctx, sess.ID); err != nil {
		return err
	}
	d.reply(conn, protocol.MessageTypeLeaveGame, protocol.AckData{Success: true})
	d.broadcastGameState(ctx, gameID)
	d.broadcast(ctx, gameID, protocol.MessageTypePlayerLeft, protocol.PlayerLeftData{
		PlayerID: model.PlayerID(sess.User.ID),
	})
	return nil
}

// gameOp runs a mutating operation against the session's bound game and
// follows the ack with a state broadcast to the game's players
func (d *Dispatcher) gameOp(
	ctx context.Context,
	conn *Conn,
	sess *model.Session,
	t protocol.MessageType,
	op func(context.Context, model.GameID) error,
) error {
	gameID, err := boundGame(sess)
	if err != nil {
		return err
	}
	if err := op(ctx, gameID); err != nil {
		return err
	}
	d.reply(conn, t, protocol.AckData{Success: true})
	d.broadcastGameState(ctx, gameID)
	return nil
}

func (d *Dispatcher) handleSpawnBlock(ctx context.Context, conn *Conn, sess *model.Session) error {
	gameID, err := boundGame(sess)
	if err != nil {
		return err
	}
	blockID, err := d.games.SpawnTetrisBlock(ctx, gameID, model.PlayerID(sess.User.ID))
	if err != nil {
		return err
	}
	d.reply(conn, protocol.MessageTypeSpawnBlock, protocol.BlockSpawnedData{
		Success: true,
		BlockID: blockID,
	})
	d.broadcastGameState(ctx, gameID)
	return nil
}

func (d *Dispatcher) handleCastSpell(ctx context.Context, conn *Conn, sess *model.Session, cmd protocol.CastSpellCommand) error {
	gameID, err := boundGame(sess)
	if err != nil {
		return err
	}
	casterID := model.PlayerID(sess.User.ID)
	if err := d.games.CastSpell(ctx, gameID, casterID, cmd.SpellID, cmd.TargetID); err != nil {
		return err
	}
	d.reply(conn, protocol.MessageTypeCastSpell, protocol.AckData{Success: true})
	d.broadcastGameState(ctx, gameID)

	sp, _ := model.SpellByID(cmd.SpellID)
	d.broadcast(ctx, gameID, protocol.MessageTypeSpellUsed, protocol.SpellUsedData{
		SpellID:   cmd.SpellID,
		SpellType: sp.Kind,
		CasterID:  casterID,
		TargetID:  cmd.TargetID,
	})
	return nil
}

// handleChat relays a chat line to the game's players, the sender
// included. There is no separate ack.
func (d *Dispatcher) handleChat(ctx context.Context, sess *model.Session, cmd protocol.ChatCommand) error {
	gameID, err := boundGame(sess)
	if err != nil {
		return err
	}
	d.broadcast(ctx, gameID, protocol.MessageTypeChatMessage, protocol.ChatMessageData{
		PlayerID: model.PlayerID(sess.User.ID),
		Message:  cmd.Message,
	})
	return nil
}

func (d *Dispatcher) sendWelcome(conn *Conn) {
	d.reply(conn, protocol.MessageTypeAuth, protocol.WelcomeData{
		Message:      welcomeMessage,
		ConnectionID: conn.ID,
	})
}

// reply sends a frame to one connection, stamped with its bound session
func (d *Dispatcher) reply(conn *Conn, t protocol.MessageType, data any) {
	d.send(conn, t, conn.Session(), data)
}

func (d *Dispatcher) sendError(conn *Conn, err error) {
	d.reply(conn, protocol.MessageTypeError, protocol.WireError(err))
}

func (d *Dispatcher) send(conn *Conn, t protocol.MessageType, sessionID model.SessionID, data any) {
	env, err := protocol.NewEnvelope(t, d.random.UUID(), sessionID, d.clock.Now(), data)
	if err != nil {
		d.logger.Error("encode frame",
			slog.String("message_type", string(t)),
			slog.String("error", err.Error()))
		return
	}
	raw, err := env.Marshal()
	if err != nil {
		d.logger.Error("encode frame",
			slog.String("message_type", string(t)),
			slog.String("error", err.Error()))
		return
	}

	if !conn.Enqueue(raw) {
		d.metrics.SendQueueDrops.Inc()
		d.logger.Warn("send queue full, dropping frame",
			slog.String("connection_id", conn.ID),
			slog.String("message_type", string(t)))
		return
	}
	d.metrics.MessagesSent.WithLabelValues(string(t)).Inc()
}

// broadcast sends a frame to every connection whose bound session is in
// the given game. Each recipient's envelope carries their own session id.
func (d *Dispatcher) broadcast(ctx context.Context, gameID model.GameID, t protocol.MessageType, data any) {
	for _, id := range d.conns.Keys() {
		_ = d.conns.Do(id, func(c *Conn) error {
			sid := c.Session()
			if sid == "" {
				return nil
			}
			sess, err := d.sessions.GetSession(ctx, sid)
			if err != nil || sess.GameID != gameID {
				return nil
			}
			d.send(c, t, sid, data)
			return nil
		})
	}
}

// broadcastGameState fans a fresh snapshot of the game out to its players
func (d *Dispatcher) broadcastGameState(ctx context.Context, gameID model.GameID) {
	g, err := d.games.GetGame(ctx, gameID)
	if err != nil {
		d.logger.Debug("skipping state broadcast",
			slog.String("game_id", string(gameID)),
			slog.String("error", err.Error()))
		return
	}
	d.broadcastSnapshot(ctx, gameID, g)
}

func (d *Dispatcher) broadcastSnapshot(ctx context.Context, gameID model.GameID, g *model.Game) {
	d.broadcast(ctx, gameID, protocol.MessageTypeGameState, protocol.GameStateData{
		Game: protocol.FromGame(g),
	})
}

// RunEventLoop fans games finished by the tick loop out to their
// players. Blocks until ctx is done.
func (d *Dispatcher) RunEventLoop(ctx context.Context) {
	for {
		select {
		case ev := <-d.games.Events():
			d.broadcastSnapshot(ctx, ev.GameID, ev.Game)
		case <-ctx.Done():
			return
		}
	}
}

// ConnectionCount returns the number of open connections
func (d *Dispatcher) ConnectionCount() int {
	return d.conns.Len()
}

// Shutdown closes every open connection
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	for _, id := range d.conns.Keys() {
		if conn, ok := d.conns.Remove(id); ok {
			conn.Close()
			d.metrics.ActiveConnections.Dec()
		}
	}
	d.logger.Info("dispatcher stopped")
	return nil
}
