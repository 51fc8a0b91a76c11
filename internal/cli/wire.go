package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/topplegame/topple/internal/model"
	"github.com/topplegame/topple/internal/protocol"
)

// wireTimeout bounds how long a single request waits for its
// acknowledgement
const wireTimeout = 10 * time.Second

// WireClient speaks the websocket protocol to the server, one
// connection per client. It is not safe for concurrent use except that
// a single other goroutine may call Leave and Close to interrupt a
// blocked Read.
type WireClient struct {
	conn      *websocket.Conn
	sessionID model.SessionID
}

// DialWire connects to the server's websocket endpoint and consumes the
// welcome greeting
func DialWire(serverURL string) (*WireClient, error) {
	wsURL, err := wireURL(serverURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", wsURL, err)
	}

	w := &WireClient{conn: conn}

	// The server greets every connection with an Auth-typed envelope
	// before anything else
	if _, err := w.expect(protocol.MessageTypeAuth); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}

	return w, nil
}

// wireURL converts the configured HTTP base URL to the websocket endpoint
func wireURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q in server URL", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

// SessionID returns the session bound by Authenticate, or empty
func (w *WireClient) SessionID() model.SessionID {
	return w.sessionID
}

// Authenticate requests a session and binds it to the connection
func (w *WireClient) Authenticate(userName string, role model.UserRole) (protocol.AuthAckData, error) {
	payload := map[string]string{
		"user_name": userName,
		"role":      string(role),
	}
	if err := w.send(protocol.MessageTypeAuth, payload); err != nil {
		return protocol.AuthAckData{}, err
	}

	env, err := w.expect(protocol.MessageTypeAuth)
	if err != nil {
		return protocol.AuthAckData{}, err
	}

	var ack protocol.AuthAckData
	if err := json.Unmarshal(env.Data, &ack); err != nil {
		return protocol.AuthAckData{}, fmt.Errorf("parse auth ack: %w", err)
	}

	w.sessionID = ack.SessionID
	return ack, nil
}

// CreateGame asks the server to allocate a game
func (w *WireClient) CreateGame(name, gameType, difficulty string) (protocol.GameCreatedData, error) {
	payload := map[string]string{
		"game_name":  name,
		"game_type":  gameType,
		"difficulty": difficulty,
	}
	if err := w.send(protocol.MessageTypeCreateGame, payload); err != nil {
		return protocol.GameCreatedData{}, err
	}

	env, err := w.expect(protocol.MessageTypeCreateGame)
	if err != nil {
		return protocol.GameCreatedData{}, err
	}

	var ack protocol.GameCreatedData
	if err := json.Unmarshal(env.Data, &ack); err != nil {
		return protocol.GameCreatedData{}, fmt.Errorf("parse create ack: %w", err)
	}

	return ack, nil
}

// JoinGame binds the session to a game
func (w *WireClient) JoinGame(gameID model.GameID) error {
	payload := map[string]string{"game_id": string(gameID)}
	if err := w.send(protocol.MessageTypeJoinGame, payload); err != nil {
		return err
	}

	_, err := w.expect(protocol.MessageTypeJoinGame)
	return err
}

// Leave unbinds the session from its game. Fire and forget: the caller
// is usually tearing the connection down.
func (w *WireClient) Leave() error {
	return w.send(protocol.MessageTypeLeaveGame, nil)
}

// Read returns the next envelope from the server, blocking until one
// arrives or the connection closes
func (w *WireClient) Read() (protocol.Envelope, error) {
	_, raw, err := w.conn.ReadMessage()
	if err != nil {
		return protocol.Envelope{}, err
	}

	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return protocol.Envelope{}, fmt.Errorf("malformed frame: %w", err)
	}
	return env, nil
}

// Close tears down the connection
func (w *WireClient) Close() error {
	return w.conn.Close()
}

func (w *WireClient) send(t protocol.MessageType, data any) error {
	env, err := protocol.NewEnvelope(t, uuid.NewString(), w.sessionID, time.Now(), data)
	if err != nil {
		return err
	}

	raw, err := env.Marshal()
	if err != nil {
		return err
	}

	return w.conn.WriteMessage(websocket.TextMessage, raw)
}

// expect reads until an envelope of type t arrives, skipping unrelated
// broadcasts. An Error envelope fails the wait.
func (w *WireClient) expect(t protocol.MessageType) (protocol.Envelope, error) {
	if err := w.conn.SetReadDeadline(time.Now().Add(wireTimeout)); err != nil {
		return protocol.Envelope{}, err
	}
	defer func() { _ = w.conn.SetReadDeadline(time.Time{}) }()

	for {
		env, err := w.Read()
		if err != nil {
			return protocol.Envelope{}, err
		}

		switch env.MessageType {
		case t:
			return env, nil
		case protocol.MessageTypeError:
			return protocol.Envelope{}, wireError(env)
		}
	}
}

func wireError(env protocol.Envelope) error {
	var data protocol.ErrorData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("server error: %s", string(env.Data))
	}
	return fmt.Errorf("%s (%s)", data.Error, data.Code)
}
