package ws

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/topplegame/topple/internal/model"
)

// writeTimeout bounds every socket write, pings included
const writeTimeout = 10 * time.Second

// Conn is one client connection: the socket, a bounded outbound queue
// drained by the write pump, and the session bound at authentication.
// The dispatcher owns the read loop; the write pump runs on its own
// goroutine.
type Conn struct {
	ID   string
	sock *websocket.Conn

	mu        sync.Mutex
	sessionID model.SessionID

	send   chan []byte
	done   chan struct{}
	closed atomic.Bool

	logger *slog.Logger
}

func newConn(id string, sock *websocket.Conn, queueSize int, logger *slog.Logger) *Conn {
	return &Conn{
		ID:     id,
		sock:   sock,
		send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
		logger: logger.With(slog.String("connection_id", id)),
	}
}

// Session returns the bound session id, or empty before authentication
func (c *Conn) Session() model.SessionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// BindSession attaches an authenticated session to the connection
func (c *Conn) BindSession(id model.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

// Enqueue hands a frame to the write pump. It reports false when the
// queue is full; the frame is dropped rather than blocking the caller.
func (c *Conn) Enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// readPump delivers inbound frames to handle until the socket closes.
// The read deadline is pushed out on every frame and every pong, so an
// idle client is cut off after idleTimeout.
func (c *Conn) readPump(limit int64, idleTimeout time.Duration, handle func(raw []byte)) {
	c.sock.SetReadLimit(limit)
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(idleTimeout))
	})

	for {
		c.sock.SetReadDeadline(time.Now().Add(idleTimeout))

		_, raw, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn("connection read failed", slog.String("error", err.Error()))
			}
			return
		}

		handle(raw)
	}
}

// writePump drains the send queue onto the socket and pings the client
// every pingInterval. A failed write closes the connection, which also
// unblocks the read pump.
func (c *Conn) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Warn("connection write failed", slog.String("error", err.Error()))
				c.Close()
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			return
		}
	}
}

// Close shuts the connection down exactly once
func (c *Conn) Close() {
	if c.closed.Swap(true) {
		return
	}
	close(c.done)

	c.sock.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.sock.Close()
}
