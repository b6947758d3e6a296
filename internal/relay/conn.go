package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/clarity-platform/peer-relay/internal/model"
)

const (
	sendQueueSize = 64
	writeTimeout  = 10 * time.Second
)

// Conn adapts a websocket connection to the engine's Connection interface.
// Events enqueued by Send are written by a single goroutine in order, so a
// sender's sequence of messages reaches each recipient in the order the
// engine processed them.
type Conn struct {
	id     string
	userID string
	ws     *websocket.Conn
	engine *Engine
	sendCh chan []byte

	closeOnce sync.Once
}

// NewConn wraps an accepted, authenticated websocket connection.
func NewConn(id, userID string, ws *websocket.Conn, engine *Engine) *Conn {
	return &Conn{
		id:     id,
		userID: userID,
		ws:     ws,
		engine: engine,
		sendCh: make(chan []byte, sendQueueSize),
	}
}

func (c *Conn) ID() string     { return c.id }
func (c *Conn) UserID() string { return c.userID }

// Send marshals the event into an envelope and enqueues it. A full queue
// means the client is not keeping up; the event is dropped rather than
// blocking the routing path.
func (c *Conn) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	frame, err := json.Marshal(model.Envelope{Event: event, Data: payload})
	if err != nil {
		return err
	}

	select {
	case c.sendCh <- frame:
		return nil
	default:
		return websocket.CloseError{Code: websocket.StatusPolicyViolation, Reason: "send queue full"}
	}
}

// Close ends the connection immediately.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.ws.Close(websocket.StatusNormalClosure, "")
	})
	return nil
}

// Run registers the connection with the engine and blocks on the read loop
// until the peer disconnects or ctx is canceled. Callers should invoke it
// from the upgrade handler so the request context stays alive for the
// connection's lifetime.
func (c *Conn) Run(ctx context.Context) {
	c.engine.Connect(c)

	go c.writeLoop(ctx)
	c.readLoop(ctx)
}

// readLoop pulls frames off the socket and hands them to the engine. The
// deferred teardown runs no matter how the loop exits; Disconnect itself is
// idempotent in case the transport reports both an error and a close.
func (c *Conn) readLoop(ctx context.Context) {
	defer func() {
		c.engine.Disconnect(c)
		c.ws.CloseNow()
	}()

	for {
		msgType, p, err := c.ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != -1 {
				slog.Warn("read error", "conn_id", c.id, "user_id", c.userID, "error", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		c.engine.Dispatch(c, p)
	}
}

func (c *Conn) writeLoop(ctx context.Context) {
	defer c.ws.CloseNow()

	for {
		select {
		case frame := <-c.sendCh:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			c.ws.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}
	}
}
