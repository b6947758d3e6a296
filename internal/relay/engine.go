package relay

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/clarity-platform/peer-relay/internal/model"
	"github.com/clarity-platform/peer-relay/internal/presence"
	"github.com/clarity-platform/peer-relay/internal/room"
)

type sanitizer interface {
	Sanitize(s string) string
}

// Engine drives every connection through its lifecycle: Connect registers
// it with the presence registry, Dispatch routes its events, and Disconnect
// tears it down. The presence registry and the room router are the only
// shared mutable state; each is guarded by its own lock so unrelated users'
// traffic is never serialized against each other.
type Engine struct {
	presence *presence.Registry
	router   *Router
	metrics  *Metrics

	mu    sync.RWMutex
	conns map[string]Connection

	sanitizer sanitizer
	now       func() time.Time
}

// NewEngine returns an Engine using the given presence registry. A nil
// metrics is valid and records nothing.
func NewEngine(reg *presence.Registry, metrics *Metrics) *Engine {
	return &Engine{
		presence:  reg,
		router:    NewRouter(),
		metrics:   metrics,
		conns:     make(map[string]Connection),
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

// Connect registers an already-authenticated connection. If this is the
// user's first open connection, every connected client is told the user
// came online.
func (e *Engine) Connect(conn Connection) {
	e.mu.Lock()
	e.conns[conn.ID()] = conn
	e.mu.Unlock()

	e.metrics.connOpened()

	if e.presence.Register(conn.UserID(), conn.ID()) {
		slog.Info("user online", "user_id", conn.UserID(), "conn_id", conn.ID())
		e.broadcast(model.EventUserOnline, model.PresenceChange{UserID: conn.UserID()})
	}
	e.metrics.setOnlineUsers(e.presence.OnlineCount())
}

// Disconnect tears a connection down: its room subscriptions are discarded
// and its presence entry removed, broadcasting the offline transition if it
// was the user's last connection. Some transports surface both an error and
// a close for one logical disconnect, so calling this twice is safe; only
// the first call does anything.
func (e *Engine) Disconnect(conn Connection) {
	e.mu.Lock()
	_, open := e.conns[conn.ID()]
	delete(e.conns, conn.ID())
	e.mu.Unlock()

	if !open {
		return
	}

	e.router.Drop(conn)
	e.metrics.connClosed()
	e.metrics.setActiveRooms(e.router.Rooms())

	if e.presence.Unregister(conn.UserID(), conn.ID()) {
		slog.Info("user offline", "user_id", conn.UserID(), "conn_id", conn.ID())
		e.broadcast(model.EventUserOffline, model.PresenceChange{UserID: conn.UserID()})
	}
	e.metrics.setOnlineUsers(e.presence.OnlineCount())
}

// Dispatch handles one inbound event from a connection. Malformed or
// incomplete events are dropped without a reply; the relay favors staying
// available over strict validation, since content checks belong to the
// external store.
func (e *Engine) Dispatch(conn Connection, raw []byte) {
	var env model.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Debug("dropping malformed envelope", "conn_id", conn.ID(), "error", err)
		e.metrics.recordDropped("malformed_envelope")
		return
	}

	switch env.Event {
	case model.EventJoinChat:
		e.handleJoinChat(conn, env.Data)
	case model.EventSendMessage:
		e.handleSendMessage(conn, env.Data)
	case model.EventTyping:
		e.handleTyping(conn, env.Data, model.EventPeerTyping)
	case model.EventStopTyping:
		e.handleTyping(conn, env.Data, model.EventPeerStoppedTyping)
	case model.EventMarkAsRead:
		e.handleMarkAsRead(conn, env.Data)
	default:
		slog.Debug("dropping unknown event", "conn_id", conn.ID(), "event", env.Event)
		e.metrics.recordDropped("unknown_event")
	}
}

func (e *Engine) handleJoinChat(conn Connection, data json.RawMessage) {
	var req model.JoinChat
	if err := json.Unmarshal(data, &req); err != nil || req.OtherUserID == "" {
		e.metrics.recordDropped("invalid_join")
		return
	}

	chatID := room.ID(conn.UserID(), req.OtherUserID)
	e.router.Join(conn, chatID)
	e.metrics.setActiveRooms(e.router.Rooms())

	slog.Info("joined chat", "user_id", conn.UserID(), "chat_id", chatID)

	if err := conn.Send(model.EventJoinedChat, model.JoinedChat{ChatID: chatID}); err != nil {
		slog.Debug("failed to confirm join", "conn_id", conn.ID(), "error", err)
	}
}

func (e *Engine) handleSendMessage(conn Connection, data json.RawMessage) {
	var req model.SendMessage
	if err := json.Unmarshal(data, &req); err != nil || req.ChatID == "" || req.Text == "" {
		e.metrics.recordDropped("invalid_message")
		return
	}

	out := model.ReceiveMessage{
		ChatID:    req.ChatID,
		SenderID:  conn.UserID(),
		Text:      e.sanitizer.Sanitize(req.Text),
		Timestamp: e.now().UTC(),
		MessageID: req.MessageID,
	}
	e.router.Route(req.ChatID, model.EventReceiveMessage, out, conn.ID())
	e.metrics.recordRouted(model.EventReceiveMessage)
}

func (e *Engine) handleTyping(conn Connection, data json.RawMessage, outEvent string) {
	var req model.TypingState
	if err := json.Unmarshal(data, &req); err != nil || req.ChatID == "" {
		e.metrics.recordDropped("invalid_typing")
		return
	}

	out := model.PeerTyping{ChatID: req.ChatID, UserID: conn.UserID()}
	e.router.Route(req.ChatID, outEvent, out, conn.ID())
	e.metrics.recordRouted(outEvent)
}

func (e *Engine) handleMarkAsRead(conn Connection, data json.RawMessage) {
	var req model.MarkAsRead
	if err := json.Unmarshal(data, &req); err != nil || req.ChatID == "" || len(req.MessageIDs) == 0 {
		e.metrics.recordDropped("invalid_read_receipt")
		return
	}

	out := model.MessagesRead{
		ChatID:     req.ChatID,
		MessageIDs: req.MessageIDs,
		ReadBy:     conn.UserID(),
		ReadAt:     e.now().UTC(),
	}
	e.router.Route(req.ChatID, model.EventMessagesRead, out, conn.ID())
	e.metrics.recordRouted(model.EventMessagesRead)
}

// broadcast sends an event to every open connection, the originator
// included; the presence feed is global rather than room-scoped.
func (e *Engine) broadcast(event string, data any) {
	e.mu.RLock()
	targets := make([]Connection, 0, len(e.conns))
	for _, conn := range e.conns {
		targets = append(targets, conn)
	}
	e.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.Send(event, data); err != nil {
			slog.Debug("dropping broadcast for slow connection",
				"conn_id", conn.ID(),
				"event", event,
				"error", err)
		}
	}
	e.metrics.recordRouted(event)
}

// Stats reports open connections, active rooms, and online users.
func (e *Engine) Stats() (conns, rooms, online int) {
	e.mu.RLock()
	conns = len(e.conns)
	e.mu.RUnlock()

	return conns, e.router.Rooms(), e.presence.OnlineCount()
}
