package relay

import (
	"log/slog"
	"sync"
)

// Router tracks which connections are subscribed to which rooms. Rooms are
// not stored entities: one exists exactly as long as a connection references
// its identifier. The router does not check that a subscriber is one of the
// two users a room identifier was derived from; rooms are only ever joined
// through an explicit joinChat naming a specific peer, and that access
// pattern is the trust boundary.
type Router struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]Connection
	joined map[string]map[string]struct{}
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{
		rooms:  make(map[string]map[string]Connection),
		joined: make(map[string]map[string]struct{}),
	}
}

// Join subscribes a connection to a room. Joining a room the connection is
// already in is a no-op; a connection may be in any number of rooms at once.
func (rt *Router) Join(conn Connection, roomID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	members, ok := rt.rooms[roomID]
	if !ok {
		members = make(map[string]Connection)
		rt.rooms[roomID] = members
	}
	members[conn.ID()] = conn

	joined, ok := rt.joined[conn.ID()]
	if !ok {
		joined = make(map[string]struct{})
		rt.joined[conn.ID()] = joined
	}
	joined[roomID] = struct{}{}
}

// Route delivers an event to every connection subscribed to the room except
// the one identified by exceptConnID. A room with no other members is not an
// error; the event is simply delivered to no one.
func (rt *Router) Route(roomID, event string, data any, exceptConnID string) int {
	rt.mu.RLock()
	targets := make([]Connection, 0, len(rt.rooms[roomID]))
	for id, conn := range rt.rooms[roomID] {
		if id == exceptConnID {
			continue
		}
		targets = append(targets, conn)
	}
	rt.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(event, data); err != nil {
			slog.Debug("dropping event for slow connection",
				"conn_id", conn.ID(),
				"event", event,
				"error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Drop discards every room subscription held by the connection. Membership
// is connection-scoped, so this is part of teardown; no explicit leave event
// exists in the protocol.
func (rt *Router) Drop(conn Connection) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	for roomID := range rt.joined[conn.ID()] {
		members := rt.rooms[roomID]
		delete(members, conn.ID())
		if len(members) == 0 {
			delete(rt.rooms, roomID)
		}
	}
	delete(rt.joined, conn.ID())
}

// Rooms returns the number of rooms with at least one subscriber.
func (rt *Router) Rooms() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	return len(rt.rooms)
}
