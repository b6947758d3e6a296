// Package presence tracks which users are online and through which
// connections. A user may hold several connections at once (multiple tabs);
// online status is derived from the size of that set.
package presence

import "sync"

// Registry maps a user identity to the set of connection IDs currently open
// for it. The set mutation and the emptiness check happen under one lock, so
// the online/offline transition is reported exactly once per true
// transition, even under concurrent connect/disconnect storms for the same
// user.
type Registry struct {
	mu    sync.Mutex
	users map[string]map[string]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]map[string]struct{}),
	}
}

// Register records connID as open for userID and reports whether the user
// transitioned from offline to online.
func (r *Registry) Register(userID, connID string) (cameOnline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.users[userID]
	if !ok {
		conns = make(map[string]struct{})
		r.users[userID] = conns
	}

	cameOnline = len(conns) == 0
	conns[connID] = struct{}{}
	return cameOnline
}

// Unregister removes connID from the user's connection set and reports
// whether the user transitioned from online to offline. Unregistering a
// connection that was never registered, or twice, is a no-op.
func (r *Registry) Unregister(userID, connID string) (wentOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.users[userID]
	if !ok {
		return false
	}

	if _, ok := conns[connID]; !ok {
		return false
	}

	delete(conns, connID)
	if len(conns) > 0 {
		return false
	}

	delete(r.users, userID)
	return true
}

// IsOnline reports whether the user has at least one open connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.users[userID]) > 0
}

// OnlineCount returns the number of distinct users currently online.
func (r *Registry) OnlineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.users)
}
