package handler

import (
	"encoding/json"
	"net/http"

	"github.com/clarity-platform/peer-relay/internal/relay"
)

// ServeRoot answers the platform's plain-text uptime probe.
func ServeRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("peer relay is running"))
	}
}

// ServeHealthz reports liveness as JSON.
func ServeHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// ServeStats exposes connection, room, and presence counts.
func ServeStats(engine *relay.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conns, rooms, online := engine.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"connections": conns,
			"rooms":       rooms,
			"online":      online,
		})
	}
}
