package handler

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/clarity-platform/peer-relay/internal/auth"
	"github.com/clarity-platform/peer-relay/internal/relay"
)

// ServeWs upgrades an authenticated handshake and hands the connection to
// the relay engine. allowedOrigin restricts browser handshakes; an empty
// value disables the origin check for local development.
func ServeWs(engine *relay.Engine, allowedOrigin string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := auth.GetUserFromContext(ctx)
		if err != nil {
			slog.Warn("websocket upgrade without identity", "error", err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		opts := &websocket.AcceptOptions{}
		if allowedOrigin == "" {
			opts.InsecureSkipVerify = true
		} else {
			opts.OriginPatterns = []string{allowedOrigin}
		}

		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			slog.Warn("failed to upgrade connection", "remote_addr", r.RemoteAddr, "error", err)
			return
		}

		slog.Info("connection accepted", "user_id", userID)

		c := relay.NewConn(uuid.NewString(), userID, conn, engine)

		// Block on the connection's read loop: the request context is
		// canceled as soon as this handler returns.
		c.Run(ctx)
	}
}
