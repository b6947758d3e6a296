package internal

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clarity-platform/peer-relay/internal/auth"
	"github.com/clarity-platform/peer-relay/internal/relay"
)

// Middleware authenticates the connection handshake. The credential comes
// from the Authorization header or, for browser WebSocket clients that
// cannot set headers, the token query parameter. Failure closes the attempt
// with a bare 401: the reason is logged server-side and never sent to the
// peer, and the connection is never registered with the presence registry.
func Middleware(next http.Handler, tokenSecret string, metrics *relay.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}

		userID, err := auth.Verify(token, tokenSecret)
		if err != nil {
			slog.Warn("handshake rejected",
				"remote_addr", r.RemoteAddr,
				"error", err)
			metrics.RecordAuthFailure()
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		r = r.WithContext(context.WithValue(r.Context(), auth.UserIDKey, userID))
		next.ServeHTTP(w, r)
	}
}
