// Package testutil provides helpers for tests that drive a live relay
// server over real websocket connections.
package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/clarity-platform/peer-relay/internal/auth"
	"github.com/clarity-platform/peer-relay/internal/model"
	"github.com/clarity-platform/peer-relay/internal/relay"
)

// TokenSecret is the shared signing secret used by relay tests.
const TokenSecret = "relay-test-secret"

const eventWait = 5 * time.Second

// MintToken issues a short-lived token for the given user.
func MintToken(t *testing.T, userID string) string {
	t.Helper()

	token, err := auth.MakeJWT(userID, TokenSecret, 1*time.Minute)
	if err != nil {
		t.Fatalf("MakeJWT() error = %+v", err)
	}
	return token
}

// Dial opens a websocket connection to the relay under test, authenticating
// with the given token via the query parameter. The connection is closed on
// test cleanup.
func Dial(t *testing.T, serverURL, token string) (*websocket.Conn, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), eventWait)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, serverURL+"/ws?token="+token, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	t.Cleanup(func() {
		conn.CloseNow()
	})
	return conn, nil
}

// WriteEvent sends one enveloped event from the client side.
func WriteEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s payload: %+v", event, err)
	}
	frame, err := json.Marshal(model.Envelope{Event: event, Data: payload})
	if err != nil {
		t.Fatalf("marshal %s envelope: %+v", event, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventWait)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		t.Fatalf("write %s: %+v", event, err)
	}
}

// WaitFor reads events until one matches the given name (and the optional
// match predicate), skipping unrelated traffic such as presence broadcasts
// for other users. It fails the test if nothing matches in time.
func WaitFor(t *testing.T, conn *websocket.Conn, event string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), eventWait)
	defer cancel()

	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("waiting for %s: %+v", event, err)
		}

		var env model.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("waiting for %s: bad frame %q: %+v", event, raw, err)
		}

		if env.Event != event {
			continue
		}
		if match != nil && !match(env.Data) {
			continue
		}
		return env.Data
	}
}

// WaitForStats polls the engine until the open-connection count settles on
// want, so tests can order assertions around asynchronous teardown.
func WaitForStats(t *testing.T, engine *relay.Engine, want int) {
	t.Helper()

	deadline := time.Now().Add(eventWait)
	for time.Now().Before(deadline) {
		if conns, _, _ := engine.Stats(); conns == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	conns, _, _ := engine.Stats()
	t.Fatalf("engine never settled on %d connections, still at %d", want, conns)
}

// WaitForPresence waits for a userOnline/userOffline broadcast naming the
// given user.
func WaitForPresence(t *testing.T, conn *websocket.Conn, event, userID string) {
	t.Helper()

	WaitFor(t, conn, event, func(data json.RawMessage) bool {
		var change model.PresenceChange
		if err := json.Unmarshal(data, &change); err != nil {
			return false
		}
		return change.UserID == userID
	})
}
