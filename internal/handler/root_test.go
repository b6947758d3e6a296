package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarity-platform/peer-relay/internal/model"
	"github.com/clarity-platform/peer-relay/internal/testutil"
)

func TestServeHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	ServeHealthz().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServeStats(t *testing.T) {
	server, engine := startRelay(t)

	conn, err := testutil.Dial(t, server.URL, testutil.MintToken(t, "u1"))
	require.NoError(t, err)
	testutil.WaitForPresence(t, conn, model.EventUserOnline, "u1")
	testutil.WriteEvent(t, conn, model.EventJoinChat, model.JoinChat{OtherUserID: "u2"})
	testutil.WaitFor(t, conn, model.EventJoinedChat, nil)

	rec := httptest.NewRecorder()
	ServeStats(engine).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body["connections"])
	assert.Equal(t, 1, body["rooms"])
	assert.Equal(t, 1, body["online"])
}
