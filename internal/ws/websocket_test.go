package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kiliankoe/undercover/internal/config"
	"github.com/kiliankoe/undercover/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, cfg config.Config) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	hub := NewHub()
	srv := New(game.NewRoomManager(game.NewStore(), hub, hub), hub, cfg)
	srv.MountWebSocket(r, "/ws")
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, hub
}

func dial(t *testing.T, ts *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, typ string, data any) {
	t.Helper()
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, c.WriteJSON(frame{Type: typ, Data: b}))
}

func next(t *testing.T, c *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f frame
	require.NoError(t, c.ReadJSON(&f))
	return f
}

func TestWebSocketRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t, config.Config{})
	host := dial(t, ts, nil)

	send(t, host, "create_room", map[string]any{"playerName": "Alice"})
	created := next(t, host)
	require.Equal(t, "room_created", created.Type)
	var payload struct {
		RoomCode string `json:"roomCode"`
		PlayerID string `json:"playerId"`
		RoomID   string `json:"roomId"`
	}
	require.NoError(t, json.Unmarshal(created.Data, &payload))
	assert.Len(t, payload.RoomCode, 6)
	assert.NotEmpty(t, payload.PlayerID)

	state := next(t, host)
	require.Equal(t, "game_state", state.Type)
	var gs game.GameState
	require.NoError(t, json.Unmarshal(state.Data, &gs))
	assert.Equal(t, game.PhaseLobby, gs.Room.Phase)
	require.Len(t, gs.Players, 1)
	assert.True(t, gs.Players[0].IsHost)

	guest := dial(t, ts, nil)
	send(t, guest, "join_room", map[string]any{"roomCode": payload.RoomCode, "playerName": "Bob"})
	assert.Equal(t, "room_joined", next(t, guest).Type)
	assert.Equal(t, "game_state", next(t, guest).Type)
	assert.Equal(t, "player_joined", next(t, host).Type)
}

func TestWebSocketRejectsBadFrames(t *testing.T) {
	ts, _ := newTestServer(t, config.Config{})
	c := dial(t, ts, nil)

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("not json")))
	f := next(t, c)
	require.Equal(t, "error", f.Type)
	var e struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &e))
	assert.Equal(t, "Invalid message format", e.Message)

	// the connection survives a bad frame
	send(t, c, "create_room", map[string]any{"playerName": "Alice"})
	assert.Equal(t, "room_created", next(t, c).Type)
}

func TestWebSocketCheckOrigin(t *testing.T) {
	ts, _ := newTestServer(t, config.Config{AllowedOrigins: []string{"https://party.example"}})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	dial(t, ts, http.Header{"Origin": {"https://party.example"}})
}

func TestWebSocketDisconnectUnregisters(t *testing.T) {
	ts, hub := newTestServer(t, config.Config{})
	c := dial(t, ts, nil)
	send(t, c, "create_room", map[string]any{"playerName": "Alice"})
	next(t, c)
	var gs game.GameState
	require.NoError(t, json.Unmarshal(next(t, c).Data, &gs))
	require.Equal(t, 1, hub.RoomSize(gs.Room.ID))

	c.Close()
	assert.Eventually(t, func() bool { return hub.RoomSize(gs.Room.ID) == 0 }, 5*time.Second, 10*time.Millisecond)
}
