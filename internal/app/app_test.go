package app

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/controller"
	conninmemory "github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/connection/inmemory"
	roominmemory "github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/room/inmemory"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/service/proxy"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/service/room"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	roomRepo := roominmemory.NewRepo(100)
	connRepo := conninmemory.NewRepo()
	roomService := room.NewService(roomRepo, connRepo, nil, nil)
	proxyService := proxy.NewService()

	c := controller.NewController(roomService, proxyService, nil, slog.Default())
	srv := httptest.NewServer(c.GetRouter())
	t.Cleanup(srv.Close)

	return srv
}

func dialParty(t *testing.T, srv *httptest.Server, roomId string) *websocket.Conn {
	t.Helper()

	wsUrl := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/party/" + roomId
	conn, _, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, message map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(message))
}

func recv(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var message map[string]any
	require.NoError(t, json.Unmarshal(data, &message))

	return message
}

func TestPartySession(t *testing.T) {
	srv := newTestServer(t)

	alice := dialParty(t, srv, "room-1")
	send(t, alice, map[string]any{"type": "join", "username": "alice", "avatar": "🍿"})

	state := recv(t, alice)
	require.Equal(t, "room_state", state["type"])
	assert.Equal(t, "room-1", state["room_id"])
	assert.Equal(t, false, state["is_playing"])
	assert.Len(t, state["users"], 1)

	bob := dialParty(t, srv, "room-1")
	send(t, bob, map[string]any{"type": "join", "username": "bob"})

	bobState := recv(t, bob)
	require.Equal(t, "room_state", bobState["type"])
	assert.Len(t, bobState["users"], 2)

	joined := recv(t, alice)
	require.Equal(t, "user_joined", joined["type"])
	assert.Equal(t, "bob", joined["username"])
	assert.Len(t, joined["users"], 2)

	// bob plays; alice gets the sync, bob does not hear his own input
	send(t, bob, map[string]any{"type": "play", "time": 10.0})

	sync := recv(t, alice)
	require.Equal(t, "sync", sync["type"])
	assert.Equal(t, true, sync["is_playing"])
	assert.InDelta(t, 10.0, sync["current_time"], 0.01)
	assert.Equal(t, "bob", sync["triggered_by"])

	// chat reaches everyone, sender included
	send(t, alice, map[string]any{"type": "chat", "message": "selam"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		chat := recv(t, conn)
		require.Equal(t, "chat", chat["type"])
		assert.Equal(t, "alice", chat["username"])
		assert.Equal(t, "selam", chat["message"])
		assert.NotZero(t, chat["timestamp"])
	}

	// ping is answered directly
	send(t, bob, map[string]any{"type": "ping", "current_time": 12.5})
	pong := recv(t, bob)
	assert.Equal(t, "pong", pong["type"])

	// bob leaves; alice is told
	bob.Close()

	left := recv(t, alice)
	require.Equal(t, "user_left", left["type"])
	assert.Equal(t, "bob", left["username"])
	assert.Len(t, left["users"], 1)
}

func TestBufferingPausesAndResumes(t *testing.T) {
	srv := newTestServer(t)

	alice := dialParty(t, srv, "buffer-room")
	send(t, alice, map[string]any{"type": "join", "username": "alice"})
	recv(t, alice)

	bob := dialParty(t, srv, "buffer-room")
	send(t, bob, map[string]any{"type": "join", "username": "bob"})
	recv(t, bob)
	recv(t, alice)

	send(t, alice, map[string]any{"type": "play", "time": 0.0})
	recv(t, bob)

	send(t, bob, map[string]any{"type": "buffer_start"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		sync := recv(t, conn)
		require.Equal(t, "sync", sync["type"])
		assert.Equal(t, false, sync["is_playing"])
		assert.Equal(t, "bob (Buffering...)", sync["triggered_by"])
	}

	send(t, bob, map[string]any{"type": "buffer_end"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		sync := recv(t, conn)
		require.Equal(t, "sync", sync["type"])
		assert.Equal(t, true, sync["is_playing"])
		assert.Equal(t, "System (Buffering Complete)", sync["triggered_by"])
	}
}

func TestRoomStateSnapshotIsFlat(t *testing.T) {
	srv := newTestServer(t)

	alice := dialParty(t, srv, "flat-room")
	send(t, alice, map[string]any{"type": "join", "username": "alice"})
	recv(t, alice)

	send(t, alice, map[string]any{
		"type":         "video_change",
		"url":          "https://cdn.example.com/film/master.m3u8",
		"title":        "Film Gecesi",
		"user_agent":   "kekik-ua",
		"subtitle_url": "https://cdn.example.com/film/tr.srt",
	})
	recv(t, alice) // video_changed

	send(t, alice, map[string]any{"type": "chat", "message": "tarihe not"})
	recv(t, alice) // chat

	bob := dialParty(t, srv, "flat-room")
	send(t, bob, map[string]any{"type": "join", "username": "bob"})

	state := recv(t, bob)
	require.Equal(t, "room_state", state["type"])

	// the snapshot is flat: video_* fields next to the discriminator,
	// never a nested video object
	assert.Equal(t, "https://cdn.example.com/film/master.m3u8", state["video_url"])
	assert.Equal(t, "Film Gecesi", state["video_title"])
	assert.Equal(t, "hls", state["video_format"])
	assert.Equal(t, "https://cdn.example.com/film/tr.srt", state["subtitle_url"])
	assert.NotContains(t, state, "video")
	assert.NotContains(t, state, "chat_log")

	headers, ok := state["headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "kekik-ua", headers["User-Agent"])

	messages, ok := state["chat_messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	first := messages[0].(map[string]any)
	assert.Equal(t, "alice", first["username"])
	assert.Equal(t, "tarihe not", first["message"])
}

func TestUnknownMessageType(t *testing.T) {
	srv := newTestServer(t)

	conn := dialParty(t, srv, "room-x")
	send(t, conn, map[string]any{"type": "join"})

	state := recv(t, conn)
	require.Equal(t, "room_state", state["type"])
	users := state["users"].([]any)
	username := users[0].(map[string]any)["username"]
	assert.Equal(t, "Misafir-room", username)

	send(t, conn, map[string]any{"type": "explode"})

	reply := recv(t, conn)
	assert.Equal(t, "error", reply["type"])
	assert.Contains(t, reply["message"], "unknown message type")
}

func TestActionBeforeJoin(t *testing.T) {
	srv := newTestServer(t)

	conn := dialParty(t, srv, "room-y")
	send(t, conn, map[string]any{"type": "play", "time": 1.0})

	reply := recv(t, conn)
	assert.Equal(t, "error", reply["type"])
}

func TestVideoChangeRequiresUrl(t *testing.T) {
	srv := newTestServer(t)

	conn := dialParty(t, srv, "room-z")
	send(t, conn, map[string]any{"type": "join", "username": "alice"})
	recv(t, conn)

	send(t, conn, map[string]any{"type": "video_change"})

	reply := recv(t, conn)
	assert.Equal(t, "error", reply["type"])
}

func TestConfigValidate(t *testing.T) {
	cfg := &AppConfig{Port: 8000, ChatHistoryLimit: 100, YtdlpTimeout: 30}
	assert.NoError(t, cfg.Validate())

	cfg.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Port = 8000
	cfg.YtdlpTimeout = 0
	assert.Error(t, cfg.Validate())
}
