package server_test

import (
	"chat-hub/infrastructure/http/server"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	fastws "github.com/fasthttp/websocket"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Event string         `json:"event"`
	ID    *int64         `json:"id,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

func startServer(t *testing.T) (string, *runtime.Orchestrator) {
	t.Helper()
	return startServerWith(t, server.Config{
		AllowedOrigins:       "*",
		MaxMessageSize:       4096,
		RateLimitPerSecond:   100,
		RateLimitBurst:       100,
		ConnectionBufferSize: 64,
		WriteTimeout:         time.Second,
	})
}

func startServerWith(t *testing.T, cfg server.Config) (string, *runtime.Orchestrator) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)

	orchestrator, err := runtime.NewOrchestrator(logger, db, workers.NewSupervisor(logger, 0), runtime.OrchestratorConfig{
		BufferSize:  100,
		SinkTimeout: time.Second,
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		orchestrator.Start(ctx)
		close(stopped)
	}()

	app := server.NewApp(logger, services.NewChatService(orchestrator), cfg)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(listener) }()

	t.Cleanup(func() {
		_ = app.Shutdown()
		cancel()
		<-stopped
		_ = orchestrator.Close()
		_ = db.Close()
	})
	return listener.Addr().String(), orchestrator
}

func dial(t *testing.T, addr string) *fastws.Conn {
	t.Helper()
	conn, _, err := fastws.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *fastws.Conn, event string, id int64, data map[string]any) {
	t.Helper()
	out := frame{Event: event, Data: data}
	if id > 0 {
		out.ID = &id
	}
	require.NoError(t, conn.WriteJSON(out))
}

// expect reads frames until one named event shows up.
func expect(t *testing.T, conn *fastws.Conn, event string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var in frame
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", event)
		require.NoError(t, json.Unmarshal(raw, &in))
		if in.Event == event {
			return in
		}
	}
}

func login(t *testing.T, conn *fastws.Conn, username string) {
	t.Helper()
	send(t, conn, "setUsername", 1, map[string]any{"username": username})
	ack := expect(t, conn, "ack")
	require.Equal(t, true, ack.Data["success"], "login %s", username)
}

func TestWebSocket_SetUsername_Ack(t *testing.T) {
	req := require.New(t)
	addr, _ := startServer(t)
	alice := dial(t, addr)
	impostor := dial(t, addr)

	login(t, alice, "Alice")

	send(t, impostor, "setUsername", 7, map[string]any{"username": "Alice"})
	ack := expect(t, impostor, "ack")
	req.Equal(int64(7), *ack.ID)
	req.Equal(false, ack.Data["success"])
	req.Equal("Username already in use", ack.Data["message"])

	send(t, impostor, "setUsername", 8, map[string]any{"username": ""})
	ack = expect(t, impostor, "ack")
	req.Equal("Username is required", ack.Data["message"])
}

func TestWebSocket_Join_And_Broadcast(t *testing.T) {
	req := require.New(t)
	addr, orchestrator := startServer(t)
	_, err := orchestrator.Directory().Create("general", false, nil)
	req.NoError(err)

	alice := dial(t, addr)
	bob := dial(t, addr)
	login(t, alice, "Alice")
	login(t, bob, "Bob")

	send(t, alice, "joinChannel", 2, map[string]any{"username": "Alice", "channelName": "general"})
	notice := expect(t, alice, "message")
	req.Equal("System", notice.Data["sender"])
	req.Equal("Alice has joined the channel", notice.Data["text"])

	send(t, bob, "joinChannel", 2, map[string]any{"username": "Bob", "channelName": "general"})
	notice = expect(t, alice, "message")
	req.Equal("Bob has joined the channel", notice.Data["text"])

	send(t, bob, "sendMessage", 0, map[string]any{"sender": "Bob", "text": "hello", "channel": "general"})
	message := expect(t, alice, "message")
	req.Equal("Bob", message.Data["sender"])
	req.Equal("hello", message.Data["text"])
	req.Equal("general", message.Data["channel"])
}

func TestWebSocket_Private_Message_Invites_Recipient(t *testing.T) {
	req := require.New(t)
	addr, _ := startServer(t)
	alice := dial(t, addr)
	bob := dial(t, addr)
	login(t, alice, "Alice")
	login(t, bob, "Bob")

	send(t, bob, "privateMessage", 0, map[string]any{"sender": "Bob", "recipient": "Alice", "text": "psst"})

	invite := expect(t, alice, "joinChannel")
	req.Equal("Alice", invite.Data["username"])
	req.Equal("Alice-Bob", invite.Data["channelName"])
	message := expect(t, alice, "message")
	req.Equal(true, message.Data["isPrivate"])
	req.Equal("psst", message.Data["text"])
	mine := expect(t, bob, "message")
	req.Equal("Alice-Bob", mine.Data["channel"])
}

func TestWebSocket_Disconnect_Notifies_Everyone(t *testing.T) {
	req := require.New(t)
	addr, orchestrator := startServer(t)
	_, err := orchestrator.Directory().Create("general", false, nil)
	req.NoError(err)
	alice := dial(t, addr)
	bob := dial(t, addr)
	login(t, alice, "Alice")
	login(t, bob, "Bob")
	send(t, alice, "joinChannel", 2, map[string]any{"username": "Alice", "channelName": "general"})
	send(t, bob, "joinChannel", 2, map[string]any{"username": "Bob", "channelName": "general"})
	expect(t, bob, "ack")

	// When Alice's transport goes away
	req.NoError(alice.Close())

	// Then Bob sees the notice, then the global departure
	notice := expect(t, bob, "message")
	for notice.Data["text"] != "Alice has disconnected" {
		notice = expect(t, bob, "message")
	}
	gone := expect(t, bob, "userDisconnected")
	req.Equal("Alice", gone.Data["username"])

	req.Eventually(func() bool {
		members, err := orchestrator.Directory().Members("general")
		return err == nil && len(members) == 1 && members[0] == "Bob"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocket_Private_Join_Refused(t *testing.T) {
	req := require.New(t)
	addr, orchestrator := startServer(t)
	_, err := orchestrator.Directory().GetOrCreatePrivateChannel("Alice", "Bob")
	req.NoError(err)
	carol := dial(t, addr)
	login(t, carol, "Carol")

	send(t, carol, "joinChannel", 3, map[string]any{"username": "Carol", "channelName": "Alice-Bob"})

	ack := expect(t, carol, "ack")
	req.Equal(false, ack.Data["success"])
	req.Equal("Access denied: Private channel", ack.Data["message"])
}

func TestWebSocket_Rate_Limited_Frames_Are_Refused(t *testing.T) {
	req := require.New(t)

	// Given a server allowing a single frame per connection
	addr, _ := startServerWith(t, server.Config{
		AllowedOrigins:       "*",
		RateLimitPerSecond:   0.001,
		RateLimitBurst:       1,
		ConnectionBufferSize: 8,
		WriteTimeout:         time.Second,
	})
	conn := dial(t, addr)

	// When two frames are sent back to back
	send(t, conn, "setUsername", 1, map[string]any{"username": "Alice"})
	send(t, conn, "setUsername", 2, map[string]any{"username": "Bob"})

	// Then only the first one is handled
	first := expect(t, conn, "ack")
	req.Equal(int64(1), *first.ID)
	req.Equal(true, first.Data["success"])
	second := expect(t, conn, "ack")
	req.Equal(int64(2), *second.ID)
	req.Equal(false, second.Data["success"])
	req.Equal("rate limit exceeded", second.Data["message"])
}

func TestWebSocket_Zero_Burst_Still_Lets_Frames_Through(t *testing.T) {
	req := require.New(t)

	// Given a rate limit configured without burst
	addr, _ := startServerWith(t, server.Config{
		AllowedOrigins:       "*",
		RateLimitPerSecond:   0.001,
		RateLimitBurst:       0,
		ConnectionBufferSize: 8,
		WriteTimeout:         time.Second,
	})
	conn := dial(t, addr)

	// When a first frame is sent
	send(t, conn, "setUsername", 1, map[string]any{"username": "Alice"})

	// Then it is handled
	ack := expect(t, conn, "ack")
	req.Equal(int64(1), *ack.ID)
	req.Equal(true, ack.Data["success"])
}
