package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-desk/internal/cue"
	"github.com/nerrad567/gray-logic-desk/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-desk/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-desk/internal/playback"
)

// ─── Hub Tests ─────────────────────────────────────────────────────

func testHub(t *testing.T) *Hub {
	t.Helper()
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	hub := NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHub_BroadcastToSubscribed(t *testing.T) {
	hub := testHub(t)

	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: map[string]struct{}{playback.EventCueGo: {}},
	}
	hub.Register(client)

	hub.Broadcast(playback.EventCueGo, map[string]any{"cue_list": 1, "cue": 3})

	select {
	case msg := <-client.send:
		var wsMsg WSMessage
		if err := json.Unmarshal(msg, &wsMsg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if wsMsg.Type != WSTypeEvent {
			t.Errorf("type = %q, want %q", wsMsg.Type, WSTypeEvent)
		}
		if wsMsg.EventType != playback.EventCueGo {
			t.Errorf("event_type = %q, want %q", wsMsg.EventType, playback.EventCueGo)
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for broadcast message")
	}
}

func TestHub_NoMessageForUnsubscribed(t *testing.T) {
	hub := testHub(t)

	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: map[string]struct{}{playback.EventCueGo: {}},
	}
	hub.Register(client)

	hub.Broadcast(playback.EventUniverseFrame, map[string]any{"tick": 1})

	select {
	case <-client.send:
		t.Error("unsubscribed client should not receive message")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := testHub(t)

	if hub.ClientCount() != 0 {
		t.Errorf("initial client count = %d, want 0", hub.ClientCount())
	}

	client := newWSClient(hub, nil)
	hub.Register(client)
	if hub.ClientCount() != 1 {
		t.Errorf("after register count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("after unregister count = %d, want 0", hub.ClientCount())
	}

	// A second unregister must not close the send channel again.
	hub.Unregister(client)
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := testHub(t)

	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, 1),
		subscriptions: map[string]struct{}{playback.EventUniverseFrame: {}},
	}
	hub.Register(client)

	done := make(chan struct{})
	go func() {
		for i := range 10 {
			hub.Broadcast(playback.EventUniverseFrame, map[string]any{"tick": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full client buffer")
	}
	if n := len(client.send); n != 1 {
		t.Errorf("buffered messages = %d, want 1", n)
	}
}

func TestNewWSClient_DefaultSubscriptions(t *testing.T) {
	hub := testHub(t)
	client := newWSClient(hub, nil)

	for _, ch := range []string{
		playback.EventUniverseFrame,
		playback.EventCueGo,
		playback.EventCueRelease,
		playback.EventCueComplete,
		playback.EventPolicyChanged,
	} {
		if !client.isSubscribed(ch) {
			t.Errorf("new client not subscribed to %q", ch)
		}
	}
	if client.isSubscribed("device.state_changed") {
		t.Error("new client subscribed to an unknown channel")
	}
}

// ─── WebSocket Connection Tests ────────────────────────────────────

// wsEvent is a received WebSocket message with a raw payload.
type wsEvent struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// startWebSocket starts a real listener and connects one client. It returns
// once the hub has registered the client and its snapshot has been read.
func startWebSocket(t *testing.T) (*testRig, *websocket.Conn) {
	t.Helper()
	rig, ws, _ := dialWebSocket(t, testServer(t))
	return rig, ws
}

// dialWebSocket connects to rig and returns the snapshot sent on connect.
func dialWebSocket(t *testing.T, rig *testRig) (*testRig, *websocket.Conn, snapshotPayload) {
	t.Helper()

	if err := rig.srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(func() { rig.srv.Close() })

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+rig.srv.Addr()+"/api/v1/ws", nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for rig.hub.ClientCount() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first wsEvent
	if err := ws.ReadJSON(&first); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if first.Type != WSTypeEvent || first.EventType != EventSnapshot {
		t.Fatalf("first message = %+v, want %s event", first, EventSnapshot)
	}
	var snap snapshotPayload
	if err := json.Unmarshal(first.Payload, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return rig, ws, snap
}

func TestWebSocket_SnapshotOnConnect(t *testing.T) {
	rig := testServer(t)
	ctx := context.Background()

	if w := rig.do(t, http.MethodPut, "/api/v1/cuelists/1", listOneDoc); w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", w.Code)
	}
	// Cue 1 snaps channel 1 to 200; cue 2 is left fading.
	if _, err := rig.engine.Go(ctx, 1, 1); err != nil {
		t.Fatalf("Go(1) error: %v", err)
	}
	rig.tick(t, 1)
	if _, err := rig.engine.Go(ctx, 1, 2); err != nil {
		t.Fatalf("Go(2) error: %v", err)
	}
	rig.engine.SetPolicy(cue.LTP)

	_, _, snap := dialWebSocket(t, rig)

	if snap.Tick != 1 {
		t.Errorf("snapshot tick = %d, want 1", snap.Tick)
	}
	if snap.Policy != "ltp" {
		t.Errorf("snapshot policy = %q, want ltp", snap.Policy)
	}
	if len(snap.Running) != 1 || snap.Running[0].Cue != 2 {
		t.Errorf("snapshot running = %+v, want cue 2", snap.Running)
	}

	channels := snap.Channels
	if len(channels) != testUniverseSize {
		t.Fatalf("snapshot has %d channels, want %d", len(channels), testUniverseSize)
	}
	if channels[0] != (cue.Channel{ID: 1, Value: 200}) {
		t.Errorf("channel 1 = %+v, want {1 200}", channels[0])
	}
}

// readUntil reads messages until one with the given event type arrives.
// It returns the messages skipped on the way.
func readUntil(t *testing.T, ws *websocket.Conn, eventType string) (wsEvent, []wsEvent) {
	t.Helper()

	var skipped []wsEvent
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg wsEvent
		if err := ws.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q: %v (skipped %+v)", eventType, err, skipped)
		}
		if msg.EventType == eventType {
			return msg, skipped
		}
		skipped = append(skipped, msg)
	}
}

func TestWebSocket_UniverseFrame(t *testing.T) {
	rig, ws := startWebSocket(t)
	ctx := context.Background()

	c := cue.NewCue(1, 0)
	if err := c.AddChannel(4, 60); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	if err := rig.shows.SaveCue(ctx, 1, c); err != nil {
		t.Fatalf("SaveCue: %v", err)
	}
	if _, err := rig.engine.Go(ctx, 1, 1); err != nil {
		t.Fatalf("Go() error: %v", err)
	}
	if err := rig.engine.Tick(ctx); err != nil {
		t.Fatalf("Tick() error: %v", err)
	}

	msg, _ := readUntil(t, ws, playback.EventUniverseFrame)
	if msg.Type != WSTypeEvent {
		t.Errorf("type = %q, want event", msg.Type)
	}

	var frame struct {
		Universe uint16        `json:"universe"`
		Tick     uint64        `json:"tick"`
		Channels []cue.Channel `json:"channels"`
	}
	if err := json.Unmarshal(msg.Payload, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Tick != 1 {
		t.Errorf("frame tick = %d, want 1", frame.Tick)
	}
	if len(frame.Channels) != 1 || frame.Channels[0] != (cue.Channel{ID: 4, Value: 60}) {
		t.Errorf("frame channels = %+v, want [{4 60}]", frame.Channels)
	}

	readUntil(t, ws, playback.EventCueComplete)
}

func TestWebSocket_Unsubscribe(t *testing.T) {
	rig, ws := startWebSocket(t)
	ctx := context.Background()

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeUnsubscribe,
		ID:      "unsub-1",
		Payload: WSSubscribePayload{Channels: []string{playback.EventUniverseFrame}},
	}); err != nil {
		t.Fatalf("write unsubscribe: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read unsubscribe response: %v", err)
	}
	if resp.Type != WSTypeResponse || resp.ID != "unsub-1" {
		t.Fatalf("response = %+v, want response unsub-1", resp)
	}

	c := cue.NewCue(1, 0)
	if err := c.AddChannel(1, 255); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	if err := rig.shows.SaveCue(ctx, 1, c); err != nil {
		t.Fatalf("SaveCue: %v", err)
	}
	if _, err := rig.engine.Go(ctx, 1, 1); err != nil {
		t.Fatalf("Go() error: %v", err)
	}
	if err := rig.engine.Tick(ctx); err != nil {
		t.Fatalf("Tick() error: %v", err)
	}

	// The frame is broadcast before the completion event, so it would have
	// been skipped on the way to cue.complete.
	_, skipped := readUntil(t, ws, playback.EventCueComplete)
	for _, msg := range skipped {
		if msg.EventType == playback.EventUniverseFrame {
			t.Error("received universe.frame after unsubscribing")
		}
	}
}

func TestWebSocket_Subscribe(t *testing.T) {
	rig, ws := startWebSocket(t)

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{"test.channel"}},
	}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read subscribe response: %v", err)
	}
	if resp.Type != WSTypeResponse || resp.ID != "sub-1" {
		t.Fatalf("response = %+v, want response sub-1", resp)
	}

	rig.hub.Broadcast("test.channel", map[string]string{"key": "value"})

	msg, _ := readUntil(t, ws, "test.channel")
	if msg.Type != WSTypeEvent {
		t.Errorf("broadcast type = %q, want event", msg.Type)
	}
}

func TestWebSocket_Ping(t *testing.T) {
	_, ws := startWebSocket(t)

	if err := ws.WriteJSON(WSMessage{Type: WSTypePing, ID: "ping-1"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if resp.Type != WSTypePong {
		t.Errorf("response type = %s, want pong", resp.Type)
	}
	if resp.ID != "ping-1" {
		t.Errorf("response ID = %s, want ping-1", resp.ID)
	}
}

func TestWebSocket_BadMessages(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid JSON", "not json"},
		{"unknown type", `{"type": "blackout", "id": "x"}`},
		{"bad subscribe payload", `{"type": "subscribe", "id": "x", "payload": {"channels": "all"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ws := startWebSocket(t)

			if err := ws.WriteMessage(websocket.TextMessage, []byte(tt.data)); err != nil {
				t.Fatalf("write: %v", err)
			}
			ws.SetReadDeadline(time.Now().Add(2 * time.Second))
			var resp WSMessage
			if err := ws.ReadJSON(&resp); err != nil {
				t.Fatalf("read error response: %v", err)
			}
			if resp.Type != WSTypeError {
				t.Errorf("response type = %s, want error", resp.Type)
			}
		})
	}
}

func TestWebSocket_ClosedOnShutdown(t *testing.T) {
	rig, ws := startWebSocket(t)

	// Closing the hub's context disconnects clients.
	rig.hub.closeAll()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("read succeeded after hub closed all clients")
	}
}
