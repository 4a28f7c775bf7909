package forward

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/questworld/questbot/internal/model/quest"
)

// fakeBackend is a minimal Socket.IO server: open packet, namespace ack, then
// it captures the first event frame it receives.
type fakeBackend struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	path   string
	query  string
	events []string
}

func (b *fakeBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.path = r.URL.Path
		b.query = r.URL.RawQuery
		b.mu.Unlock()

		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		open := `0{"sid":"abc123","upgrades":[],"pingInterval":25000,"pingTimeout":20000}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(open)); err != nil {
			t.Errorf("send open packet: %v", err)
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("read connect: %v", err)
			return
		}
		if string(msg) != "40" {
			t.Errorf("expected namespace connect, got %q", msg)
			return
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(`40{"sid":"abc123"}`)); err != nil {
			t.Errorf("send namespace ack: %v", err)
			return
		}

		_, event, err := conn.ReadMessage()
		if err != nil {
			return
		}
		b.mu.Lock()
		b.events = append(b.events, string(event))
		b.mu.Unlock()
	}
}

func (b *fakeBackend) firstEvent() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return "", false
	}
	return b.events[0], true
}

func TestSocketIOForwardEmitsSendLocation(t *testing.T) {
	backend := &fakeBackend{}
	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	forwarder, err := NewSocketIO(server.URL, quest.DisplayFieldUsername, 5*time.Second)
	if err != nil {
		t.Fatalf("NewSocketIO err: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload := quest.ForwardPayload{
		Latitude:    59.4370,
		Longitude:   24.7536,
		LivePeriod:  3600,
		Identity:    7,
		Quest:       "catch me if you can",
		DisplayName: "wanderer",
	}
	if err := forwarder.Forward(ctx, payload); err != nil {
		t.Fatalf("Forward err: %v", err)
	}

	backend.mu.Lock()
	path, query := backend.path, backend.query
	backend.mu.Unlock()
	if path != "/socket.io/" {
		t.Fatalf("dial path: %q", path)
	}
	if !strings.Contains(query, "EIO=4") || !strings.Contains(query, "transport=websocket") {
		t.Fatalf("dial query: %q", query)
	}

	// Forward returns once the event is written; give the backend goroutine a
	// moment to read and record it.
	var frame string
	var ok bool
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if frame, ok = backend.firstEvent(); ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !ok {
		t.Fatal("backend received no event")
	}
	if !strings.HasPrefix(frame, "42") {
		t.Fatalf("event frame prefix: %q", frame)
	}

	var event []json.RawMessage
	if err := json.Unmarshal([]byte(frame[2:]), &event); err != nil {
		t.Fatalf("decode event body: %v", err)
	}
	if len(event) != 2 {
		t.Fatalf("event arity: %d", len(event))
	}

	var name string
	if err := json.Unmarshal(event[0], &name); err != nil || name != SendLocationEvent {
		t.Fatalf("event name: %q (%v)", name, err)
	}

	var data map[string]any
	if err := json.Unmarshal(event[1], &data); err != nil {
		t.Fatalf("decode event data: %v", err)
	}
	if data["latitude"] != 59.4370 || data["longitude"] != 24.7536 {
		t.Fatalf("coordinates: %v %v", data["latitude"], data["longitude"])
	}
	if data["live_period"] != float64(3600) {
		t.Fatalf("live_period: %v", data["live_period"])
	}
	if data["user_id"] != float64(7) {
		t.Fatalf("user_id: %v", data["user_id"])
	}
	if data["quest"] != "catch me if you can" {
		t.Fatalf("quest: %v", data["quest"])
	}
	if data["username"] != "wanderer" {
		t.Fatalf("username: %v", data["username"])
	}
}

func TestSocketIOForwardUnreachableBackend(t *testing.T) {
	forwarder, err := NewSocketIO("http://127.0.0.1:1", quest.DisplayFieldUsername, time.Second)
	if err != nil {
		t.Fatalf("NewSocketIO err: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := forwarder.Forward(ctx, quest.ForwardPayload{Identity: 1}); err == nil {
		t.Fatal("expected dial error")
	}
}

type blockingForwarder struct {
	started chan struct{}
	release chan struct{}
}

func (f *blockingForwarder) Forward(_ context.Context, _ quest.ForwardPayload) error {
	close(f.started)
	<-f.release
	return nil
}

func TestAsyncForwardDoesNotBlockCaller(t *testing.T) {
	inner := &blockingForwarder{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	defer close(inner.release)

	async := NewAsync(inner, time.Second)

	done := make(chan struct{})
	go func() {
		if err := async.Forward(context.Background(), quest.ForwardPayload{Identity: 1}); err != nil {
			t.Errorf("Forward err: %v", err)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async forward blocked the caller")
	}

	select {
	case <-inner.started:
	case <-time.After(time.Second):
		t.Fatal("inner forward never dispatched")
	}
}

func TestWebsocketURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://localhost:3000", "ws://localhost:3000/socket.io/?EIO=4&transport=websocket"},
		{"https://quests.example.com", "wss://quests.example.com/socket.io/?EIO=4&transport=websocket"},
		{"ws://localhost:3000/", "ws://localhost:3000/socket.io/?EIO=4&transport=websocket"},
		{"localhost:3000", "ws://localhost:3000/socket.io/?EIO=4&transport=websocket"},
	}

	for _, tc := range cases {
		got, err := websocketURL(tc.in)
		if err != nil {
			t.Fatalf("websocketURL(%q) err: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("websocketURL(%q): got %q want %q", tc.in, got, tc.want)
		}
	}

	if _, err := websocketURL(""); err == nil {
		t.Fatal("expected error for empty address")
	}
	if _, err := websocketURL("ftp://example.com"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}
