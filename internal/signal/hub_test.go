package signal

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func newTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hub := NewHub(logger)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitForClients(t, hub, 1)
	return hub, conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading frame failed: %v", err)
	}
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decoding frame failed: %v", err)
	}
	return frame
}

func TestHubBroadcastReachesClient(t *testing.T) {
	hub, conn := newTestHub(t)

	hub.Broadcast(CartChanged)

	frame := readFrame(t, conn)
	if frame.Type != CartChanged {
		t.Fatalf("expected %s frame, got %s", CartChanged, frame.Type)
	}
	if frame.Timestamp == "" {
		t.Fatal("expected a timestamp on the frame")
	}
}

func TestHubRelaysBusSignals(t *testing.T) {
	hub, conn := newTestHub(t)

	bus := NewMemoryBus()
	hub.Attach(bus)
	defer hub.Detach()

	bus.Publish(CatalogChanged)

	frame := readFrame(t, conn)
	if frame.Type != CatalogChanged {
		t.Fatalf("expected %s frame, got %s", CatalogChanged, frame.Type)
	}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
