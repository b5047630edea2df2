package sink_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rootcastleco/EchoTrace/internal/sink"
)

// --- helpers ----------------------------------------------------------------

// startHub starts a test HTTP server with the hub as its handler.
// The hub's Run loop is started with a cancellable context.
// Returns the ws:// URL, the hub, and a cancel function.
func startHub(t *testing.T) (wsURL string, hub *sink.Hub, cancel func()) {
	t.Helper()

	hub = sink.NewHub(44100)
	ctx, cancelFn := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancelFn()
		srv.Close()
	})

	wsURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	return wsURL, hub, cancelFn
}

// dial connects a WebSocket client to wsURL and returns the connection.
func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMessage reads one message from conn with a short deadline.
func readMessage(t *testing.T, conn *websocket.Conn) (int, []byte) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	typ, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return typ, msg
}

// waitForClients polls until the hub reports n connected clients.
func waitForClients(t *testing.T, hub *sink.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Count() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Count: got %d, want %d", hub.Count(), n)
}

// --- tests ------------------------------------------------------------------

func TestHub_Connect_ReceivesFormatEnvelope(t *testing.T) {
	wsURL, _, _ := startHub(t)

	conn := dial(t, wsURL)
	typ, msg := readMessage(t, conn)
	if typ != websocket.TextMessage {
		t.Fatalf("first message type = %d, want text", typ)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(msg, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["event"] != "format" {
		t.Errorf("event: got %v, want format", m["event"])
	}
	if m["sample_rate"] != float64(44100) {
		t.Errorf("sample_rate: got %v, want 44100", m["sample_rate"])
	}
	if m["encoding"] != "pcm_s16le" {
		t.Errorf("encoding: got %v, want pcm_s16le", m["encoding"])
	}
}

func TestHub_WriteBroadcastsBinaryFrame(t *testing.T) {
	wsURL, hub, _ := startHub(t)

	conn := dial(t, wsURL)
	readMessage(t, conn) // consume format envelope
	waitForClients(t, hub, 1)

	if err := hub.Write(44100, []float64{0, 0.5, -0.5, 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	typ, frame := readMessage(t, conn)
	if typ != websocket.BinaryMessage {
		t.Fatalf("frame type = %d, want binary", typ)
	}
	if len(frame) != 8 {
		t.Errorf("frame length = %d, want 8 (4 samples × 2 bytes)", len(frame))
	}
}

func TestHub_AllClientsReceiveFrame(t *testing.T) {
	wsURL, hub, _ := startHub(t)

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i] = dial(t, wsURL)
		readMessage(t, conns[i]) // consume format envelope
	}
	waitForClients(t, hub, 3)

	if err := hub.Write(44100, []float64{0.1, 0.2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for i, conn := range conns {
		typ, frame := readMessage(t, conn)
		if typ != websocket.BinaryMessage || len(frame) != 4 {
			t.Errorf("client %d: type %d len %d, want binary len 4", i, typ, len(frame))
		}
	}
}

func TestHub_WriteWithNoClientsIsNoOp(t *testing.T) {
	hub := sink.NewHub(44100)
	if err := hub.Write(44100, []float64{0.1}); err != nil {
		t.Errorf("Write with no clients: %v", err)
	}
}

func TestHub_CountDecreasesOnDisconnect(t *testing.T) {
	wsURL, hub, _ := startHub(t)

	conn := dial(t, wsURL)
	readMessage(t, conn)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_CancelContextClosesConnections(t *testing.T) {
	wsURL, hub, cancel := startHub(t)

	conn := dial(t, wsURL)
	readMessage(t, conn)
	waitForClients(t, hub, 1)

	cancel() // signal shutdown
	waitForClients(t, hub, 0)
}

func TestHub_NonWebSocketRequest_Returns400(t *testing.T) {
	hub := sink.NewHub(44100)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}
