package sink

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rootcastleco/EchoTrace/internal/wav"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing frame buffer depth.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	// Allow all origins — callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// format is the JSON envelope sent once on connect so listeners know how to
// interpret the binary frames that follow.
type format struct {
	Event      string `json:"event"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Bits       int    `json:"bits"`
	Encoding   string `json:"encoding"`
}

// Hub streams the live audio feed to WebSocket clients. Each rendered slice
// is quantized to 16-bit PCM and broadcast as one binary frame. Clients that
// cannot keep up are disconnected rather than allowed to stall the renderer.
//
// Locking discipline: send channels are written and closed only while mu is
// held, so a client disconnect or a shutdown on another goroutine can never
// race a broadcast into a closed channel.
type Hub struct {
	sampleRate int

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket listener.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a Hub for an audio stream at sampleRate.
func NewHub(sampleRate int) *Hub {
	return &Hub{
		sampleRate: sampleRate,
		clients:    make(map[*client]struct{}),
	}
}

// Run blocks until ctx is cancelled, then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// The stream format envelope is sent immediately on connect, followed by
// binary PCM frames as slices are rendered. Blocks until the connection
// closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	h.register(c)
	defer h.unregister(c)

	go c.writePump(h.formatMessage())
	c.readPump() // blocks until connection closes
}

// Write implements Sink. It fans the slice out to every connected client as
// one binary frame. A hub with no listeners is a cheap no-op. The sends are
// non-blocking, so holding mu across the loop is cheap and keeps them ordered
// against unregister/closeAll on other goroutines.
func (h *Hub) Write(sampleRate int, samples []float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return nil
	}

	frame := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(frame[i*2:], uint16(wav.Quantize(v)))
	}

	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			// Client's outgoing buffer is full — disconnect it.
			delete(h.clients, c)
			close(c.send)
		}
	}
	return nil
}

// Close implements Sink. It disconnects all clients.
func (h *Hub) Close() error {
	h.closeAll()
	return nil
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) formatMessage() []byte {
	msg, _ := json.Marshal(format{
		Event:      "format",
		SampleRate: h.sampleRate,
		Channels:   1,
		Bits:       16,
		Encoding:   "pcm_s16le",
	})
	return msg
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump sends the format envelope, then drains the client's send channel
// and forwards frames to the WebSocket connection. It also sends periodic
// ping frames. Runs in its own goroutine per client.
func (c *client) writePump(header []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, header); err != nil {
		return
	}

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages (pong,
// close) and detect disconnects. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
