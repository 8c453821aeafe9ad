// Package stream broadcasts scene snapshots to websocket subscribers.
package stream

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/litescript/ls-orbits/internal/logging"
	"github.com/litescript/ls-orbits/internal/scene"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 4
)

// Format is the wire encoding a subscriber asked for.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type frame struct {
	kind int
	data []byte
}

type client struct {
	format Format
	send   chan frame
}

// Hub fans snapshots out to every connected subscriber. Slow subscribers
// drop frames rather than stall the publisher.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	latest  map[Format]frame
	log     *logging.Logger
	dropped uint64
}

// NewHub creates an empty hub.
func NewHub(log *logging.Logger) *Hub {
	if log == nil {
		log = logging.Discard()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		latest:  make(map[Format]frame),
		log:     log,
	}
}

// Publish encodes the snapshot once per format and queues it for every
// subscriber.
func (h *Hub) Publish(s scene.Snapshot) error {
	var js, mp bytes.Buffer
	if err := s.WriteJSON(&js); err != nil {
		return err
	}
	if err := s.WriteMsgpack(&mp); err != nil {
		return err
	}
	frames := map[Format]frame{
		FormatJSON:    {kind: websocket.TextMessage, data: js.Bytes()},
		FormatMsgpack: {kind: websocket.BinaryMessage, data: mp.Bytes()},
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = frames
	for c := range h.clients {
		h.enqueue(c, frames[c.format])
	}
	return nil
}

// enqueue must be called with h.mu held.
func (h *Hub) enqueue(c *client, f frame) {
	select {
	case c.send <- f:
	default:
		h.dropped++
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if f, ok := h.latest[c.format]; ok {
		h.enqueue(c, f)
	}
	h.log.Debug("stream subscriber joined (%s), %d connected", c.format, len(h.clients))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many frames were skipped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// ServeHTTP upgrades the request and streams snapshots until the peer
// goes away. "?format=msgpack" selects binary frames.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format := FormatJSON
	switch r.URL.Query().Get("format") {
	case "", "json":
	case "msgpack":
		format = FormatMsgpack
	default:
		http.Error(w, "unknown format", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("stream upgrade failed: %v", err)
		return
	}

	c := &client{format: format, send: make(chan frame, sendBuffer)}
	h.register(c)

	go h.writePump(conn, c)
	h.readPump(conn, c)
}

// readPump discards inbound messages and notices disconnects.
func (h *Hub) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		h.unregister(c)
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(f.kind, f.data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Serve runs an HTTP server exposing the hub at /stream until ctx ends.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/stream", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
