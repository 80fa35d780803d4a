// Package stream pushes system snapshots to renderers over websockets.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/JakePhillips-Davies/conics"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 8
)

// Hub broadcasts snapshots to all connected websocket clients, at most at the configured rate.
// Slow clients miss snapshots rather than delaying the simulation.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	last     []byte
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
	logger   kitlog.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns a hub publishing at most perSecond snapshots per second.
func NewHub(perSecond float64) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: kitlog.With(conics.Logger(), "subsys", "stream"),
	}
}

// ServeHTTP upgrades the connection and streams snapshots until the client goes away. The latest
// snapshot, if any, is sent as soon as the client connects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Log("level", "warning", "message", "upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()
	h.logger.Log("level", "info", "message", "client connected", "remote", r.RemoteAddr)

	go c.writeLoop()
	// Incoming messages are ignored; reading is required to process control frames.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	h.logger.Log("level", "info", "message", "client disconnected", "remote", r.RemoteAddr)
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Publish sends the snapshot to every client, unless the rate limit was reached in which case the
// snapshot is dropped and false is returned.
func (h *Hub) Publish(snap Snapshot) bool {
	if !h.limiter.Allow() {
		return false
	}
	msg, err := json.Marshal(snap)
	if err != nil {
		h.logger.Log("level", "critical", "message", "snapshot not encodable", "err", err)
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Log("level", "debug", "message", "client too slow, snapshot dropped", "remote", c.conn.RemoteAddr())
		}
	}
	return true
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all the clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
