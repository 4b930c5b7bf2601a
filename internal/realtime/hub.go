// Package realtime pushes catalogue change notices to open browser sessions
// over websockets. Clients refetch the catalogue when told it moved on.
package realtime

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"odil-be/internal/logger"
	"odil-be/internal/metrics"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Message is the payload sent to every client.
type Message struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
}

const TypeCatalogueChanged = "catalogue.changed"

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to connected clients. A client that cannot keep up
// is dropped rather than blocking the others.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	gauge    *metrics.Gauge
}

// NewHub accepts upgrades from the same host and from the given storefront
// origins.
func NewHub(reg *metrics.Registry, origins ...string) *Hub {
	if reg == nil {
		reg = metrics.Default
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		gauge: reg.Gauge(metrics.RealtimeClients),
	}
}

// originChecker allows requests without an Origin header (non-browser
// clients), same-host pages and the listed origins.
func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return slices.ContainsFunc(origins, func(o string) bool {
			return strings.EqualFold(o, origin)
		})
	}
}

// ServeWS upgrades the request and keeps the connection until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "realtime"),
		zap.String("method", "ServeWS"),
	)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	log.Debug("client connected", zap.Int("clients", h.Len()))

	go h.writePump(c)
	h.readPump(c)
}

// Broadcast sends msg to every connected client.
func (h *Hub) Broadcast(msg Message) {
	if msg.At.IsZero() {
		msg.At = time.Now().UTC()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.L().Error("failed to encode realtime message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.removeLocked(c)
		}
	}
}

// CatalogueChanged is the hook the catalogue service calls on every change.
func (h *Hub) CatalogueChanged() {
	h.Broadcast(Message{Type: TypeCatalogueChanged})
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.gauge.Inc()
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.gauge.Dec()
}

// readPump only handles control frames; clients never send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
