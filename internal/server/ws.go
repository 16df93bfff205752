package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/pappadam/internal/app"
	"github.com/ayusman/pappadam/internal/logger"
)

const (
	writeWait      = 2 * time.Second
	clientSendSize = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Publisher delivers Live frames to subscribers.
type Publisher interface {
	Subscribe(fn func(app.LiveFrame)) (unsubscribe func())
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// OverlayHub pushes every Live frame to all connected websocket clients.
// Slow clients miss frames rather than stall the Live loop.
type OverlayHub struct {
	mu          sync.RWMutex
	clients     map[*wsClient]struct{}
	unsubscribe func()
	closed      bool
}

// NewOverlayHub subscribes to p.
func NewOverlayHub(p Publisher) *OverlayHub {
	h := &OverlayHub{clients: make(map[*wsClient]struct{})}
	h.unsubscribe = p.Subscribe(h.broadcast)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *OverlayHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("overlay-hub").WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, clientSendSize)}
	if !h.add(c) {
		conn.Close()
		return
	}
	defer h.remove(c)

	go h.writePump(c)

	// Reads only detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *OverlayHub) writePump(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (h *OverlayHub) add(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *OverlayHub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *OverlayHub) broadcast(f app.LiveFrame) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(f)
	if err != nil {
		logger.WithComponent("overlay-hub").WithError(err).Error("failed to encode overlay frame")
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *OverlayHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unsubscribes from the publisher and disconnects every client.
func (h *OverlayHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.unsubscribe()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
