package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"folio/internal/logger"

	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event is the payload broadcast to all connected WebSocket clients, e.g.
// {"type":"documents_create","id":"…","action":"CREATE"}.
type Event struct {
	Type   string    `json:"type"`
	ID     any       `json:"id"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// client wraps a WebSocket connection with a mutex for thread-safe writes.
type client struct {
	conn *ws.Conn
	mu   sync.Mutex
}

// Hub maintains connected WebSocket clients and broadcasts events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	if c.conn != nil {
		defer func() {
			if r := recover(); r != nil {
				wsLog().Warn().Interface("panic", r).Msg("close panic")
			}
		}()
		_ = c.conn.Close()
	}
}

// Broadcast sends an event to all connected clients.
func (h *Hub) Broadcast(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		wsLog().Error().Err(err).Msg("marshal event")
		return
	}
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		writeErr := func() (writeErr error) {
			defer func() {
				if r := recover(); r != nil {
					writeErr = fmt.Errorf("ws: write panic: %v", r)
				}
			}()
			_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			return c.conn.WriteMessage(ws.TextMessage, data)
		}()
		c.mu.Unlock()

		if writeErr != nil {
			h.unregister(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Used on shutdown.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.mu.Lock()
		_ = c.conn.WriteControl(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseGoingAway, "server shutdown"), time.Now().Add(time.Second))
		c.mu.Unlock()
		h.unregister(c)
	}
}

// Upgrader is the default WebSocket upgrader. Only same-origin browsers and
// non-browser clients (no Origin header) may connect.
var Upgrader = ws.Upgrader{}

// HandleWebSocket upgrades the connection and keeps it alive with pings.
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		wsLog().Warn().Err(err).Msg("upgrade failed")
		return
	}

	c := &client{conn: conn}
	hub.register(c)

	wsLog().Debug().Int("clients", hub.ClientCount()).Msg("client connected")

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.mu.Lock()
				err := conn.WriteControl(ws.PingMessage, nil, time.Now().Add(5*time.Second))
				c.mu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	// Clients only listen; anything they send is discarded.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	close(done)
	hub.unregister(c)
	wsLog().Debug().Int("clients", hub.ClientCount()).Msg("client disconnected")
}

func wsLog() *zerolog.Logger {
	l := logger.WithComponent("websocket")
	return &l
}
