package surface

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/veldt-labs/gamehost/internal/logging"
)

// Hub fans settings-surface push frames out to every connected page. It
// implements settings.Surface: reactive refreshes arrive from the manager's
// refresh goroutine and are broadcast as JSON frames.
type Hub struct {
	mu       sync.Mutex
	upgrader websocket.Upgrader
	clients  map[*client]struct{}
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewHub creates an empty push hub. Connections are local (the injected game
// page talks to 127.0.0.1), so cross-origin upgrades are allowed.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler upgrades a connection and keeps it subscribed until it drops.
// Inbound frames are discarded; the socket is push-only.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.FromContext(r.Context()).Warn("surface socket upgrade failed", "error", err)
			return
		}
		c := &client{conn: conn}
		h.mu.Lock()
		h.clients[c] = struct{}{}
		h.mu.Unlock()

		go func() {
			defer h.drop(c)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = c.conn.Close()
}

// RefreshSetting implements settings.Surface by broadcasting a refresh frame.
func (h *Hub) RefreshSetting(pluginName, key string, hidden, disabled bool) {
	h.broadcast(map[string]any{
		"type":     "setting_refresh",
		"plugin":   pluginName,
		"key":      key,
		"hidden":   hidden,
		"disabled": disabled,
	})
}

func (h *Hub) broadcast(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		err := c.conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			h.drop(c)
		}
	}
}

// ClientCount returns the number of connected pages.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
