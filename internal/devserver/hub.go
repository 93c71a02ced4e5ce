package devserver

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client is one connected browser's socket, grounded on tain335-esbuild's
// ClientConnection: a *websocket.Conn plus its own mutex, since
// gorilla/websocket forbids concurrent writers on one connection.
type client struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(v)
}

// hub tracks every connected client and broadcasts build outcomes to all
// of them, grounded on tain335-esbuild's DevServer.clients/clientsMutex
// plus addConnToSet/removeConnFromSet/sendMessageToAllConn, restructured
// into its own type instead of living on the HTTP server struct directly.
type hub struct {
	mu      sync.Mutex
	clients map[*client]bool
}

func newHub() *hub {
	return &hub{clients: map[*client]bool{}}
}

func (h *hub) add(conn *websocket.Conn) *client {
	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *hub) broadcast(v interface{}) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := c.writeJSON(v); err != nil {
			h.remove(c)
			c.conn.Close()
		}
	}
}
