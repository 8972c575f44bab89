package devserver

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"shoplink/internal/infrastructure/socket"
	"shoplink/pkg/logger"
)

// hub fans pushed events out to every connected socket. Each connection
// gets a buffered send channel drained by its own write pump, so the
// conn only ever has one writer no matter how many handlers broadcast
// concurrently. Slow or broken connections are dropped rather than
// backpressuring the sender.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*hubClient
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]*hubClient)}
}

func (h *hub) add(conn *websocket.Conn) {
	client := &hubClient{conn: conn, send: make(chan []byte, 64)}

	h.mu.Lock()
	h.clients[conn] = client
	h.mu.Unlock()

	go client.writePump()
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(client.send)
	}
}

func (h *hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(event string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Error("devserver: failed to encode event payload: %v", err)
		return
	}
	frame, err := json.Marshal(socket.Frame{Event: event, Payload: raw})
	if err != nil {
		logger.Error("devserver: failed to encode frame: %v", err)
		return
	}

	// Channel sends and closes both happen under the lock, so a
	// concurrent remove can never close a channel mid-send.
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, client := range h.clients {
		select {
		case client.send <- frame:
		default:
			logger.Warn("devserver: dropping slow connection")
			delete(h.clients, conn)
			close(client.send)
		}
	}
}

func (c *hubClient) writePump() {
	defer c.conn.Close()

	for frame := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			logger.Warn("devserver: write failed: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
