package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub is a broadcast-only fan-out over the set of live WebSocket
// observers. No acknowledgment, no replay for late joiners, no
// filtering: clients that reconnect must re-fetch state over HTTP.
type Hub struct {
	mu       sync.Mutex
	conns    map[string]*conn
	upgrader websocket.Upgrader
}

type conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
}

type frame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*conn),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades the request and keeps the connection registered
// until the peer goes away. There is no application-level handshake.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}

	c := &conn{id: uuid.NewString(), ws: ws, send: make(chan []byte, 16)}
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	log.Printf("ws connected: %s", c.id)

	go c.writeLoop()

	// Inbound messages are ignored; the read loop only exists to
	// notice the disconnect.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(c.id)
	log.Printf("ws disconnected: %s", c.id)
}

// Emit marshals one frame and pushes it to every registered observer.
// A connection whose send buffer is full is dropped rather than
// blocking the broadcast.
func (h *Hub) Emit(event string, payload any) {
	data, err := json.Marshal(frame{Event: event, Payload: payload})
	if err != nil {
		log.Printf("ws emit marshal: %v", err)
		return
	}

	h.mu.Lock()
	var stale []string
	for id, c := range h.conns {
		select {
		case c.send <- data:
		default:
			stale = append(stale, id)
		}
	}
	h.mu.Unlock()

	for _, id := range stale {
		h.drop(id)
		log.Printf("ws dropped (slow consumer): %s", id)
	}
}

// ConnCount reports the number of registered observers.
func (h *Hub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) drop(id string) {
	h.mu.Lock()
	c, ok := h.conns[id]
	if ok {
		delete(h.conns, id)
	}
	h.mu.Unlock()
	if ok {
		close(c.send)
		_ = c.ws.Close()
	}
}

func (c *conn) writeLoop() {
	for msg := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
