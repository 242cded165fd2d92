package signal

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// the hub serves a local demo UI; accept any origin
		return true
	},
}

// Frame is what the hub pushes to connected views when a signal fires.
// Views are expected to re-read the relevant store, not to parse state
// out of the frame.
type Frame struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan Frame
	hub  *Hub
}

// Hub relays bus signals to websocket clients so views in other tabs
// or windows learn that a store changed. Delivery is best-effort: a
// slow client is dropped rather than blocking the others.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan Frame
	register   chan *client
	unregister chan *client
	mutex      sync.RWMutex
	logger     *logrus.Logger
	cancels    []func()
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan Frame, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     logger,
	}
}

// Attach subscribes the hub to every store signal on the bus.
func (h *Hub) Attach(bus Bus) {
	for _, name := range Names {
		name := name
		cancel := bus.Subscribe(name, func() {
			h.Broadcast(name)
		})
		h.cancels = append(h.cancels, cancel)
	}
}

// Detach cancels the bus subscriptions created by Attach.
func (h *Hub) Detach() {
	for _, cancel := range h.cancels {
		cancel()
	}
	h.cancels = nil
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mutex.Lock()
			h.clients[c] = true
			h.mutex.Unlock()
			h.logger.WithField("client_count", h.ClientCount()).Info("Signal client connected")

		case c := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mutex.Unlock()
			h.logger.WithField("client_count", h.ClientCount()).Info("Signal client disconnected")

		case frame := <-h.broadcast:
			h.mutex.Lock()
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) Broadcast(name string) {
	frame := Frame{Type: name, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	select {
	case h.broadcast <- frame:
	default:
		h.logger.WithField("signal", name).Warn("Broadcast channel full, dropping signal")
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade to WebSocket")
		return
	}

	c := &client{conn: conn, send: make(chan Frame, 64), hub: h}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Error("WebSocket error")
			}
			break
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(frame)
			if err != nil {
				c.hub.logger.WithError(err).Error("Failed to marshal signal frame")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
