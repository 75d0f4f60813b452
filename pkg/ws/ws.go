// Package ws pushes server events to connected users over WebSocket.
//
// A Hub tracks connections per user id; a user may hold several (tabs,
// devices). Inbound frames are read only to service pings and closes.
//
//	hub := ws.NewHub(nil)
//	r.Get("/api/ws", "ws", func(w http.ResponseWriter, r *http.Request) {
//	    hub.Serve(w, r, userID)
//	})
//	hub.SendTo(userID, payload)
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/farmchain/farmchain/pkg/collection"
	"github.com/farmchain/farmchain/pkg/logger"
	"github.com/farmchain/farmchain/pkg/metrics"
	"github.com/farmchain/farmchain/pkg/sse"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// client is one subscriber. conn is nil for Server-Sent Events streams.
type client struct {
	hub    *Hub
	userID uint
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: unexpected close", "user_id", c.userID, "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub tracks live connections by user.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uint]map[*client]struct{}
	upgrader websocket.Upgrader
}

// NewHub returns a hub. checkOrigin nil accepts same-origin requests only.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		clients: map[uint]map[*client]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Serve upgrades the request and registers the connection for userID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logger.WithCtx(r.Context()).Warn("ws: upgrade failed", "error", err)
		return
	}

	c := &client{hub: h, userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(c)
	go c.writePump()
	go c.readPump()
}

// ServeEvents streams the same payloads as Serve over Server-Sent Events,
// for clients that cannot keep a WebSocket open. It blocks until the client
// goes away or the hub is closed.
func (h *Hub) ServeEvents(w http.ResponseWriter, r *http.Request, userID uint) {
	stream, err := sse.New(w)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("sse: stream failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	c := &client{hub: h, userID: userID, send: make(chan []byte, sendBuffer)}
	h.add(c)
	defer h.remove(c)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if err := stream.Comment("connected"); err != nil {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := stream.Send("notification", msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := stream.Comment("ping"); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = map[*client]struct{}{}
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	metrics.WebsocketClients.Inc()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	c.close()
	metrics.WebsocketClients.Dec()
}

// SendTo queues data for every connection of userID. Slow connections with
// a full buffer are dropped rather than blocking the sender.
func (h *Hub) SendTo(userID uint, data []byte) int {
	h.mu.RLock()
	var slow []*client
	sent := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
			sent++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.remove(c)
	}
	return sent
}

// SendJSON marshals v and sends it to each user in userIDs once.
func (h *Hub) SendJSON(v interface{}, userIDs ...uint) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	for _, id := range collection.Unique(userIDs) {
		h.SendTo(id, data)
	}
	return nil
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Close disconnects everyone.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.clients {
		for c := range set {
			c.close()
			metrics.WebsocketClients.Dec()
		}
		delete(h.clients, id)
	}
}
