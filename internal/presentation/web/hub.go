package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsWriteWait  = 10 * time.Second
	sendBuffer   = 16
)

// Message is the envelope pushed to websocket clients.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub is a RenderSink that keeps the latest View and pushes it to every
// connected websocket client.
type Hub struct {
	mu      sync.RWMutex
	latest  model.View
	hasView bool
	clients map[*client]struct{}

	upgrader   websocket.Upgrader
	broadcasts atomic.Int64
	dropped    atomic.Int64
	logger     util.LoggerInterface
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: util.Component("web"),
	}
}

// Render stores v and broadcasts it. A client whose buffer is full misses
// this frame rather than stalling the refresh loop.
func (h *Hub) Render(v model.View) {
	data, err := encodeView(v)
	if err != nil {
		h.logger.Warn("failed to encode view", util.F("error", err))
		return
	}

	h.mu.Lock()
	h.latest = v.Clone()
	h.hasView = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.offer(c, data)
	}
	h.broadcasts.Inc()
}

// offer queues data for c without blocking and reports whether it was queued.
func (h *Hub) offer(c *client, data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		h.dropped.Inc()
		return false
	}
}

// Latest returns the last rendered View.
func (h *Hub) Latest() (model.View, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest.Clone(), h.hasView
}

// ClientCount returns the number of connected websocket clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns how many views were broadcast and how many client frames were dropped.
func (h *Hub) Stats() (broadcasts, dropped int64) {
	return h.broadcasts.Load(), h.dropped.Load()
}

// ServeWS upgrades the request and streams views until the client leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", util.F("error", err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	latest, hasView := h.latest, h.hasView
	h.mu.Unlock()

	if hasView {
		if data, err := encodeView(latest); err == nil {
			h.offer(c, data)
		}
	}

	go h.writeLoop(c)
	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// readLoop only services control frames; clients never send data.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("websocket write failed", util.F("error", err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(time.Second))
		c.close()
	}
}

func encodeView(v model.View) ([]byte, error) {
	return sonic.Marshal(Message{Type: "view", Payload: formatter.NewViewDocument(v)})
}
