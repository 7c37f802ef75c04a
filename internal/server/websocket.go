package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/remedy/internal/core/events"
	"github.com/zeusync/remedy/internal/core/lifecycle"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/core/status"
)

const (
	clientBuffer       = 16
	defaultWriteWindow = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

var _ status.Sink = (*Hub)(nil)

// Message is one frame of the operator stream. Exactly one payload is set,
// selected by Type.
type Message struct {
	Type      string          `json:"type"`
	Status    *status.View    `json:"status,omitempty"`
	Pass      *PassEvent      `json:"pass,omitempty"`
	Lifecycle *LifecycleEvent `json:"lifecycle,omitempty"`
}

// PassEvent reports a pass that processed at least one entity.
type PassEvent struct {
	Pass      string `json:"pass"`
	Category  string `json:"category"`
	Action    string `json:"action"`
	IconOnly  bool   `json:"icon_only"`
	Processed int    `json:"processed"`
	TookUS    int64  `json:"took_us"`
}

func newPassEvent(p events.PassCompleted) *PassEvent {
	return &PassEvent{
		Pass:      p.Pass,
		Category:  p.Category.String(),
		Action:    p.Action.String(),
		IconOnly:  p.IconOnly,
		Processed: p.Processed,
		TookUS:    p.Took.Microseconds(),
	}
}

// LifecycleEvent reports an engine state transition.
type LifecycleEvent struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Mode    string `json:"mode"`
	Enabled bool   `json:"enabled"`
}

func newLifecycleEvent(t lifecycle.Transition) *LifecycleEvent {
	return &LifecycleEvent{
		From:    t.From.String(),
		To:      t.To.String(),
		Mode:    t.Mode.String(),
		Enabled: t.Enabled,
	}
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// Hub fans stream messages out to WebSocket clients. It is the
// aggregator's sink, so Publish runs on the host goroutine and never
// blocks: a client whose buffer is full is dropped. The latest status view
// is replayed to every new client.
type Hub struct {
	mu           sync.Mutex
	clients      map[*client]struct{}
	last         status.View
	hasLast      bool
	closed       bool
	writeTimeout time.Duration
	wg           sync.WaitGroup
	logger       log.Log
}

func NewHub(logger log.Log, writeTimeout time.Duration) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteWindow
	}
	return &Hub{
		clients:      make(map[*client]struct{}),
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Publish implements status.Sink.
func (h *Hub) Publish(v status.View) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last, h.hasLast = v, true
	h.broadcast(statusMessage(v))
}

// Broadcast sends m to every client without remembering it.
func (h *Hub) Broadcast(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast(m)
}

// broadcast must be called with mu held.
func (h *Hub) broadcast(m Message) {
	for c := range h.clients {
		select {
		case c.send <- m:
		default:
			h.logger.Warn("dropping slow stream client", log.String("remote", c.conn.RemoteAddr().String()))
			h.drop(c)
		}
	}
}

func statusMessage(v status.View) Message {
	return Message{Type: events.TypeStatusUpdated, Status: &v}
}

// Clients is the number of connected stream clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and waits for their writers to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		h.drop(c)
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// drop must be called with mu held.
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client.
		h.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan Message, clientBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.hasLast {
		c.send <- statusMessage(h.last)
	}
	h.wg.Add(2)
	h.mu.Unlock()

	h.logger.Debug("stream client connected", log.String("remote", conn.RemoteAddr().String()))
	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	defer h.wg.Done()
	defer c.conn.Close()

	for m := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.conn.WriteJSON(m); err != nil {
			h.logger.Debug("stream client write failed", log.Error(err))
			h.mu.Lock()
			h.drop(c)
			h.mu.Unlock()
			// Drain so the channel close in drop is observed.
			for range c.send {
			}
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(h.writeTimeout))
}

// readLoop discards client input and notices disconnects.
func (h *Hub) readLoop(c *client) {
	defer h.wg.Done()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.mu.Lock()
			h.drop(c)
			h.mu.Unlock()
			return
		}
	}
}
