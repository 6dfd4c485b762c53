package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wakebell/wakebell/internal/logger"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	defaultSendBuf      = 32
	defaultBroadcastBuf = 128
)

// Envelope is the wire format for event-feed messages.
type Envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// Hub fans engine notifications out to connected event-feed clients.
// Each client gets its own buffered send queue so one slow consumer
// cannot stall the rest; a client whose queue fills is disconnected.
type Hub struct {
	logger logger.Logger

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		logger:     log,
		broadcast:  make(chan []byte, defaultBroadcastBuf),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		clients:    make(map[*Client]struct{}),
	}
}

// Run processes hub events until ctx is cancelled, then disconnects
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("event feed client connected",
				logger.String("remote_addr", c.remoteAddr),
				logger.Int("clients", n))

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
			var slow []*Client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

// Broadcast marshals and enqueues one event for every client.
// Never blocks; a full hub queue drops the message.
func (h *Hub) Broadcast(event string, data any) {
	now := time.Now().UTC()
	msg, err := json.Marshal(Envelope{Type: event, Ts: &now, Data: data})
	if err != nil {
		h.logger.Warn("failed to marshal event feed message",
			logger.String("type", event),
			logger.Error(err))
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("event feed queue full, dropping message",
			logger.String("type", event))
	}
}

// Register attaches an upgraded connection and starts its pumps.
// The initial message is delivered before any broadcast can race it.
func (h *Hub) Register(conn *websocket.Conn, remoteAddr string, initial Envelope) {
	client := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, defaultSendBuf),
		remoteAddr: remoteAddr,
		logger:     h.logger,
	}

	if msg, err := json.Marshal(initial); err == nil {
		client.send <- msg
	}

	h.register <- client

	// Pumps deliberately do not use the HTTP request context: net/http
	// cancels it when the handler returns, which would kill the
	// connection mid-stream. The hub owns the lifetime instead.
	go client.writePump()
	go client.readPump()
}

// Snapshot builds the initial message sent to a connecting client.
func Snapshot(event string, data any) Envelope {
	now := time.Now().UTC()
	return Envelope{Type: event, Ts: &now, Data: data}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.Close()
		safeCloseChan(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		_ = c.conn.Close()
		safeCloseChan(c.send)
		h.logger.Debug("event feed client disconnected",
			logger.String("remote_addr", c.remoteAddr),
			logger.String("reason", reason),
			logger.Int("clients", n))
	}
}

func safeCloseChan(ch chan []byte) {
	defer func() {
		_ = recover() // ignore "close of closed channel"
	}()
	close(ch)
}

// Client is one event-feed subscriber.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	logger     logger.Logger
}

// writePump writes queued messages and pings to the connection.
// It exits on write error or when send is closed.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Debug("event feed write failed",
						logger.String("remote_addr", c.remoteAddr),
						logger.Error(err))
				}
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages; it exists to notice disconnects
// and answer control frames.
func (c *Client) readPump() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.hub.unregister <- c
			return
		}
	}
}
