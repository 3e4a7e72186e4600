package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	sendBufferSize = 256
)

var (
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("client send buffer full")
	ErrHubBusy        = errors.New("broadcast queue full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// SessionHandler receives the messages of one client.
type SessionHandler interface {
	Handle(msgType string, payload json.RawMessage) error
	Close()
}

// SessionFactory creates the session for a newly connected client.
type SessionFactory func(client *Client) SessionHandler

// Hub manages WebSocket connections and broadcasts.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	newSession SessionFactory
	logger     zerolog.Logger
}

// Client represents a WebSocket connection.
type Client struct {
	ID string

	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session SessionHandler

	mu     sync.Mutex
	closed bool
}

// Message represents an outgoing WebSocket message.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

// IncomingMessage is a message sent by a client.
type IncomingMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

// SetSessionFactory gives every client connected afterwards its own session.
func (h *Hub) SetSessionFactory(factory SessionFactory) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.newSession = factory
}

// Run starts the hub's main loop. When ctx is done all clients are closed.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			clients := h.clients
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			for client := range clients {
				client.shutdown()
			}
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug().Str("client", client.ID).Msg("Client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			delete(h.clients, client)
			h.mu.Unlock()
			if ok {
				client.shutdown()
				h.logger.Debug().Str("client", client.ID).Msg("Client disconnected")
			}

		case message := <-h.broadcast:
			var slow []*Client
			h.mu.Lock()
			for client := range h.clients {
				if err := client.enqueue(message); err != nil {
					delete(h.clients, client)
					slow = append(slow, client)
				}
			}
			h.mu.Unlock()
			for _, client := range slow {
				h.logger.Warn().Str("client", client.ID).Msg("Dropping slow client")
				client.shutdown()
			}
		}
	}
}

// Broadcast sends a message to all connected clients. It never blocks:
// when the queue is full the message is dropped.
func (h *Hub) Broadcast(msgType string, payload any) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
		return nil
	default:
		return ErrHubBusy
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles WebSocket connection upgrade.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.RLock()
	factory := h.newSession
	h.mu.RUnlock()
	if factory != nil {
		client.session = factory(client)
	}

	select {
	case h.register <- client:
	case <-h.done:
		client.shutdown()
		conn.Close()
		return nil
	}

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()

	return nil
}

// Send queues a message for this client only.
func (c *Client) Send(msgType string, payload any) error {
	data, err := encode(msgType, payload)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Client) enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// shutdown closes the send channel, which ends writePump, and the session.
func (c *Client) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	if c.session != nil {
		c.session.Close()
	}
}

// readPump pumps messages from the websocket connection to the session.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
			c.shutdown()
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Str("client", c.ID).Msg("Unexpected close")
			}
			break
		}
		c.handleIncoming(message)
	}
}

// handleIncoming forwards a client message to its session.
func (c *Client) handleIncoming(message []byte) {
	var msg IncomingMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		_ = c.Send("session:error", map[string]string{"error": "malformed message"})
		return
	}
	if c.session == nil {
		return
	}
	if err := c.session.Handle(msg.Type, msg.Payload); err != nil {
		c.hub.logger.Debug().Err(err).Str("client", c.ID).Str("type", msg.Type).Msg("Rejected client message")
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Send each message as a separate WebSocket frame
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
