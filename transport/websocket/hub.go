package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/game/engine"
	"github.com/wricardo/blockpush/game/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts before Notify starts dropping
	broadcastBuffer = 256
)

// Message types
const (
	TypeState   = "state"
	TypeTick    = "tick"
	TypeCleared = "cleared"
	TypeError   = "error"
	TypeMove    = "move"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is sent to clients
type Message struct {
	Type      string             `json:"type"`
	SessionID string             `json:"session_id"`
	State     *engine.GameState  `json:"state,omitempty"`
	Move      *engine.MoveResult `json:"move,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Inbound is sent by clients: {"type":"move","direction":"left"}
type Inbound struct {
	Type      string `json:"type"`
	Direction string `json:"direction"`
}

// InputHandler applies a directional input received from a client. The
// resulting state reaches clients through Notify.
type InputHandler func(ctx context.Context, sessionID, direction string) error

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	ctx       context.Context
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool
	mu       sync.RWMutex

	// Outbound messages for a session
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	input InputHandler
	done  chan struct{}
}

// NewHub creates a new WebSocket hub. input may be nil for a push-only hub.
func NewHub(input InputHandler) *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		input:      input,
		done:       make(chan struct{}),
	}
}

// SetInputHandler replaces the handler for client input. Call before Run.
func (h *Hub) SetInputHandler(input InputHandler) {
	h.input = input
}

// Run starts the hub's event loop; it returns after Stop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and disconnects all clients
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Notify implements session.Notifier. It never blocks: when the broadcast
// queue is full the message is dropped.
func (h *Hub) Notify(sessionID string, event session.Event) {
	message := &Message{
		Type:      string(event.Type),
		SessionID: sessionID,
		State:     event.State,
		Move:      event.Move,
	}

	select {
	case h.broadcast <- message:
	default:
		log.WithField("session", sessionID).Warn("[WS] broadcast queue full, dropping message")
	}
}

// ServeWS upgrades the request and attaches the connection to sessionID.
// initial, when set, is sent before any broadcast. Values in the request
// context (such as the authenticated player) are passed to the input handler.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, initial *engine.GameState) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("[WS] upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
		ctx:       context.WithoutCancel(r.Context()),
	}

	if initial != nil {
		if data, err := json.Marshal(&Message{Type: TypeState, SessionID: sessionID, State: initial}); err == nil {
			client.send <- data
		}
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// ClientCount returns the number of clients attached to a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	log.WithFields(log.Fields{
		"session": client.sessionID,
		"clients": len(h.sessions[client.sessionID]),
	}).Debug("[WS] client registered")
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.sessions[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}

	log.WithFields(log.Fields{
		"session": client.sessionID,
		"clients": len(clients),
	}).Debug("[WS] client unregistered")
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.WithError(err).Error("[WS] failed to marshal broadcast message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.sessions[message.SessionID] {
		select {
		case client.send <- data:
		default:
			// slow client
			h.removeLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.sessions {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// reply queues a message for this client only
func (c *Client) reply(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.sessions[c.sessionID][c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump reads client input and hands moves to the input handler
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
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
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("session", c.sessionID).Warn("[WS] read error")
			}
			break
		}
		c.handleInbound(data)
	}
}

func (c *Client) handleInbound(data []byte) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		c.reply(&Message{Type: TypeError, SessionID: c.sessionID, Error: "invalid message"})
		return
	}
	if in.Type != TypeMove {
		c.reply(&Message{Type: TypeError, SessionID: c.sessionID, Error: "unsupported message type " + in.Type})
		return
	}
	if c.hub.input == nil {
		c.reply(&Message{Type: TypeError, SessionID: c.sessionID, Error: "input not accepted on this connection"})
		return
	}
	if err := c.hub.input(c.ctx, c.sessionID, in.Direction); err != nil {
		c.reply(&Message{Type: TypeError, SessionID: c.sessionID, Error: err.Error()})
	}
}

// writePump pumps messages from the hub to the WebSocket connection
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
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
