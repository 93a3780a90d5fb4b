package services

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sheetboard/board"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 1024 * 1024 // 1MB
)

// Board event types pushed to connected clients.
const (
	EventTaskAdded    = "task.added"
	EventTaskUpdated  = "task.updated"
	EventTaskMoved    = "task.moved"
	EventTaskDeleted  = "task.deleted"
	EventBoardRefresh = "board.refresh"
)

// Message is the wire format for WebSocket traffic in both directions.
// Clients send "ping", "edit" (a full card draft) and "closeEditor"
// ({"id": ...}); the server pushes board events.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EditSink receives the per-card edit stream from connected clients. The
// hub only transports messages; coalescing and remote sync live behind
// this interface.
type EditSink interface {
	Edit(card board.Task)
	CloseEditor(id string)
}

// Client represents a connected WebSocket client.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// ReadPump pumps messages from the WebSocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("websocket read failed", zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.Hub.log.Warn("bad websocket message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case "ping":
			// Reply with a pong directly to this client only.
			pong, err := json.Marshal(map[string]string{"timestamp": time.Now().Format(time.RFC3339)})
			if err == nil {
				if out, err := json.Marshal(Message{Type: "pong", Data: pong}); err == nil {
					c.Send <- out
				}
			}
		case "edit":
			if c.Hub.edits == nil {
				continue
			}
			var card board.Task
			if err := json.Unmarshal(msg.Data, &card); err != nil || card.ID == "" {
				c.Hub.log.Warn("bad edit message", zap.Error(err))
				continue
			}
			c.Hub.edits.Edit(card)
		case "closeEditor":
			if c.Hub.edits == nil {
				continue
			}
			var req struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(msg.Data, &req); err != nil || req.ID == "" {
				continue
			}
			c.Hub.edits.CloseEditor(req.ID)
		default:
			c.Hub.log.Debug("ignoring websocket message", zap.String("type", msg.Type))
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte("\n"))
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub maintains the set of active clients and broadcasts board events to
// them.
type Hub struct {
	Clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	edits      EditSink
	log        *zap.Logger
}

// NewHub creates a new hub instance.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		Clients:    make(map[*Client]bool),
		log:        log,
	}
}

// SetEditSink wires the destination of the client edit stream. Must be
// called before Run.
func (h *Hub) SetEditSink(sink EditSink) {
	h.edits = sink
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast pushes a board event to every connected client.
func (h *Hub) Broadcast(eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.log.Error("marshal broadcast payload", zap.Error(err))
		return
	}
	out, err := json.Marshal(Message{Type: eventType, Data: payload})
	if err != nil {
		h.log.Error("marshal broadcast message", zap.Error(err))
		return
	}
	h.broadcast <- out
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.Clients[client] = true
			h.log.Info("websocket client connected", zap.Int("clients", len(h.Clients)))
		case client := <-h.unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
				h.log.Info("websocket client disconnected", zap.Int("clients", len(h.Clients)))
			}
		case message := <-h.broadcast:
			for client := range h.Clients {
				select {
				case client.Send <- message:
					// Message sent successfully
				default:
					// Client's send buffer is full, assume disconnected
					h.log.Warn("client send buffer full, dropping client")
					close(client.Send)
					delete(h.Clients, client)
				}
			}
		}
	}
}
