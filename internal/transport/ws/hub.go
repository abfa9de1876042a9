package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgResponseSubmitted MessageType = "response_submitted"
	MsgDetectorError     MessageType = "detector_error"
	MsgFormClosed        MessageType = "form_closed"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages the owner observability channels. Each form can have several
// owner dashboards attached; submission lifecycle and detector failures are
// streamed to all of them.
type Hub struct {
	ownerConns map[string]map[*Connection]bool // formID -> connections

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents one attached owner dashboard
type Connection struct {
	FormID string
	Send   chan []byte
	Hub    *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	FormID  string
	Message *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		ownerConns: make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.ownerConns[conn.FormID] == nil {
				h.ownerConns[conn.FormID] = make(map[*Connection]bool)
			}
			h.ownerConns[conn.FormID][conn] = true
			log.Printf("Owner dashboard connected for form %s", conn.FormID)
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.ownerConns[conn.FormID]; ok {
				if conns[conn] {
					delete(conns, conn)
					close(conn.Send)
					log.Printf("Owner dashboard disconnected from form %s", conn.FormID)
				}
				if len(conns) == 0 {
					delete(h.ownerConns, conn.FormID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.ownerConns[msg.FormID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToOwner streams an event to every dashboard watching the form
// (implements service.Broadcaster)
func (h *Hub) BroadcastToOwner(formID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		FormID: formID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// DisconnectForm closes every dashboard attached to a form (implements
// service.Broadcaster)
func (h *Hub) DisconnectForm(formID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.ownerConns[formID] {
		close(conn.Send)
	}
	delete(h.ownerConns, formID)
}
