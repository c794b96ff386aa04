package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Chat events pushed to per-user rooms. Pull endpoints stay authoritative;
// delivery is at-most-once.
const (
	EventNewMessage           = "new_message"
	EventChatListUpdate       = "chat_list_update"
	EventNewChat              = "new_chat"
	EventMessagesRead         = "messages_read"
	EventMessageDeletedForAll = "message_deleted_for_all"
	EventMessageDeletedForMe  = "message_deleted_for_me"
	EventChatDeleted          = "chat_deleted"
)

// Event is the wire frame sent to clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client represents a WebSocket connection client.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// Manager keeps one room per authenticated user, keyed by user id.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's main loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				// A reconnect replaces the old connection; close its send
				// channel so its write pump exits.
				if old, ok := m.clients[client.UserID]; ok && old != client {
					close(old.Send)
				}
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				log.Printf("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if current, ok := m.clients[client.UserID]; ok && current == client {
					delete(m.clients, client.UserID)
					close(client.Send)
				}
				m.mutex.Unlock()
				log.Printf("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// EmitToUser pushes an event to the user's room. Fire-and-forget: an
// unknown user or a full send buffer drops the event silently, never the
// originating request.
func (m *Manager) EmitToUser(userID, event string, payload interface{}) {
	frame, err := json.Marshal(Event{Type: event, Data: payload})
	if err != nil {
		log.Printf("EmitToUser: failed to marshal %s event for user %s: %v", event, userID, err)
		return
	}

	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()

	if !ok {
		return
	}

	select {
	case client.Send <- frame:
	default:
		log.Printf("EmitToUser: dropping %s event for user %s, send buffer full", event, userID)
	}
}

// ReadPump drains the WebSocket connection. Clients only listen; inbound
// frames are ignored beyond keeping the connection alive.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error for user %s: %v", c.UserID, err)
			}
			break
		}
	}
}

// WritePump sends queued frames to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("websocket write error for user %s: %v", c.UserID, err)
			return
		}
	}
}
