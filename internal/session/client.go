package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"drawboard/internal/models"
)

// Client is one connected participant. ID is assigned at construction and
// Color at room join; both are stable for the connection's lifetime.
type Client struct {
	ID    string
	Color string
	Conn  *websocket.Conn
	mu    sync.Mutex
	hook  func(models.WSFrame)
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{ID: uuid.New().String(), Conn: conn}
}

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.WSFrame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Send delivers a frame best-effort. A closed or slow peer never fails the
// caller; its own disconnect handling reconciles the room.
func (c *Client) Send(frame models.WSFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return
	}
	if c.Conn == nil {
		return
	}
	_ = c.Conn.WriteJSON(frame)
}
