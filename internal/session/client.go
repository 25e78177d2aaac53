package session

import (
	"sync"

	"github.com/gorilla/websocket"

	"realtime/internal/models"
)

// Client is one authenticated websocket connection. Identity comes from the
// access token validated before the upgrade.
type Client struct {
	UserID   string
	UserName string
	Conn     *websocket.Conn
	mu       sync.Mutex
	hook     func(models.WSFrame)
}

func NewClient(conn *websocket.Conn, userID, userName string) *Client {
	return &Client{Conn: conn, UserID: userID, UserName: userName}
}

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.WSFrame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

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
