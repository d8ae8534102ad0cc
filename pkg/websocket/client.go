package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Client is one server-side connection subscribed to a game room. The
// connection is push-only; anything the peer sends is discarded.
type Client struct {
	Conn *websocket.Conn
	Hub  *Hub

	Room     string
	PlayerID string

	sendOnce sync.Once
	Send     chan []byte
}

func NewClient(conn *websocket.Conn, hub *Hub, room, playerID string) *Client {
	return &Client{
		Conn:     conn,
		Hub:      hub,
		Room:     room,
		PlayerID: playerID,
		Send:     make(chan []byte, 32),
	}
}

func (c *Client) closeSend() {
	c.sendOnce.Do(func() { close(c.Send) })
}

// ReadPump keeps the read deadline fresh and unregisters the client when the
// peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			// Expected close errors are common.
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
