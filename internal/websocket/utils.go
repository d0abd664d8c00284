package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// Conn serialises writes to a gorilla connection, which allows only one
// concurrent writer.
type Conn struct {
	*websocket.Conn
	mu sync.Mutex
}

// Wrap returns a Conn around c.
func Wrap(c *websocket.Conn) *Conn {
	return &Conn{Conn: c}
}

// WriteTyped sends a strongly-typed payload over the WebSocket.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(code, msg string) error {
	return c.WriteTyped(ErrorResponse{Event: EventError, Code: code, Error: msg})
}

// ReadJSON reads and decodes one message with a read deadline.
func (c *Conn) ReadJSON(v interface{}) error {
	_ = c.SetReadDeadline(time.Now().Add(readWait))
	return c.Conn.ReadJSON(v)
}
