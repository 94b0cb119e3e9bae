package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single frame write so a stalled client cannot
	// block the tick loop.
	writeWait = 10 * time.Second

	// readWait is generous: a student may sit on a question for minutes
	// without touching the socket.
	readWait = 5 * time.Minute
)

// Conn wraps a gorilla connection with a write mutex. The tick loop and
// the read loop both respond on the same connection; gorilla permits at
// most one concurrent writer, so every write funnels through here.
type Conn struct {
	raw *websocket.Conn
	mu  sync.Mutex
}

// Wrap takes ownership of an upgraded connection.
func Wrap(raw *websocket.Conn) *Conn {
	return &Conn{raw: raw}
}

// WriteTyped sends a strongly-typed event payload.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raw.SetWriteDeadline(time.Now().Add(writeWait))
	return c.raw.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse.
func (c *Conn) WriteError(errMsg string) error {
	return c.WriteTyped(ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadMessage reads the next client frame, refreshing the read deadline
// first.
func (c *Conn) ReadMessage() ([]byte, error) {
	c.raw.SetReadDeadline(time.Now().Add(readWait))
	_, raw, err := c.raw.ReadMessage()
	return raw, err
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}
