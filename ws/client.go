package ws

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const sendBufferSize = 64

// Event is the JSON envelope for everything pushed over a connection.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Client is one authenticated websocket connection. Writes go through the
// buffered send channel so that fan-out from the hub never blocks and the
// connection only ever has a single writer. Shutdown is signalled via the
// done channel; the send channel itself is never closed, so a racing
// Enqueue after disconnect just reports false instead of panicking.
type Client struct {
	UserID uuid.UUID

	conn *websocket.Conn
	send chan Event
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewClient(userID uuid.UUID, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan Event, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// Enqueue offers an event to the client without blocking. A false return
// means the client is gone or its send buffer is full and it should be
// dropped. Safe to call concurrently with close.
func (c *Client) Enqueue(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// WritePump drains the send channel onto the wire. It exits when the client
// is closed (unregister) or the first write fails, closing the connection
// either way.
func (c *Client) WritePump() {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Printf("ws write to %s failed: %v", c.UserID, err)
				return
			}
		}
	}
}
