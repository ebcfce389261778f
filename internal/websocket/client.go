package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

// Client is one websocket connection for one authenticated user. A
// user can hold several clients (several devices) at once.
type Client struct {
	ID     string
	UserID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte

	mu      sync.Mutex
	closed  bool
	watches map[uuid.UUID]context.CancelFunc
}

func NewClient(conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:      uuid.New().String(),
		UserID:  userID,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		watches: make(map[uuid.UUID]context.CancelFunc),
	}
}

// Send queues a frame without blocking. A client that cannot keep up
// loses frames; every snapshot is complete, so the next one heals it.
// Frames sent after Close are dropped.
func (c *Client) Send(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// Close cancels the client's watches and closes the send channel. Watch
// goroutines may still be delivering snapshots when the client goes
// away, so Send and Close share a lock; closing twice is a no-op.
func (c *Client) Close() {
	c.cancelAll()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WriteLoop drains the send channel onto the connection and keeps the
// connection alive with pings.
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trackWatch stores the cancel for a conversation watch, cancelling
// any previous watch on the same conversation.
func (c *Client) trackWatch(conversationID uuid.UUID, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.watches[conversationID]; ok {
		prev()
	}
	c.watches[conversationID] = cancel
}

func (c *Client) cancelWatch(conversationID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.watches[conversationID]; ok {
		cancel()
		delete(c.watches, conversationID)
	}
}

func (c *Client) cancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, cancel := range c.watches {
		cancel()
		delete(c.watches, id)
	}
}
