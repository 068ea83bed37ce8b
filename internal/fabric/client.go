package fabric

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var (
	ErrClientClosed = errors.New("connection closed")
	ErrBufferFull   = errors.New("connection buffer exceeded")
)

// Conn is the part of *websocket.Conn the write loop needs.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Client is one live transport connection. Outbound frames are queued on a
// bounded buffer and written by a single goroutine.
type Client struct {
	ID string

	mu    sync.Mutex
	info  ConnInfo
	ws    Conn
	send  chan []byte
	once  sync.Once
	close chan struct{}
}

// NewClient wraps ws. bufferSize bounds the outbound queue.
func NewClient(info ConnInfo, ws Conn, bufferSize int) *Client {
	if bufferSize <= 0 {
		bufferSize = 128
	}
	return &Client{
		ID:    info.ConnID,
		info:  info,
		ws:    ws,
		send:  make(chan []byte, bufferSize),
		close: make(chan struct{}),
	}
}

// Info returns the connection identity.
func (c *Client) Info() ConnInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

func (c *Client) bind(userID int) {
	c.mu.Lock()
	c.info.UserID = userID
	c.mu.Unlock()
}

// Send enqueues payload. A client whose buffer is full is closed so one slow
// reader cannot hold back the rest of a fan-out.
func (c *Client) Send(payload []byte) error {
	select {
	case <-c.close:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return ErrBufferFull
	}
}

// Done is closed once the client has been closed.
func (c *Client) Done() <-chan struct{} {
	return c.close
}

// Close terminates the connection and stops the write loop.
func (c *Client) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		if c.ws == nil {
			return
		}
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Client) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
