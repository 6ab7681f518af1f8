package app

import (
	"encoding/json"
	"fmt"
	"sync"

	"event-trivia-service/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultSendBuffer is the number of outbound messages a session may have queued.
const DefaultSendBuffer = 32

// Conn is the message channel a session writes to. WriteJSON is only ever
// called from the session's own writer goroutine.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Client is one live connection: a table participant, a screen or the admin.
// Outbound messages go through a bounded queue drained by a dedicated writer,
// so handing a message to a client never blocks on the network.
type Client struct {
	ID string

	conn      Conn
	send      chan json.RawMessage
	done      chan struct{}
	finished  chan struct{}
	closeOnce sync.Once

	// guarded by Game.mu
	role  domain.Role
	table *Table
}

func NewClient(conn Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	c := &Client{
		ID:       uuid.NewString(),
		conn:     conn,
		send:     make(chan json.RawMessage, buffer),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go c.writePump()
	return c
}

// Send marshals v and queues it for delivery.
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", v, err)
	}
	return c.enqueue(data)
}

func (c *Client) enqueue(data json.RawMessage) error {
	select {
	case <-c.done:
		return domain.ErrSessionClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return domain.ErrSendBufferFull
	}
}

// Close stops accepting messages. Already queued messages are flushed before
// the connection is closed.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Alive reports whether the client still accepts messages.
func (c *Client) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Finished is closed once the writer has exited and the connection is closed.
func (c *Client) Finished() <-chan struct{} {
	return c.finished
}

func (c *Client) writePump() {
	defer close(c.finished)
	defer func() {
		if err := c.conn.Close(); err != nil {
			log.Debug().Err(err).Str("client_id", c.ID).Msg("close connection")
		}
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Str("client_id", c.ID).Msg("write failed, closing session")
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			return
		}
	}
}

func (c *Client) flush() {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}
