package client

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/helmgart/chatsync/backend/internal/model/chat"
)

var ErrUnknownMessage = errors.New("unknown message id")

// Client maintains a live, locally-optimistic copy of one room's log.
// Local submissions become visible immediately and are reconciled when
// their broadcast echo arrives; the server stays the source of truth.
type Client struct {
	conn *websocket.Conn
	user string

	// mu guards the view and serializes outbound writes, so the local
	// insert order always matches the transmit order.
	mu   sync.Mutex
	view *View

	onChange func(messages []chat.Message)
	done     chan struct{}
}

// Option configures a Client before its read loop starts.
type Option func(*Client)

// WithChangeHandler registers fn to run with an ordered snapshot after
// every merge. fn runs on the read loop goroutine.
func WithChangeHandler(fn func(messages []chat.Message)) Option {
	return func(c *Client) { c.onChange = fn }
}

// Dial connects to a room endpoint (ws://host/api/ws/{room}) and
// starts merging broadcasts. user is the display identity attached to
// every submission.
func Dial(ctx context.Context, url, user string, opts ...Option) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn: conn,
		user: user,
		view: NewView(),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.readLoop()
	return c, nil
}

// Send submits new content: the message is inserted into the local
// view first, then transmitted. The returned message carries the
// freshly assigned id.
func (c *Client) Send(content string) (chat.Message, error) {
	m := chat.Message{
		ID:      uuid.NewString(),
		Content: content,
		User:    c.user,
		Role:    chat.RoleUser,
	}
	if err := c.submit(chat.AddFrame(m)); err != nil {
		return chat.Message{}, err
	}
	return m, nil
}

// Update revises an earlier message by id, optimistically and then
// over the wire.
func (c *Client) Update(id, content string) error {
	c.mu.Lock()
	current, ok := c.view.Get(id)
	c.mu.Unlock()
	if !ok {
		return ErrUnknownMessage
	}

	current.Content = content
	return c.submit(chat.UpdateFrame(current))
}

// Messages returns the current view in insertion order.
func (c *Client) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Messages()
}

// Done is closed once the connection has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) submit(f chat.Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.view.Apply(f)
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer c.conn.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		frame, err := chat.DecodeFrame(data)
		if err != nil {
			continue
		}

		c.mu.Lock()
		c.view.Apply(frame)
		var snapshot []chat.Message
		if c.onChange != nil {
			snapshot = c.view.Messages()
		}
		c.mu.Unlock()

		if c.onChange != nil {
			c.onChange(snapshot)
		}
	}
}
