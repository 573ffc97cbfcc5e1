package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Client is a connection to a bridge Server.
type Client struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

// Dial connects to the bridge at url, e.g. URL(DefaultAddr).
func Dial(ctx context.Context, url string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.WithMessagef(err, "dialing %s", url)
	}
	return &Client{conn: conn}, nil
}

// Send forwards one line to the interpreter.
func (c *Client) Send(line string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteJSON(Message{Type: TypeLine, Data: line})
}

// Recv blocks for the next message from the server.
func (c *Client) Recv() (Message, error) {
	var m Message
	err := c.conn.ReadJSON(&m)
	return m, err
}

// Pump delivers output and prompts to write until the interpreter exits or
// the connection fails. It returns the exit code on a clean exit.
func (c *Client) Pump(write func(string)) (int, error) {
	for {
		m, err := c.Recv()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return 0, nil
			}
			return 0, err
		}
		switch m.Type {
		case TypeOutput, TypePrompt:
			write(m.Data)
		case TypeExit:
			return m.Code, nil
		}
	}
}

// Close tears the connection down.
func (c *Client) Close() error {
	c.wmu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.wmu.Unlock()
	return c.conn.Close()
}
