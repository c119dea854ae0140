// Package websocket carries a Salt Channel over a WebSocket connection,
// one binary WebSocket message per Salt message.
package websocket

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TheusHen/saltchannel/salt/transport"
	ws "github.com/gorilla/websocket"
)

// Subprotocol is offered by Dial and accepted by Upgrade.
const Subprotocol = "saltchannel"

const closeTimeout = time.Second

var upgrader = ws.Upgrader{
	Subprotocols: []string{Subprotocol},
	// Browsers and tools connect from anywhere; peers are authenticated by
	// the handshake.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Conn adapts a WebSocket connection to transport.Channel. Text messages
// are skipped; pings and pongs are handled by gorilla.
type Conn struct {
	conn      *ws.Conn
	closeOnce sync.Once
	sentClose atomic.Bool
}

var _ transport.Channel = (*Conn)(nil)

func NewConn(conn *ws.Conn) *Conn {
	return &Conn{conn: conn}
}

// Upgrade accepts a WebSocket handshake on an HTTP request.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}

// Dial opens a WebSocket connection to url (ws:// or wss://).
func Dial(ctx context.Context, url string) (*Conn, error) {
	d := ws.Dialer{
		Subprotocols:     []string{Subprotocol},
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := d.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}

func (c *Conn) Read() ([]byte, error) {
	for {
		typ, msg, err := c.conn.ReadMessage()
		if err != nil {
			var ce *ws.CloseError
			if errors.As(err, &ce) || errors.Is(err, net.ErrClosed) {
				return nil, transport.ErrClosed
			}
			return nil, err
		}
		if typ == ws.BinaryMessage {
			return msg, nil
		}
	}
}

// Write sends each message as one binary frame. With last set a close frame
// follows, after which the peer's Read returns transport.ErrClosed.
func (c *Conn) Write(last bool, messages ...[]byte) error {
	if c.sentClose.Load() {
		return transport.ErrClosed
	}
	for _, m := range messages {
		if err := c.conn.WriteMessage(ws.BinaryMessage, m); err != nil {
			return err
		}
	}
	if last {
		c.sentClose.Store(true)
		msg := ws.FormatCloseMessage(ws.CloseNormalClosure, "")
		return c.conn.WriteControl(ws.CloseMessage, msg, time.Now().Add(closeTimeout))
	}
	return nil
}

// Close sends a close frame if none was sent and closes the connection.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if !c.sentClose.Load() {
			msg := ws.FormatCloseMessage(ws.CloseNormalClosure, "")
			_ = c.conn.WriteControl(ws.CloseMessage, msg, time.Now().Add(closeTimeout))
		}
		err = c.conn.Close()
	})
	return err
}

func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }
