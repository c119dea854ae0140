// Package quic carries a Salt Channel over one bidirectional QUIC stream.
package quic

import (
	"context"
	"net"

	"github.com/TheusHen/saltchannel/salt/transport"
	q "github.com/quic-go/quic-go"
)

// Conn is one QUIC connection and the stream the session runs on.
//
// On the accepting side the stream is taken on first Read or Write, so a
// slow client never holds up the listener.
type Conn struct {
	conn   q.Connection
	stream *transport.Stream
}

var _ transport.Channel = (*Conn)(nil)

// halfCloser lets transport.Stream finish the send direction on last.
type halfCloser struct {
	q.Stream
}

func (s halfCloser) CloseWrite() error { return s.Stream.Close() }

func (c *Conn) open() (*transport.Stream, error) {
	if c.stream != nil {
		return c.stream, nil
	}
	st, err := c.conn.AcceptStream(c.conn.Context())
	if err != nil {
		return nil, err
	}
	c.stream = transport.NewStream(halfCloser{st})
	return c.stream, nil
}

func (c *Conn) Read() ([]byte, error) {
	st, err := c.open()
	if err != nil {
		return nil, err
	}
	return st.Read()
}

func (c *Conn) Write(last bool, messages ...[]byte) error {
	st, err := c.open()
	if err != nil {
		return err
	}
	return st.Write(last, messages...)
}

// Close closes the connection and with it the stream. It may be called
// from another goroutine to unblock Read.
func (c *Conn) Close() error { return c.conn.CloseWithError(0, "") }

func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

type Listener struct {
	inner *q.Listener
}

func Listen(addr string) (*Listener, error) {
	tlsConf, err := newTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := q.ListenAddr(addr, tlsConf, &q.Config{})
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln}, nil
}

// Accept waits for the next connection.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	conn, err := l.inner.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn}, nil
}

func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

func (l *Listener) Close() error { return l.inner.Close() }

// Dial connects to addr and opens the session stream. The server sees the
// stream once the first message (M1) is written on it.
func Dial(ctx context.Context, addr string) (*Conn, error) {
	tlsConf, err := newTLSConfig()
	if err != nil {
		return nil, err
	}
	conn, err := q.DialAddr(ctx, addr, tlsConf, &q.Config{})
	if err != nil {
		return nil, err
	}
	st, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "")
		return nil, err
	}
	return &Conn{conn: conn, stream: transport.NewStream(halfCloser{st})}, nil
}
