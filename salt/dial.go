package salt

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/TheusHen/saltchannel/salt/crypto"
	"github.com/TheusHen/saltchannel/salt/session"
	"github.com/TheusHen/saltchannel/salt/transport"
	"github.com/TheusHen/saltchannel/salt/transport/quic"
	"github.com/TheusHen/saltchannel/salt/transport/websocket"
)

// DialTCP connects to a Salt Channel server over TCP and runs the client
// handshake. A deadline on ctx also bounds the handshake. cfg may be nil.
func DialTCP(ctx context.Context, addr string, keys crypto.SigningKeyPair, cfg *session.ClientConfig) (*session.Channel, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, transport.Wrap("dial", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
		defer conn.SetDeadline(time.Time{})
	}
	return handshake(transport.NewStream(conn), conn, keys, cfg)
}

// DialQUIC connects over QUIC and runs the client handshake on a new stream.
func DialQUIC(ctx context.Context, addr string, keys crypto.SigningKeyPair, cfg *session.ClientConfig) (*session.Channel, error) {
	conn, err := quic.Dial(ctx, addr)
	if err != nil {
		return nil, transport.Wrap("dial", err)
	}
	return handshake(conn, conn, keys, cfg)
}

// DialWebSocket connects to a ws:// or wss:// URL and runs the client
// handshake.
func DialWebSocket(ctx context.Context, url string, keys crypto.SigningKeyPair, cfg *session.ClientConfig) (*session.Channel, error) {
	conn, err := websocket.Dial(ctx, url)
	if err != nil {
		return nil, transport.Wrap("dial", err)
	}
	return handshake(conn, conn, keys, cfg)
}

func handshake(ch transport.Channel, c io.Closer, keys crypto.SigningKeyPair, cfg *session.ClientConfig) (*session.Channel, error) {
	sc, err := session.HandshakeClient(ch, keys, cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return sc, nil
}
