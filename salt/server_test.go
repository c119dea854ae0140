package salt

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TheusHen/saltchannel/salt/crypto"
	"github.com/TheusHen/saltchannel/salt/identity"
	"github.com/TheusHen/saltchannel/salt/session"
	"github.com/TheusHen/saltchannel/salt/transport"
	"github.com/TheusHen/saltchannel/salt/transport/quic"
	"github.com/pion/transport/v3/test"
)

func keys(t *testing.T, seed int64) crypto.SigningKeyPair {
	t.Helper()
	kp, err := crypto.GenerateSigningKeyPair(crypto.InsecureRand(seed))
	if err != nil {
		t.Fatalf("GenerateSigningKeyPair: %v", err)
	}
	return kp
}

func echo(t *testing.T, ch *session.Channel) {
	t.Helper()
	if err := ch.Write(false, []byte{1, 2, 3}, []byte("second")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, want := range [][]byte{{1, 2, 3}, []byte("second")} {
		got, err := ch.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("echo mismatch: got %v want %v", got, want)
		}
	}
}

func startTCP(t *testing.T, cfg ServerConfig) (*Server, string, chan error) {
	t.Helper()
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()
	return srv, ln.Addr().String(), done
}

func TestServerTCPEcho(t *testing.T) {
	report := test.CheckRoutines(t)
	defer report()
	lim := test.TimeOut(10 * time.Second)
	defer lim.Stop()

	for _, buffer := range []bool{false, true} {
		serverKeys := keys(t, 2)
		srv, addr, done := startTCP(t, ServerConfig{Keys: serverKeys, BufferM2: buffer})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		ch, err := DialTCP(ctx, addr, keys(t, 1), &session.ClientConfig{ExpectedServerKey: serverKeys.Public})
		cancel()
		if err != nil {
			t.Fatalf("DialTCP: %v", err)
		}
		echo(t, ch)
		if err := ch.Write(true); err != nil {
			t.Fatalf("Write last: %v", err)
		}
		_ = ch.Close()

		if err := srv.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if err := <-done; err != ErrServerClosed {
			t.Fatalf("expected ErrServerClosed, got %v", err)
		}
	}
}

func TestServerCloseUnblocksIdleConnection(t *testing.T) {
	report := test.CheckRoutines(t)
	defer report()
	lim := test.TimeOut(10 * time.Second)
	defer lim.Stop()

	srv, addr, done := startTCP(t, ServerConfig{Keys: keys(t, 2)})
	ch, err := DialTCP(context.Background(), addr, keys(t, 1), nil)
	if err != nil {
		t.Fatalf("DialTCP: %v", err)
	}
	defer ch.Close()

	_ = srv.Close()
	<-done
	if _, err := ch.Read(); !errors.Is(err, transport.ErrTransport) {
		t.Fatalf("expected transport error after server close, got %v", err)
	}
}

func TestServerAuthorize(t *testing.T) {
	lim := test.TimeOut(10 * time.Second)
	defer lim.Stop()

	allowed := keys(t, 1)
	srv, addr, done := startTCP(t, ServerConfig{
		Keys: keys(t, 2),
		Authorize: func(id identity.PeerID, key ed25519.PublicKey) error {
			if !bytes.Equal(key, allowed.Public) {
				return errors.New("unknown client")
			}
			return nil
		},
	})
	defer func() {
		_ = srv.Close()
		<-done
	}()

	ch, err := DialTCP(context.Background(), addr, allowed, nil)
	if err != nil {
		t.Fatalf("allowed client: %v", err)
	}
	echo(t, ch)
	_ = ch.Close()

	if _, err := DialTCP(context.Background(), addr, keys(t, 3), nil); !errors.Is(err, transport.ErrTransport) {
		t.Fatalf("rejected client must see the connection drop, got %v", err)
	}
}

func TestServerCustomHandler(t *testing.T) {
	lim := test.TimeOut(10 * time.Second)
	defer lim.Stop()

	seen := make(chan identity.PeerID, 1)
	client := keys(t, 1)
	srv, addr, done := startTCP(t, ServerConfig{
		Keys: keys(t, 2),
		Handler: HandlerFunc(func(ch *session.Channel) error {
			seen <- ch.PeerID()
			return ch.Write(true, []byte("hi"))
		}),
	})
	defer func() {
		_ = srv.Close()
		<-done
	}()

	ch, err := DialTCP(context.Background(), addr, client, nil)
	if err != nil {
		t.Fatalf("DialTCP: %v", err)
	}
	defer ch.Close()
	if got, err := ch.Read(); err != nil || string(got) != "hi" {
		t.Fatalf("unexpected Read %q, %v", got, err)
	}
	if _, err := ch.Read(); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("expected ErrClosed after last, got %v", err)
	}
	if id := <-seen; id != identity.PeerIDFromPublicKey(client.Public) {
		t.Fatalf("handler saw wrong peer")
	}
}

func TestServerWebSocketEcho(t *testing.T) {
	lim := test.TimeOut(10 * time.Second)
	defer lim.Stop()

	srv, err := NewServer(ServerConfig{Keys: keys(t, 2), BufferM2: true})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	hs := httptest.NewServer(srv)
	defer hs.Close()
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http")
	ch, err := DialWebSocket(context.Background(), url, keys(t, 1), nil)
	if err != nil {
		t.Fatalf("DialWebSocket: %v", err)
	}
	defer ch.Close()
	echo(t, ch)
}

func TestServerQUICEcho(t *testing.T) {
	lim := test.TimeOut(20 * time.Second)
	defer lim.Stop()

	srv, err := NewServer(ServerConfig{Keys: keys(t, 2)})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ln, err := quic.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("quic.Listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.ServeQUIC(ln) }()
	defer func() {
		_ = srv.Close()
		<-done
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ch, err := DialQUIC(ctx, ln.Addr().String(), keys(t, 1), nil)
	if err != nil {
		t.Fatalf("DialQUIC: %v", err)
	}
	defer ch.Close()
	echo(t, ch)
}

func TestNewServerRejectsBadKeys(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); !errors.Is(err, crypto.ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
}
