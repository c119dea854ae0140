package salt

import (
	"context"
	"crypto/ed25519"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/TheusHen/saltchannel/salt/crypto"
	"github.com/TheusHen/saltchannel/salt/identity"
	"github.com/TheusHen/saltchannel/salt/session"
	"github.com/TheusHen/saltchannel/salt/transport"
	"github.com/TheusHen/saltchannel/salt/transport/quic"
	"github.com/TheusHen/saltchannel/salt/transport/websocket"
	"github.com/pion/logging"
)

var ErrServerClosed = errors.New("salt: server closed")

// Handler serves one established session. The server closes the session
// when ServeSession returns.
type Handler interface {
	ServeSession(ch *session.Channel) error
}

type HandlerFunc func(ch *session.Channel) error

func (f HandlerFunc) ServeSession(ch *session.Channel) error { return f(ch) }

// EchoHandler writes every message it reads straight back. It returns nil
// once the client sends its last message.
var EchoHandler = HandlerFunc(func(ch *session.Channel) error {
	for {
		msg, err := ch.Read()
		if errors.Is(err, transport.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := ch.Write(false, msg); err != nil {
			return err
		}
	}
})

// ServerConfig configures a Server.
type ServerConfig struct {
	// Keys is the server's long-term signing key pair.
	Keys crypto.SigningKeyPair

	// BufferM2 and Authorize are passed to every handshake; see
	// session.ServerConfig.
	BufferM2  bool
	Authorize func(id identity.PeerID, signingKey ed25519.PublicKey) error

	// Handler defaults to EchoHandler.
	Handler Handler

	LoggerFactory logging.LoggerFactory
}

// Server accepts connections and runs each one in its own goroutine.
type Server struct {
	cfg ServerConfig
	log logging.LeveledLogger

	mu        sync.Mutex
	wg        sync.WaitGroup
	closed    bool
	listeners map[io.Closer]struct{}
	conns     map[io.Closer]struct{}
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if _, err := crypto.NewSigningKeyPair(cfg.Keys.Secret, cfg.Keys.Public); err != nil {
		return nil, err
	}
	if cfg.Handler == nil {
		cfg.Handler = EchoHandler
	}
	s := &Server{
		cfg:       cfg,
		listeners: map[io.Closer]struct{}{},
		conns:     map[io.Closer]struct{}{},
	}
	if cfg.LoggerFactory != nil {
		s.log = cfg.LoggerFactory.NewLogger("salt-server")
	}
	return s, nil
}

// Serve accepts TCP (or any stream) connections from ln until Close.
func (s *Server) Serve(ln net.Listener) error {
	if !s.addListener(ln) {
		return ErrServerClosed
	}
	defer s.removeListener(ln)
	if s.log != nil {
		s.log.Infof("serving on %s", ln.Addr())
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			return err
		}
		if !s.track(conn) {
			_ = conn.Close()
			return ErrServerClosed
		}
		go func() {
			defer s.untrack(conn)
			s.serve(transport.NewStream(conn), conn.RemoteAddr())
		}()
	}
}

// ServeQUIC accepts QUIC connections from ln until Close.
func (s *Server) ServeQUIC(ln *quic.Listener) error {
	if !s.addListener(ln) {
		return ErrServerClosed
	}
	defer s.removeListener(ln)
	if s.log != nil {
		s.log.Infof("serving QUIC on %s", ln.Addr())
	}

	for {
		conn, err := ln.Accept(context.Background())
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			return err
		}
		if !s.track(conn) {
			_ = conn.Close()
			return ErrServerClosed
		}
		go func() {
			defer s.untrack(conn)
			s.serve(conn, conn.RemoteAddr())
		}()
	}
}

// ServeHTTP upgrades the request to a WebSocket and serves it. The HTTP
// server already runs each request in its own goroutine.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Upgrade(w, r)
	if err != nil {
		if s.log != nil {
			s.log.Warnf("websocket upgrade from %s: %v", r.RemoteAddr, err)
		}
		return
	}
	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)
	s.serve(conn, conn.RemoteAddr())
}

// ServeChannel runs one handshake and the handler on ch, then closes ch if
// it is an io.Closer.
func (s *Server) ServeChannel(ch transport.Channel) error {
	sc, err := session.HandshakeServer(ch, s.cfg.Keys, &session.ServerConfig{
		BufferM2:      s.cfg.BufferM2,
		Authorize:     s.cfg.Authorize,
		LoggerFactory: s.cfg.LoggerFactory,
	})
	if err != nil {
		if c, ok := ch.(io.Closer); ok {
			_ = c.Close()
		}
		return err
	}
	defer sc.Close()
	return s.cfg.Handler.ServeSession(sc)
}

func (s *Server) serve(ch transport.Channel, remote net.Addr) {
	if err := s.ServeChannel(ch); err != nil && s.log != nil {
		s.log.Warnf("connection from %s: %v", remote, err)
	}
}

// Close stops all listeners, closes every open connection and waits for
// their goroutines to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	for l := range s.listeners {
		_ = l.Close()
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) addListener(l io.Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.listeners[l] = struct{}{}
	return true
}

func (s *Server) removeListener(l io.Closer) {
	s.mu.Lock()
	delete(s.listeners, l)
	s.mu.Unlock()
}

func (s *Server) track(c io.Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c io.Closer) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.wg.Done()
}
