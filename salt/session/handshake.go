package session

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/TheusHen/saltchannel/salt/crypto"
	"github.com/TheusHen/saltchannel/salt/identity"
	"github.com/TheusHen/saltchannel/salt/protocol"
	"github.com/TheusHen/saltchannel/salt/record"
	"github.com/TheusHen/saltchannel/salt/transport"
	"github.com/pion/logging"
)

const loggerScope = "salt-session"

// ClientConfig configures a client handshake. The zero value is usable.
type ClientConfig struct {
	// Rand is the source for the ephemeral key. Defaults to crypto/rand.Reader.
	Rand io.Reader

	// EphemeralKeyPair, if set, is used instead of generating one. The
	// handshake works on a copy.
	EphemeralKeyPair *crypto.ExchangeKeyPair

	// ExpectedServerKey pins the server's signing key. M4 carrying any
	// other key fails the handshake with ErrUnexpectedPeer.
	ExpectedServerKey ed25519.PublicKey

	// LoggerFactory creates the "salt-session" logger. Nil disables logging.
	LoggerFactory logging.LoggerFactory
}

// ServerConfig configures a server handshake. The zero value is usable.
type ServerConfig struct {
	Rand             io.Reader
	EphemeralKeyPair *crypto.ExchangeKeyPair

	// BufferM2 holds M2 back and sends it together with M4 in a single
	// transport write, saving a round of small writes. The server signature
	// covers only the ephemeral keys, so it can go out before M3 arrives.
	// The client still has to pass M3 verification before Handshake
	// returns a Channel.
	BufferM2 bool

	// Authorize is called with the client's verified signing key. A non-nil
	// error fails the handshake with ErrUnauthorizedPeer.
	Authorize func(id identity.PeerID, signingKey ed25519.PublicKey) error

	LoggerFactory logging.LoggerFactory
}

// Client runs the client side of one handshake.
type Client struct {
	ch    transport.Channel
	keys  crypto.SigningKeyPair
	cfg   ClientConfig
	state State
	log   logging.LeveledLogger
}

// Server runs the server side of one handshake.
type Server struct {
	ch    transport.Channel
	keys  crypto.SigningKeyPair
	cfg   ServerConfig
	state State
	log   logging.LeveledLogger
}

// NewClient prepares a client handshake over ch, authenticated by keys.
// cfg may be nil.
func NewClient(ch transport.Channel, keys crypto.SigningKeyPair, cfg *ClientConfig) *Client {
	c := &Client{ch: ch, keys: keys}
	if cfg != nil {
		c.cfg = *cfg
	}
	if c.cfg.Rand == nil {
		c.cfg.Rand = rand.Reader
	}
	if c.cfg.LoggerFactory != nil {
		c.log = c.cfg.LoggerFactory.NewLogger(loggerScope)
	}
	return c
}

// NewServer prepares a server handshake over ch, authenticated by keys.
// cfg may be nil.
func NewServer(ch transport.Channel, keys crypto.SigningKeyPair, cfg *ServerConfig) *Server {
	s := &Server{ch: ch, keys: keys}
	if cfg != nil {
		s.cfg = *cfg
	}
	if s.cfg.Rand == nil {
		s.cfg.Rand = rand.Reader
	}
	if s.cfg.LoggerFactory != nil {
		s.log = s.cfg.LoggerFactory.NewLogger(loggerScope)
	}
	return s
}

// HandshakeClient runs a client handshake with the given configuration.
func HandshakeClient(ch transport.Channel, keys crypto.SigningKeyPair, cfg *ClientConfig) (*Channel, error) {
	return NewClient(ch, keys, cfg).Handshake()
}

// HandshakeServer runs a server handshake with the given configuration.
func HandshakeServer(ch transport.Channel, keys crypto.SigningKeyPair, cfg *ServerConfig) (*Channel, error) {
	return NewServer(ch, keys, cfg).Handshake()
}

func (c *Client) State() State { return c.state }

func (s *Server) State() State { return s.state }

// Handshake runs M1..M4. On success the state is StateEstablished and the
// returned Channel owns the shared key. On failure the state is StateFailed
// and no Channel is returned. It may only be called once.
func (c *Client) Handshake() (*Channel, error) {
	if c.state != StateNotStarted {
		return nil, ErrHandshakeDone
	}
	sc, err := c.handshake()
	if err != nil {
		c.state = StateFailed
		if c.log != nil {
			c.log.Warnf("client handshake failed: %v", err)
		}
		return nil, err
	}
	c.state = StateEstablished
	if c.log != nil {
		c.log.Debugf("client session established with %s", sc.PeerID().Short())
	}
	return sc, nil
}

func (c *Client) handshake() (*Channel, error) {
	eph, err := ephemeralKeyPair(c.cfg.EphemeralKeyPair, c.cfg.Rand)
	if err != nil {
		return nil, err
	}
	defer eph.Wipe()

	m1 := protocol.Hello{Version: protocol.ProtocolVersion, Ephemeral: eph.Public}
	if err := c.ch.Write(false, m1.Encode()); err != nil {
		return nil, transport.Wrap("write M1", err)
	}
	c.state = StateAwaitingPeerHello
	c.trace("sent M1")

	b, err := c.ch.Read()
	if err != nil {
		return nil, transport.Wrap("read M2", err)
	}
	m2, err := protocol.DecodeServerHello(b)
	if err != nil {
		return nil, err
	}
	key, err := crypto.ComputeSharedKey(eph.Secret[:], m2.Ephemeral[:])
	if err != nil {
		return nil, fmt.Errorf("%w: M2: %w", protocol.ErrProtocolViolation, err)
	}
	eph.Wipe()
	c.state = StatePeerHelloReceived
	c.trace("received M2")

	// The Channel keeps its own copy.
	defer key.Wipe()

	m3, err := signedAuth(c.keys, eph.Public[:], m2.Ephemeral[:])
	if err != nil {
		return nil, err
	}
	if err := c.ch.Write(false, m3.Encode(protocol.MessageTypeClientAuth)); err != nil {
		return nil, transport.Wrap("write M3", err)
	}
	c.state = StateSignatureExchanged
	c.trace("sent M3")

	b, err = c.ch.Read()
	if err != nil {
		return nil, transport.Wrap("read M4", err)
	}
	m4, err := protocol.DecodeAuth(b, protocol.MessageTypeServerAuth)
	if err != nil {
		return nil, err
	}
	if c.cfg.ExpectedServerKey != nil && !bytes.Equal(c.cfg.ExpectedServerKey, m4.SigningKey[:]) {
		return nil, ErrUnexpectedPeer
	}
	if err := crypto.VerifyHandshake(m4.SigningKey[:], eph.Public[:], m2.Ephemeral[:], m4.Signature[:]); err != nil {
		return nil, fmt.Errorf("verify M4: %w", err)
	}
	c.trace("verified M4")

	return newChannel(c.ch, key, record.Client, m4.SigningKey[:], c.log), nil
}

func (c *Client) trace(msg string) {
	if c.log != nil {
		c.log.Trace(msg)
	}
}

// Handshake runs M1..M4 from the server side. A Channel is only returned
// once the client's M3 signature has been verified, whether or not M2 was
// buffered. It may only be called once.
func (s *Server) Handshake() (*Channel, error) {
	if s.state != StateNotStarted {
		return nil, ErrHandshakeDone
	}
	sc, err := s.handshake()
	if err != nil {
		s.state = StateFailed
		if s.log != nil {
			s.log.Warnf("server handshake failed: %v", err)
		}
		return nil, err
	}
	s.state = StateEstablished
	if s.log != nil {
		s.log.Debugf("server session established with %s", sc.PeerID().Short())
	}
	return sc, nil
}

func (s *Server) handshake() (*Channel, error) {
	s.state = StateAwaitingPeerHello
	b, err := s.ch.Read()
	if err != nil {
		return nil, transport.Wrap("read M1", err)
	}
	m1, err := protocol.DecodeHello(b)
	if err != nil {
		return nil, err
	}
	s.trace("received M1")

	eph, err := ephemeralKeyPair(s.cfg.EphemeralKeyPair, s.cfg.Rand)
	if err != nil {
		return nil, err
	}
	defer eph.Wipe()

	key, err := crypto.ComputeSharedKey(eph.Secret[:], m1.Ephemeral[:])
	if err != nil {
		return nil, fmt.Errorf("%w: M1: %w", protocol.ErrProtocolViolation, err)
	}
	eph.Wipe()
	s.state = StatePeerHelloReceived

	// The Channel keeps its own copy.
	defer key.Wipe()

	m2 := protocol.ServerHello{Ephemeral: eph.Public}.Encode()
	m4auth, err := signedAuth(s.keys, eph.Public[:], m1.Ephemeral[:])
	if err != nil {
		return nil, err
	}
	m4 := m4auth.Encode(protocol.MessageTypeServerAuth)

	if s.cfg.BufferM2 {
		if err := s.ch.Write(false, m2, m4); err != nil {
			return nil, transport.Wrap("write M2+M4", err)
		}
		s.state = StateSignatureExchanged
		s.trace("sent M2 and M4")
	} else {
		if err := s.ch.Write(false, m2); err != nil {
			return nil, transport.Wrap("write M2", err)
		}
		s.trace("sent M2")
	}

	b, err = s.ch.Read()
	if err != nil {
		return nil, transport.Wrap("read M3", err)
	}
	m3, err := protocol.DecodeAuth(b, protocol.MessageTypeClientAuth)
	if err != nil {
		return nil, err
	}
	if err := crypto.VerifyHandshake(m3.SigningKey[:], eph.Public[:], m1.Ephemeral[:], m3.Signature[:]); err != nil {
		return nil, fmt.Errorf("verify M3: %w", err)
	}
	s.trace("verified M3")

	if s.cfg.Authorize != nil {
		peer := ed25519.PublicKey(append([]byte(nil), m3.SigningKey[:]...))
		if err := s.cfg.Authorize(identity.PeerIDFromPublicKey(peer), peer); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorizedPeer, err)
		}
	}

	if !s.cfg.BufferM2 {
		if err := s.ch.Write(false, m4); err != nil {
			return nil, transport.Wrap("write M4", err)
		}
		s.state = StateSignatureExchanged
		s.trace("sent M4")
	}

	return newChannel(s.ch, key, record.Server, m3.SigningKey[:], s.log), nil
}

func (s *Server) trace(msg string) {
	if s.log != nil {
		s.log.Trace(msg)
	}
}

func ephemeralKeyPair(fixed *crypto.ExchangeKeyPair, rng io.Reader) (crypto.ExchangeKeyPair, error) {
	if fixed != nil {
		return *fixed, nil
	}
	return crypto.GenerateExchangeKeyPair(rng)
}

func signedAuth(keys crypto.SigningKeyPair, ownEphemeral, peerEphemeral []byte) (protocol.Auth, error) {
	sig, err := crypto.SignHandshake(keys, ownEphemeral, peerEphemeral)
	if err != nil {
		return protocol.Auth{}, err
	}
	return protocol.NewAuth(keys.Public, sig)
}
