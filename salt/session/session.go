package session

import (
	"crypto/ed25519"
	"io"

	"github.com/TheusHen/saltchannel/salt/crypto"
	"github.com/TheusHen/saltchannel/salt/identity"
	"github.com/TheusHen/saltchannel/salt/record"
	"github.com/TheusHen/saltchannel/salt/transport"
	"github.com/pion/logging"
)

// Channel is an established Salt Channel session. It implements
// transport.Channel, so anything speaking that contract can run inside it.
//
// The first failure of Read or Write is returned as a *SessionError and
// ends the session; every later call fails with ErrSessionClosed.
type Channel struct {
	ch     transport.Channel
	codec  *record.Codec
	peer   ed25519.PublicKey
	peerID identity.PeerID
	closed bool
	done   bool
	log    logging.LeveledLogger
}

var _ transport.Channel = (*Channel)(nil)

func newChannel(ch transport.Channel, key crypto.SharedKey, role record.Role, peerSigningKey []byte, log logging.LeveledLogger) *Channel {
	peer := ed25519.PublicKey(append([]byte(nil), peerSigningKey...))
	return &Channel{
		ch:     ch,
		codec:  record.NewCodec(key, role),
		peer:   peer,
		peerID: identity.PeerIDFromPublicKey(peer),
		log:    log,
	}
}

// Write encrypts every message, then hands the records to the transport in
// one write. last is passed through unchanged.
func (c *Channel) Write(last bool, messages ...[]byte) error {
	if c.closed {
		return &SessionError{Op: "write", Err: ErrSessionClosed}
	}
	records, err := c.codec.EncryptAll(messages)
	if err != nil {
		return c.fail("write", err)
	}
	if err := c.ch.Write(last, records...); err != nil {
		return c.fail("write", transport.Wrap("write", err))
	}
	return nil
}

// Read returns the next decrypted message.
func (c *Channel) Read() ([]byte, error) {
	if c.closed {
		return nil, &SessionError{Op: "read", Err: ErrSessionClosed}
	}
	rec, err := c.ch.Read()
	if err != nil {
		return nil, c.fail("read", transport.Wrap("read", err))
	}
	msg, err := c.codec.Decrypt(rec)
	if err != nil {
		return nil, c.fail("read", err)
	}
	return msg, nil
}

// Close wipes the session key and closes the transport if it can be
// closed. It is also needed after a failed Read or Write.
func (c *Channel) Close() error {
	if c.done {
		return nil
	}
	c.done = true
	c.closed = true
	c.codec.Wipe()
	if cl, ok := c.ch.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func (c *Channel) fail(op string, err error) error {
	if c.log != nil {
		c.log.Debugf("session with %s ended on %s: %v", c.peerID.Short(), op, err)
	}
	c.closed = true
	c.codec.Wipe()
	return &SessionError{Op: op, Err: err}
}

// PeerSigningKey returns the peer's authenticated long-term public key.
func (c *Channel) PeerSigningKey() ed25519.PublicKey {
	return append(ed25519.PublicKey(nil), c.peer...)
}

func (c *Channel) PeerID() identity.PeerID { return c.peerID }

// SendCounter returns the nonce counter of the next outgoing record.
func (c *Channel) SendCounter() uint64 { return c.codec.SendCounter() }

// RecvCounter returns the nonce counter expected on the next incoming record.
func (c *Channel) RecvCounter() uint64 { return c.codec.RecvCounter() }

// Transport returns the channel the session runs on.
func (c *Channel) Transport() transport.Channel { return c.ch }
