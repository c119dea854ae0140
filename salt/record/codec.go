package record

import (
	"errors"

	"github.com/TheusHen/saltchannel/salt/crypto"
)

var (
	ErrCodecFailed = errors.New("record: codec failed earlier and cannot be used")
)

// Overhead is the number of bytes a record adds to its plaintext.
const Overhead = crypto.Overhead

// Codec encrypts outgoing and decrypts incoming records for one side of a
// session. It is not safe for concurrent use.
type Codec struct {
	key    crypto.SharedKey
	send   Counter
	recv   Counter
	failed bool
}

// NewCodec creates a codec for the given role with fresh counters.
func NewCodec(key crypto.SharedKey, role Role) *Codec {
	return &Codec{
		key:  key,
		send: NewCounter(role.sendInitial()),
		recv: NewCounter(role.recvInitial()),
	}
}

// Encrypt seals plaintext with the next send nonce and advances the send
// counter.
func (c *Codec) Encrypt(plaintext []byte) ([]byte, error) {
	if c.failed {
		return nil, ErrCodecFailed
	}
	nonce, err := c.send.nonce()
	if err != nil {
		c.failed = true
		return nil, err
	}
	out := crypto.Seal(&c.key, nonce, plaintext)
	c.send.advance()
	return out, nil
}

// EncryptAll seals messages in order. Either every message is sealed or the
// send counter is left untouched.
func (c *Codec) EncryptAll(messages [][]byte) ([][]byte, error) {
	if c.failed {
		return nil, ErrCodecFailed
	}
	if uint64(len(messages)) > c.send.Remaining() {
		c.failed = true
		return nil, ErrCounterExhausted
	}
	out := make([][]byte, 0, len(messages))
	for _, m := range messages {
		rec, err := c.Encrypt(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Decrypt opens a record with the expected receive nonce. On success the
// receive counter advances; on failure it does not, and the codec refuses
// all further work.
func (c *Codec) Decrypt(rec []byte) ([]byte, error) {
	if c.failed {
		return nil, ErrCodecFailed
	}
	nonce, err := c.recv.nonce()
	if err != nil {
		c.failed = true
		return nil, err
	}
	plaintext, err := crypto.Open(&c.key, nonce, rec)
	if err != nil {
		c.failed = true
		return nil, err
	}
	c.recv.advance()
	return plaintext, nil
}

// SendCounter returns the nonce value of the next outgoing record.
func (c *Codec) SendCounter() uint64 { return c.send.Value() }

// RecvCounter returns the nonce value expected on the next incoming record.
func (c *Codec) RecvCounter() uint64 { return c.recv.Value() }

// Failed reports whether the codec has hit a fatal error.
func (c *Codec) Failed() bool { return c.failed }

// Wipe zeroes the key and disables the codec.
func (c *Codec) Wipe() {
	c.key.Wipe()
	c.failed = true
}
