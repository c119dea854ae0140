package record

import (
	"encoding/binary"
	"errors"

	"github.com/TheusHen/saltchannel/salt/crypto"
)

var (
	ErrCounterExhausted = errors.New("record: nonce counter exhausted")
)

const (
	// ClientInitial is the first nonce value used by the client.
	ClientInitial uint64 = 0
	// ServerInitial is the first nonce value used by the server.
	ServerInitial uint64 = 1 << 63

	// MaxRecords is the number of records one direction may carry.
	MaxRecords uint64 = 1 << 63
)

// Role selects which direction uses which counter range.
type Role uint8

const (
	Client Role = iota + 1
	Server
)

func (r Role) String() string {
	switch r {
	case Client:
		return "client"
	case Server:
		return "server"
	default:
		return "unknown"
	}
}

// sendInitial is the counter base for records this role encrypts.
func (r Role) sendInitial() uint64 {
	if r == Server {
		return ServerInitial
	}
	return ClientInitial
}

// recvInitial is the counter base for records this role decrypts.
func (r Role) recvInitial() uint64 {
	if r == Server {
		return ClientInitial
	}
	return ServerInitial
}

// Counter is a monotonic per-direction nonce counter.
type Counter struct {
	base uint64
	n    uint64
}

// NewCounter returns a counter starting at initial.
func NewCounter(initial uint64) Counter {
	return Counter{base: initial}
}

// Value returns the nonce value the next record will use.
func (c Counter) Value() uint64 { return c.base + c.n }

// Initial returns the first value of the counter.
func (c Counter) Initial() uint64 { return c.base }

// Remaining returns how many records may still be processed.
func (c Counter) Remaining() uint64 { return MaxRecords - c.n }

func (c *Counter) nonce() (*[crypto.NonceSize]byte, error) {
	if c.n >= MaxRecords {
		return nil, ErrCounterExhausted
	}
	var nonce [crypto.NonceSize]byte
	binary.LittleEndian.PutUint64(nonce[:8], c.Value())
	return &nonce, nil
}

func (c *Counter) advance() { c.n++ }
