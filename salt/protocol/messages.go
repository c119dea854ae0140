package protocol

import (
	"errors"
	"fmt"

	"github.com/TheusHen/saltchannel/salt/crypto"
)

var (
	ErrProtocolViolation = errors.New("protocol: protocol violation")
)

// Wire sizes of the handshake messages.
const (
	HelloSize       = 1 + 1 + crypto.ExchangePublicSize                     // M1
	ServerHelloSize = 1 + crypto.ExchangePublicSize                         // M2
	AuthSize        = 1 + crypto.SigningPublicSize + crypto.SignatureSize // M3, M4
)

// Hello is M1, sent by the client. It carries no long-term identity.
//
//	1 byte:  type (1)
//	1 byte:  protocol version
//	32 bytes: client ephemeral public key
type Hello struct {
	Version   byte
	Ephemeral [crypto.ExchangePublicSize]byte
}

// ServerHello is M2.
//
//	1 byte:  type (2)
//	32 bytes: server ephemeral public key
type ServerHello struct {
	Ephemeral [crypto.ExchangePublicSize]byte
}

// Auth is M3 (client) or M4 (server): the sender's long-term signing key and
// its signature over (own ephemeral, peer ephemeral).
//
//	1 byte:  type (3 or 4)
//	32 bytes: signing public key
//	64 bytes: signature
type Auth struct {
	SigningKey [crypto.SigningPublicSize]byte
	Signature  [crypto.SignatureSize]byte
}

func (h Hello) Encode() []byte {
	out := make([]byte, 0, HelloSize)
	out = append(out, byte(MessageTypeClientHello), h.Version)
	return append(out, h.Ephemeral[:]...)
}

func DecodeHello(b []byte) (Hello, error) {
	if err := expect(b, MessageTypeClientHello, HelloSize); err != nil {
		return Hello{}, err
	}
	h := Hello{Version: b[1]}
	if h.Version != ProtocolVersion {
		return Hello{}, fmt.Errorf("%w: unsupported version %d", ErrProtocolViolation, h.Version)
	}
	copy(h.Ephemeral[:], b[2:])
	return h, nil
}

func (h ServerHello) Encode() []byte {
	out := make([]byte, 0, ServerHelloSize)
	out = append(out, byte(MessageTypeServerHello))
	return append(out, h.Ephemeral[:]...)
}

func DecodeServerHello(b []byte) (ServerHello, error) {
	if err := expect(b, MessageTypeServerHello, ServerHelloSize); err != nil {
		return ServerHello{}, err
	}
	var h ServerHello
	copy(h.Ephemeral[:], b[1:])
	return h, nil
}

// NewAuth builds an Auth message from raw key and signature bytes.
func NewAuth(signingKey, signature []byte) (Auth, error) {
	if len(signingKey) != crypto.SigningPublicSize {
		return Auth{}, crypto.ErrInvalidKeyLength
	}
	if len(signature) != crypto.SignatureSize {
		return Auth{}, crypto.ErrInvalidSignature
	}
	var a Auth
	copy(a.SigningKey[:], signingKey)
	copy(a.Signature[:], signature)
	return a, nil
}

// Encode serializes the message with type t (M3 or M4).
func (a Auth) Encode(t MessageType) []byte {
	out := make([]byte, 0, AuthSize)
	out = append(out, byte(t))
	out = append(out, a.SigningKey[:]...)
	return append(out, a.Signature[:]...)
}

// DecodeAuth parses M3 or M4, whichever t names.
func DecodeAuth(b []byte, t MessageType) (Auth, error) {
	if err := expect(b, t, AuthSize); err != nil {
		return Auth{}, err
	}
	var a Auth
	copy(a.SigningKey[:], b[1:1+crypto.SigningPublicSize])
	copy(a.Signature[:], b[1+crypto.SigningPublicSize:])
	return a, nil
}

func expect(b []byte, t MessageType, size int) error {
	if len(b) == 0 {
		return fmt.Errorf("%w: empty message, expected %s", ErrProtocolViolation, t)
	}
	if got := MessageType(b[0]); got != t {
		return fmt.Errorf("%w: got %s, expected %s", ErrProtocolViolation, got, t)
	}
	if len(b) != size {
		return fmt.Errorf("%w: %s has %d bytes, expected %d", ErrProtocolViolation, t, len(b), size)
	}
	return nil
}
