package crypto

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

const (
	// SigningSecretSize is the size of an Ed25519 secret key (seed || public).
	SigningSecretSize = ed25519.PrivateKeySize
	// SigningPublicSize is the size of an Ed25519 public key.
	SigningPublicSize = ed25519.PublicKeySize
	// SignatureSize is the size of an Ed25519 signature.
	SignatureSize = ed25519.SignatureSize

	// ExchangeSecretSize is the size of an X25519 secret key.
	ExchangeSecretSize = 32
	// ExchangePublicSize is the size of an X25519 public key.
	ExchangePublicSize = 32
)

var (
	ErrInvalidKeyLength = errors.New("crypto: invalid key length")
	ErrInvalidPublicKey = errors.New("crypto: invalid X25519 public key")
	ErrKeyPairMismatch  = errors.New("crypto: public key does not match secret key")
)

// SigningKeyPair is a long-term Ed25519 identity.
type SigningKeyPair struct {
	Secret ed25519.PrivateKey
	Public ed25519.PublicKey
}

// ExchangeKeyPair is an ephemeral X25519 key pair.
type ExchangeKeyPair struct {
	Secret [ExchangeSecretSize]byte
	Public [ExchangePublicSize]byte
}

// GenerateSigningKeyPair creates a signing key pair from rng.
func GenerateSigningKeyPair(rng io.Reader) (SigningKeyPair, error) {
	pub, sec, err := ed25519.GenerateKey(rng)
	if err != nil {
		return SigningKeyPair{}, err
	}
	return SigningKeyPair{Secret: sec, Public: pub}, nil
}

// NewSigningKeyPair validates and copies an existing signing key pair.
func NewSigningKeyPair(secret, public []byte) (SigningKeyPair, error) {
	if len(secret) != SigningSecretSize || len(public) != SigningPublicSize {
		return SigningKeyPair{}, ErrInvalidKeyLength
	}
	// An Ed25519 secret key carries its public half in the last 32 bytes.
	if !bytes.Equal(secret[32:], public) {
		return SigningKeyPair{}, ErrKeyPairMismatch
	}
	return SigningKeyPair{
		Secret: append(ed25519.PrivateKey(nil), secret...),
		Public: append(ed25519.PublicKey(nil), public...),
	}, nil
}

// GenerateExchangeKeyPair creates an ephemeral exchange key pair from rng.
func GenerateExchangeKeyPair(rng io.Reader) (ExchangeKeyPair, error) {
	pub, sec, err := box.GenerateKey(rng)
	if err != nil {
		return ExchangeKeyPair{}, err
	}
	kp := ExchangeKeyPair{Secret: *sec, Public: *pub}
	Wipe(sec[:])
	return kp, nil
}

// NewExchangeKeyPair validates and copies an existing exchange key pair.
func NewExchangeKeyPair(secret, public []byte) (ExchangeKeyPair, error) {
	if len(secret) != ExchangeSecretSize || len(public) != ExchangePublicSize {
		return ExchangeKeyPair{}, ErrInvalidKeyLength
	}
	var kp ExchangeKeyPair
	copy(kp.Secret[:], secret)
	curve25519.ScalarBaseMult(&kp.Public, &kp.Secret)
	if !bytes.Equal(kp.Public[:], public) {
		Wipe(kp.Secret[:])
		return ExchangeKeyPair{}, ErrKeyPairMismatch
	}
	return kp, nil
}

// Wipe clears the secret half of the key pair.
func (kp *ExchangeKeyPair) Wipe() {
	Wipe(kp.Secret[:])
}
