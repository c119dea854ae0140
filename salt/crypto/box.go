package crypto

import (
	"errors"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// SharedKeySize is the size of a precomputed box key.
	SharedKeySize = 32
	// NonceSize is the size of a secretbox nonce.
	NonceSize = 24
	// Overhead is the authentication tag added by Seal.
	Overhead = secretbox.Overhead
)

var (
	ErrInvalidSignature = errors.New("crypto: invalid signature")
)

// SharedKey is the symmetric key both peers derive from their exchange keys.
// It must never be serialized or logged.
type SharedKey [SharedKeySize]byte

// ComputeSharedKey derives the shared key from the local exchange secret and
// the peer's exchange public key (crypto_box_beforenm).
func ComputeSharedKey(myExchangeSecret, peerExchangePublic []byte) (SharedKey, error) {
	if len(myExchangeSecret) != ExchangeSecretSize || len(peerExchangePublic) != ExchangePublicSize {
		return SharedKey{}, ErrInvalidKeyLength
	}
	// Rejects low-order points, which box.Precompute would silently accept.
	if _, err := curve25519.X25519(myExchangeSecret, peerExchangePublic); err != nil {
		return SharedKey{}, ErrInvalidPublicKey
	}

	var sec, pub [32]byte
	copy(sec[:], myExchangeSecret)
	copy(pub[:], peerExchangePublic)
	defer Wipe(sec[:])

	var shared SharedKey
	box.Precompute((*[32]byte)(&shared), &pub, &sec)
	return shared, nil
}

// Seal encrypts and authenticates plaintext.
// The output is len(plaintext)+Overhead bytes; the nonce is not included.
func Seal(key *SharedKey, nonce *[NonceSize]byte, plaintext []byte) []byte {
	return secretbox.Seal(nil, plaintext, nonce, (*[32]byte)(key))
}

// Open verifies and decrypts a sealed message. Any corruption, including a
// truncated input, yields ErrInvalidSignature and no plaintext.
func Open(key *SharedKey, nonce *[NonceSize]byte, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < Overhead {
		return nil, ErrInvalidSignature
	}
	plaintext, ok := secretbox.Open(nil, ciphertext, nonce, (*[32]byte)(key))
	if !ok {
		return nil, ErrInvalidSignature
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// Wipe zeroes the key.
func (k *SharedKey) Wipe() {
	Wipe(k[:])
}
