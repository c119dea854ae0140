package identity

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/TheusHen/saltchannel/salt/crypto"
)

// A key file holds the 64-byte Ed25519 secret key as one line of hex. The
// public key is its last 32 bytes.

// SaveKeyPair writes kp to path, readable only by the owner.
func SaveKeyPair(path string, kp crypto.SigningKeyPair) error {
	if len(kp.Secret) != crypto.SigningSecretSize {
		return crypto.ErrInvalidKeyLength
	}
	data := hex.EncodeToString(kp.Secret) + "\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		return fmt.Errorf("identity: save key: %w", err)
	}
	return nil
}

// LoadKeyPair reads a key file written by SaveKeyPair.
func LoadKeyPair(path string) (crypto.SigningKeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return crypto.SigningKeyPair{}, fmt.Errorf("identity: load key: %w", err)
	}
	secret, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return crypto.SigningKeyPair{}, fmt.Errorf("identity: load key %s: %w", path, err)
	}
	defer crypto.Wipe(secret)
	if len(secret) != crypto.SigningSecretSize {
		return crypto.SigningKeyPair{}, fmt.Errorf("identity: load key %s: %w", path, crypto.ErrInvalidKeyLength)
	}
	return crypto.NewSigningKeyPair(secret, secret[32:])
}

// ParsePublicKeyHex decodes a hex Ed25519 public key, as printed by PublicKeyHex.
func ParsePublicKeyHex(s string) (ed25519.PublicKey, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("identity: parse public key: %w", err)
	}
	if len(b) != crypto.SigningPublicSize {
		return nil, fmt.Errorf("identity: parse public key: %w", crypto.ErrInvalidKeyLength)
	}
	return ed25519.PublicKey(b), nil
}

func PublicKeyHex(pub ed25519.PublicKey) string {
	return hex.EncodeToString(pub)
}
