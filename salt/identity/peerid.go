// Package identity names peers by their long-term signing key and stores
// signing key pairs on disk.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/TheusHen/saltchannel/salt/crypto"
)

// PeerID is SHA-256 of a peer's Ed25519 public signing key. It is safe to
// log; the key itself is public too, but the fingerprint is shorter to read.
type PeerID [32]byte

func PeerIDFromPublicKey(publicKey []byte) PeerID {
	return PeerID(sha256.Sum256(publicKey))
}

func ParsePeerIDHex(s string) (PeerID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PeerID{}, fmt.Errorf("identity: parse peer id: %w", err)
	}
	if len(b) != len(PeerID{}) {
		return PeerID{}, fmt.Errorf("identity: peer id: %w", crypto.ErrInvalidKeyLength)
	}
	var id PeerID
	copy(id[:], b)
	return id, nil
}

func (id PeerID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first 8 hex digits, for log lines.
func (id PeerID) Short() string {
	return hex.EncodeToString(id[:4])
}
