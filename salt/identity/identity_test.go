package identity

import (
	"bytes"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/TheusHen/saltchannel/salt/crypto"
)

func TestPeerIDDerivationStable(t *testing.T) {
	kp, err := crypto.GenerateSigningKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateSigningKeyPair: %v", err)
	}

	id1 := PeerIDFromPublicKey(kp.Public)
	id2 := PeerIDFromPublicKey(kp.Secret[32:])
	if id1 != id2 {
		t.Fatalf("PeerID mismatch")
	}

	parsed, err := ParsePeerIDHex(id1.String())
	if err != nil {
		t.Fatalf("ParsePeerIDHex: %v", err)
	}
	if parsed != id1 {
		t.Fatalf("ParsePeerIDHex mismatch")
	}
	if len(id1.Short()) != 8 {
		t.Fatalf("unexpected short id %q", id1.Short())
	}
}

func TestParsePeerIDHexRejectsBadInput(t *testing.T) {
	if _, err := ParsePeerIDHex("zz"); err == nil {
		t.Fatalf("expected error for non-hex input")
	}
	if _, err := ParsePeerIDHex("abcd"); !errors.Is(err, crypto.ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
}

func TestKeyFileRoundTrip(t *testing.T) {
	kp, err := crypto.GenerateSigningKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateSigningKeyPair: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id.key")

	if err := SaveKeyPair(path, kp); err != nil {
		t.Fatalf("SaveKeyPair: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected key file mode %v", info.Mode().Perm())
	}

	loaded, err := LoadKeyPair(path)
	if err != nil {
		t.Fatalf("LoadKeyPair: %v", err)
	}
	if !bytes.Equal(loaded.Secret, kp.Secret) || !bytes.Equal(loaded.Public, kp.Public) {
		t.Fatalf("loaded key pair differs")
	}
}

func TestLoadKeyPairRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.key")
	if err := os.WriteFile(path, []byte("00112233\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadKeyPair(path); !errors.Is(err, crypto.ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
}

func TestPublicKeyHexRoundTrip(t *testing.T) {
	kp, _ := crypto.GenerateSigningKeyPair(rand.Reader)
	pub, err := ParsePublicKeyHex(PublicKeyHex(kp.Public) + "\n")
	if err != nil {
		t.Fatalf("ParsePublicKeyHex: %v", err)
	}
	if !bytes.Equal(pub, kp.Public) {
		t.Fatalf("public key mismatch")
	}
	if _, err := ParsePublicKeyHex("00"); !errors.Is(err, crypto.ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
}
