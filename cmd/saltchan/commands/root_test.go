package commands

import (
	"testing"

	"github.com/pion/logging"

	"github.com/TheusHen/saltchannel/salt/crypto"
	"github.com/TheusHen/saltchannel/salt/identity"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]logging.LogLevel{
		"disabled": logging.LogLevelDisabled,
		"ERROR":    logging.LogLevelError,
		"warn":     logging.LogLevelWarn,
		"info":     logging.LogLevelInfo,
		"debug":    logging.LogLevelDebug,
		"trace":    logging.LogLevelTrace,
	}
	for in, want := range cases {
		got, err := parseLevel(in)
		if err != nil {
			t.Fatalf("parseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestAllowList(t *testing.T) {
	auth, err := allowList(nil)
	if err != nil || auth != nil {
		t.Fatalf("empty allow list must accept everyone")
	}
	if _, err := allowList([]string{"nothex"}); err == nil {
		t.Fatalf("expected error for bad key")
	}
}

func TestAllowListDecides(t *testing.T) {
	ok, _ := crypto.GenerateSigningKeyPair(crypto.InsecureRand(1))
	other, _ := crypto.GenerateSigningKeyPair(crypto.InsecureRand(2))

	auth, err := allowList([]string{identity.PublicKeyHex(ok.Public)})
	if err != nil {
		t.Fatalf("allowList: %v", err)
	}
	if err := auth(identity.PeerIDFromPublicKey(ok.Public), ok.Public); err != nil {
		t.Fatalf("listed key rejected: %v", err)
	}
	if err := auth(identity.PeerIDFromPublicKey(other.Public), other.Public); err == nil {
		t.Fatalf("unlisted key accepted")
	}
}
