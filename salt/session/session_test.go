package session

import (
	"bytes"
	"errors"
	"testing"

	"github.com/TheusHen/saltchannel/salt/crypto"
	"github.com/TheusHen/saltchannel/salt/record"
	"github.com/TheusHen/saltchannel/salt/transport"
)

func establish(t *testing.T, p *pair) (client, server *Channel, tun *transport.Tunnel) {
	t.Helper()
	c, s, tun := p.run(t)
	if c.err != nil || s.err != nil {
		t.Fatalf("handshake: client=%v server=%v", c.err, s.err)
	}
	return c.ch, s.ch, tun
}

func TestChannelCounters(t *testing.T) {
	client, server, tun := establish(t, newPair(t))
	defer tun.Close()

	if client.SendCounter() != record.ClientInitial || server.SendCounter() != record.ServerInitial {
		t.Fatalf("unexpected initial send counters %d, %d", client.SendCounter(), server.SendCounter())
	}
	if server.RecvCounter() != record.ClientInitial || client.RecvCounter() != record.ServerInitial {
		t.Fatalf("unexpected initial receive counters")
	}

	for i := 0; i < 3; i++ {
		if err := client.Write(false, []byte{byte(i)}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if _, err := server.Read(); err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if client.SendCounter() != 3 || server.RecvCounter() != 3 {
		t.Fatalf("expected counters at 3, got send=%d recv=%d", client.SendCounter(), server.RecvCounter())
	}

	if err := server.Write(false, []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := client.Read(); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if server.SendCounter() != record.ServerInitial+1 || client.RecvCounter() != record.ServerInitial+1 {
		t.Fatalf("unexpected server-to-client counters")
	}
}

func TestChannelMultiWrite(t *testing.T) {
	client, server, tun := establish(t, newPair(t))
	defer tun.Close()

	in := [][]byte{[]byte("a"), {}, bytes.Repeat([]byte{7}, 1<<20)}
	if err := client.Write(false, in...); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for i, want := range in {
		got, err := server.Read()
		if err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("message %d mismatch", i)
		}
	}
}

func TestChannelTamperedRecordIsTerminal(t *testing.T) {
	p := newPair(t)
	p.wrapClient = func(e *transport.TunnelEnd) transport.Channel {
		// Writes 0 and 1 are M1 and M3; 2 is the first record.
		return &tamperEnd{TunnelEnd: e, mutate: flipAt(2, 0)}
	}
	client, server, tun := establish(t, p)
	defer tun.Close()

	if err := client.Write(false, []byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	before := server.RecvCounter()
	_, err := server.Read()
	var se *SessionError
	if !errors.As(err, &se) || !errors.Is(err, crypto.ErrInvalidSignature) {
		t.Fatalf("expected *SessionError wrapping ErrInvalidSignature, got %v", err)
	}
	if server.RecvCounter() != before {
		t.Fatalf("receive counter moved on failure")
	}

	if err := client.Write(false, []byte("again")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := server.Read(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed after failure, got %v", err)
	}
	if err := server.Write(false, []byte("x")); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed on write, got %v", err)
	}
}

func TestChannelRejectsReflectedRecord(t *testing.T) {
	client, _, tun := establish(t, newPair(t))
	defer tun.Close()

	// Capture a client record and bounce it back to the client.
	if err := client.Write(false, []byte("ping")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rec, err := tun.Channel2().Read()
	if err != nil {
		t.Fatalf("raw Read: %v", err)
	}
	if err := tun.Channel2().Write(false, rec); err != nil {
		t.Fatalf("raw Write: %v", err)
	}
	if _, err := client.Read(); !errors.Is(err, crypto.ErrInvalidSignature) {
		t.Fatalf("expected reflected record to fail, got %v", err)
	}
}

func TestChannelLastClosesPeer(t *testing.T) {
	client, server, tun := establish(t, newPair(t))
	defer tun.Close()

	if err := client.Write(true, []byte("bye")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, err := server.Read(); err != nil || string(got) != "bye" {
		t.Fatalf("unexpected Read %q, %v", got, err)
	}
	if _, err := server.Read(); !errors.Is(err, transport.ErrClosed) || !errors.Is(err, transport.ErrTransport) {
		t.Fatalf("expected closed transport, got %v", err)
	}
}

func TestChannelClose(t *testing.T) {
	client, server, tun := establish(t, newPair(t))
	defer tun.Close()

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Write(false, []byte("x")); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := server.Read(); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("closing the session must close the transport, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
