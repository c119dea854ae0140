package quic

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pion/transport/v3/test"
)

func TestQUICMessageRoundTrip(t *testing.T) {
	lim := test.TimeOut(20 * time.Second)
	defer lim.Stop()

	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type accepted struct {
		c   *Conn
		err error
	}
	acc := make(chan accepted, 1)
	go func() {
		c, err := ln.Accept(ctx)
		acc <- accepted{c, err}
	}()

	client, err := Dial(ctx, ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	in := [][]byte{{1, 2, 3}, {}, bytes.Repeat([]byte{4}, 70000)}
	if err := client.Write(false, in...); err != nil {
		t.Fatalf("Write: %v", err)
	}

	a := <-acc
	if a.err != nil {
		t.Fatalf("Accept: %v", a.err)
	}
	server := a.c
	defer server.Close()

	for i, want := range in {
		got, err := server.Read()
		if err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("message %d mismatch", i)
		}
	}

	if err := server.Write(true, []byte("done")); err != nil {
		t.Fatalf("server Write: %v", err)
	}
	if got, err := client.Read(); err != nil || string(got) != "done" {
		t.Fatalf("client Read %q, %v", got, err)
	}
}
