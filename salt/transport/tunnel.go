package transport

import (
	"sync"
)

// Tunnel is an in-memory pair of connected channels. Writes never block.
type Tunnel struct {
	a2b *queue
	b2a *queue
	c1  *TunnelEnd
	c2  *TunnelEnd
}

// TunnelEnd is one side of a Tunnel.
type TunnelEnd struct {
	in  *queue
	out *queue
}

type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	msgs   [][]byte
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// NewTunnel creates a connected pair of channels.
func NewTunnel() *Tunnel {
	a2b, b2a := newQueue(), newQueue()
	return &Tunnel{
		a2b: a2b,
		b2a: b2a,
		c1:  &TunnelEnd{in: b2a, out: a2b},
		c2:  &TunnelEnd{in: a2b, out: b2a},
	}
}

// Channel1 returns the first end, conventionally the client.
func (t *Tunnel) Channel1() *TunnelEnd { return t.c1 }

// Channel2 returns the second end, conventionally the server.
func (t *Tunnel) Channel2() *TunnelEnd { return t.c2 }

// Close closes both directions.
func (t *Tunnel) Close() error {
	t.a2b.close()
	t.b2a.close()
	return nil
}

func (q *queue) push(msgs [][]byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	for _, m := range msgs {
		q.msgs = append(q.msgs, append([]byte(nil), m...))
	}
	q.cond.Broadcast()
	return nil
}

func (q *queue) pop() ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.msgs) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.msgs) == 0 {
		return nil, ErrClosed
	}
	m := q.msgs[0]
	q.msgs[0] = nil
	q.msgs = q.msgs[1:]
	return m, nil
}

// close stops further writes; queued messages can still be read.
func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (e *TunnelEnd) Read() ([]byte, error) {
	return e.in.pop()
}

// Write queues messages for the other end. With last set, the other end
// reads ErrClosed once it has drained them.
func (e *TunnelEnd) Write(last bool, messages ...[]byte) error {
	if err := e.out.push(messages); err != nil {
		return err
	}
	if last {
		e.out.close()
	}
	return nil
}

// Close closes both directions as seen from this end.
func (e *TunnelEnd) Close() error {
	e.in.close()
	e.out.close()
	return nil
}
