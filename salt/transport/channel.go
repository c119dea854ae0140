// Package transport defines the byte-message channel a Salt Channel runs
// on, and provides an in-memory tunnel and a binding for byte streams.
//
// A Channel never splits or merges messages: one Write of n messages yields
// exactly n Reads on the other side, in order.
package transport

import (
	"errors"
)

var (
	// ErrTransport matches every error raised by the underlying transport.
	ErrTransport = errors.New("transport: transport error")

	ErrClosed = errors.New("transport: channel closed")
)

// Channel is an ordered, reliable byte-message channel.
//
// Read blocks until one message arrives. Write sends messages in order;
// last tells the transport that no more writes follow, so it may flush or
// half-close. Implementations need not be safe for concurrent Reads or
// concurrent Writes, but Close must unblock a pending Read.
type Channel interface {
	Read() ([]byte, error)
	Write(last bool, messages ...[]byte) error
}

// Error wraps a failure of the underlying transport.
type Error struct {
	Op  string
	Err error
}

// Wrap returns err as a transport *Error, or nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Op: op, Err: err}
}

func (e *Error) Error() string { return "transport: " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrTransport }
