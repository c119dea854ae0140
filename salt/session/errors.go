package session

import (
	"errors"
)

var (
	ErrHandshakeDone    = errors.New("session: handshake already run")
	ErrUnexpectedPeer   = errors.New("session: peer signing key does not match the expected key")
	ErrUnauthorizedPeer = errors.New("session: peer not authorized")
	ErrSessionClosed    = errors.New("session: channel closed")
)

// SessionError reports a failed operation on an established Channel. Every
// SessionError is terminal for its Channel.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string { return "session: " + e.Op + ": " + e.Err.Error() }

func (e *SessionError) Unwrap() error { return e.Err }
