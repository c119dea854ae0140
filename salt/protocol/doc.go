// Package protocol defines the Salt Channel handshake messages M1 to M4 and
// the length-prefixed framing used to carry messages over byte streams.
//
// All handshake messages have a fixed size. A message with the wrong type
// byte, size or version is reported as ErrProtocolViolation.
package protocol
