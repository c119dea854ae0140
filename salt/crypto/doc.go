// Package crypto is the primitive facade used by Salt Channel.
//
// It is a thin layer over NaCl-compatible primitives:
//   - Ed25519 signing key pairs for long-term identity
//   - X25519 exchange key pairs, one per handshake
//   - crypto_box_beforenm style shared keys (X25519 + HSalsa20)
//   - XSalsa20-Poly1305 secretbox for authenticated encryption
//
// Every function validates the exact byte length of its key inputs and
// returns ErrInvalidKeyLength otherwise. Nothing here keeps state between
// calls; randomness is always supplied by the caller as an io.Reader.
package crypto
