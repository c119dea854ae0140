// Package session runs the Salt Channel handshake over a transport.Channel
// and returns an encrypted, mutually authenticated Channel.
//
// The handshake is four fixed-size messages:
//
//	client                         server
//	  M1 (version, client eph) -->
//	                           <-- M2 (server eph)
//	  M3 (client sig key, sig) -->
//	                           <-- M4 (server sig key, sig)
//
// Each side signs (own eph || peer eph) with its long-term Ed25519 key. The
// shared key is X25519 over the ephemeral keys; records are sealed with
// XSalsa20-Poly1305 using a per-direction counter as nonce.
//
// A Client or Server runs one handshake. Neither it nor the resulting Channel
// is safe for concurrent use.
package session
