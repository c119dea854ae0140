// Package salt ties the Salt Channel building blocks together.
//
// Salt Channel is a small secure channel protocol: a four-message handshake
// that mutually authenticates two Ed25519 identities over ephemeral X25519
// keys, followed by an encrypted, counter-nonce record layer. It runs over
// any ordered, reliable message channel.
//
// Sub-packages:
//   - crypto: key types, shared key derivation, sealing and signatures
//   - protocol: handshake messages and stream framing
//   - record: per-direction nonce counters and record encryption
//   - session: the handshake state machine and the encrypted Channel
//   - transport: the Channel contract, an in-memory tunnel, stream framing,
//     and QUIC and WebSocket bindings
//   - identity: PeerIDs and key files
//   - transfer: chunked, compressed, Merkle-checked blobs over a Channel
//
// This package provides a Server that runs one handshake and handler per
// connection, and Dial helpers for the client side.
package salt
