// Package commands implements the saltchan CLI: key generation, an echo
// server over TCP, WebSocket or QUIC, and a client that talks to it.
package commands
