// Package transfer sends a byte blob over a transport.Channel, usually an
// established session.Channel.
//
// A blob travels as one header message followed by one message per chunk:
//
//	header: flags(1) | chunk size(4) | chunk count(4) | length(8) | Merkle root(32)
//	chunk:  flags(1) | data
//
// Integers are big-endian. A chunk whose flags have FlagCompressed set
// carries an LZ4 frame. The receiver rebuilds the Merkle tree over the
// SHA-256 of each decompressed chunk and rejects the blob if the root
// differs from the header.
package transfer
