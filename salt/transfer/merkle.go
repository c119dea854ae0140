package transfer

import (
	"crypto/sha256"
	"encoding/hex"
)

// RootSize is the size of a Merkle root.
const RootSize = sha256.Size

// MerkleTree commits to the chunk hashes of a blob. Leaves are padded to a
// power of two with the hash of the empty string.
type MerkleTree struct {
	nodes [][]byte
}

// BuildMerkleTree builds the tree over chunk hashes. An empty blob has a
// single empty-string leaf.
func BuildMerkleTree(chunkHashes [][]byte) *MerkleTree {
	n := 1
	for n < len(chunkHashes) {
		n *= 2
	}
	empty := sha256.Sum256(nil)

	// Leaves sit at [n-1, 2n-2].
	nodes := make([][]byte, 2*n-1)
	for i := 0; i < n; i++ {
		if i < len(chunkHashes) {
			nodes[n-1+i] = chunkHashes[i]
		} else {
			nodes[n-1+i] = empty[:]
		}
	}
	for i := n - 2; i >= 0; i-- {
		combined := make([]byte, 0, 2*sha256.Size)
		combined = append(combined, nodes[2*i+1]...)
		combined = append(combined, nodes[2*i+2]...)
		h := sha256.Sum256(combined)
		nodes[i] = h[:]
	}
	return &MerkleTree{nodes: nodes}
}

func (m *MerkleTree) Root() []byte { return m.nodes[0] }

func (m *MerkleTree) RootHex() string { return hex.EncodeToString(m.nodes[0]) }

// RootOf hashes every chunk and returns the Merkle root.
func RootOf(chunks []Chunk) []byte {
	hashes := make([][]byte, len(chunks))
	for i, c := range chunks {
		hashes[i] = c.Hash
	}
	return BuildMerkleTree(hashes).Root()
}
