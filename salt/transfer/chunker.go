package transfer

import (
	"bytes"
	"crypto/sha256"
	"sort"
)

// DefaultChunkSize keeps each chunk well below protocol.MaxMessageSize.
const DefaultChunkSize = 256 * 1024

// Chunk is one piece of a blob.
type Chunk struct {
	Index int
	Data  []byte
	Hash  []byte
}

// Split cuts data into chunks of at most size bytes.
func Split(data []byte, size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks []Chunk
	for i := 0; i < len(data); i += size {
		end := i + size
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Data:  data[i:end],
			Hash:  HashChunk(data[i:end]),
		})
	}
	return chunks
}

// Reassemble joins chunks in index order.
func Reassemble(chunks []Chunk) []byte {
	sorted := append([]Chunk(nil), chunks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	var buf bytes.Buffer
	for _, c := range sorted {
		buf.Write(c.Data)
	}
	return buf.Bytes()
}

func HashChunk(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}
