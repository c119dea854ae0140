package transfer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/TheusHen/saltchannel/salt/protocol"
	"github.com/TheusHen/saltchannel/salt/transport"
	"github.com/pion/logging"
)

var (
	ErrMalformed    = errors.New("transfer: malformed message")
	ErrBlobTooLarge = errors.New("transfer: blob exceeds size limit")
	ErrIntegrity    = errors.New("transfer: Merkle root mismatch")
)

const (
	// FlagCompressed marks a header whose sender may compress chunks, and a
	// chunk that is compressed.
	FlagCompressed byte = 1 << 0

	headerSize = 1 + 4 + 4 + 8 + RootSize

	// MaxChunkSize leaves room in a protocol message for the chunk flag and
	// the record overhead.
	MaxChunkSize = protocol.MaxMessageSize - 64

	// DefaultMaxBlobSize bounds what ReceiveBlob accepts.
	DefaultMaxBlobSize = 1 << 30

	maxChunkHint = 1024
)

// Config configures both ends of a transfer. The zero value is usable.
type Config struct {
	// ChunkSize defaults to DefaultChunkSize and may not exceed
	// MaxChunkSize. Only the sender uses it; the header carries it.
	ChunkSize int

	// Compress enables LZ4 for chunks that shrink.
	Compress bool
	Level    CompressionLevel

	// MaxBlobSize defaults to DefaultMaxBlobSize.
	MaxBlobSize int64

	// LoggerFactory creates the "salt-transfer" logger. Nil disables logging.
	LoggerFactory logging.LoggerFactory
}

func (c *Config) withDefaults() Config {
	var out Config
	if c != nil {
		out = *c
	}
	if out.ChunkSize <= 0 {
		out.ChunkSize = DefaultChunkSize
	}
	if out.MaxBlobSize <= 0 {
		out.MaxBlobSize = DefaultMaxBlobSize
	}
	return out
}

func (c *Config) logger() logging.LeveledLogger {
	if c.LoggerFactory == nil {
		return nil
	}
	return c.LoggerFactory.NewLogger("salt-transfer")
}

// Header describes a blob before its chunks arrive.
type Header struct {
	Flags     byte
	ChunkSize uint32
	Chunks    uint32
	Length    uint64
	Root      [RootSize]byte
}

func (h Header) Encode() []byte {
	out := make([]byte, headerSize)
	out[0] = h.Flags
	binary.BigEndian.PutUint32(out[1:5], h.ChunkSize)
	binary.BigEndian.PutUint32(out[5:9], h.Chunks)
	binary.BigEndian.PutUint64(out[9:17], h.Length)
	copy(out[17:], h.Root[:])
	return out
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != headerSize {
		return Header{}, fmt.Errorf("%w: header has %d bytes", ErrMalformed, len(b))
	}
	h := Header{
		Flags:     b[0],
		ChunkSize: binary.BigEndian.Uint32(b[1:5]),
		Chunks:    binary.BigEndian.Uint32(b[5:9]),
		Length:    binary.BigEndian.Uint64(b[9:17]),
	}
	copy(h.Root[:], b[17:])
	if h.ChunkSize == 0 || h.ChunkSize > MaxChunkSize {
		return Header{}, fmt.Errorf("%w: chunk size %d", ErrMalformed, h.ChunkSize)
	}
	return h, nil
}

// SendBlob writes data as a header and its chunks in one transport write.
func SendBlob(ch transport.Channel, data []byte, cfg *Config) (Header, error) {
	c := cfg.withDefaults()
	if c.ChunkSize > MaxChunkSize {
		return Header{}, fmt.Errorf("transfer: chunk size %d too large", c.ChunkSize)
	}
	chunks := Split(data, c.ChunkSize)
	if uint64(len(chunks)) > math.MaxUint32 {
		return Header{}, ErrBlobTooLarge
	}

	h := Header{
		ChunkSize: uint32(c.ChunkSize),
		Chunks:    uint32(len(chunks)),
		Length:    uint64(len(data)),
	}
	if c.Compress {
		h.Flags |= FlagCompressed
	}
	copy(h.Root[:], RootOf(chunks))

	msgs := make([][]byte, 0, len(chunks)+1)
	msgs = append(msgs, h.Encode())
	compressed := 0
	for _, chunk := range chunks {
		msg, packed, err := encodeChunk(chunk.Data, c)
		if err != nil {
			return Header{}, err
		}
		if packed {
			compressed++
		}
		msgs = append(msgs, msg)
	}
	if err := ch.Write(false, msgs...); err != nil {
		return Header{}, err
	}

	if log := c.logger(); log != nil {
		log.Debugf("sent blob: %d bytes, %d chunks (%d compressed), root %x", h.Length, h.Chunks, compressed, h.Root[:4])
	}
	return h, nil
}

func encodeChunk(data []byte, c Config) ([]byte, bool, error) {
	if c.Compress && len(data) > 0 {
		packed, err := Compress(data, c.Level)
		if err != nil {
			return nil, false, err
		}
		if len(packed) < len(data) {
			return append([]byte{FlagCompressed}, packed...), true, nil
		}
	}
	return append([]byte{0}, data...), false, nil
}

// ReceiveBlob reads one blob sent by SendBlob and checks its Merkle root.
func ReceiveBlob(ch transport.Channel, cfg *Config) ([]byte, Header, error) {
	c := cfg.withDefaults()

	b, err := ch.Read()
	if err != nil {
		return nil, Header{}, err
	}
	h, err := DecodeHeader(b)
	if err != nil {
		return nil, Header{}, err
	}
	if h.Length > uint64(c.MaxBlobSize) {
		return nil, h, ErrBlobTooLarge
	}
	// Every chunk but the last is full.
	if want := (h.Length + uint64(h.ChunkSize) - 1) / uint64(h.ChunkSize); uint64(h.Chunks) != want {
		return nil, h, fmt.Errorf("%w: %d chunks announced for %d bytes, expected %d", ErrMalformed, h.Chunks, h.Length, want)
	}

	// The count is the peer's claim; grow with the chunks that actually arrive.
	chunks := make([]Chunk, 0, min(int(h.Chunks), maxChunkHint))
	var total uint64
	for i := 0; i < int(h.Chunks); i++ {
		b, err := ch.Read()
		if err != nil {
			return nil, h, err
		}
		data, err := decodeChunk(b, h.Flags, int(h.ChunkSize))
		if err != nil {
			return nil, h, fmt.Errorf("chunk %d: %w", i, err)
		}
		total += uint64(len(data))
		if total > h.Length {
			return nil, h, fmt.Errorf("%w: more data than announced", ErrMalformed)
		}
		chunks = append(chunks, Chunk{Index: i, Data: data, Hash: HashChunk(data)})
	}
	if total != h.Length {
		return nil, h, fmt.Errorf("%w: got %d bytes, announced %d", ErrMalformed, total, h.Length)
	}
	if !bytes.Equal(RootOf(chunks), h.Root[:]) {
		return nil, h, ErrIntegrity
	}

	if log := c.logger(); log != nil {
		log.Debugf("received blob: %d bytes, %d chunks, root %x", h.Length, h.Chunks, h.Root[:4])
	}
	return Reassemble(chunks), h, nil
}

func decodeChunk(b []byte, headerFlags byte, limit int) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty chunk", ErrMalformed)
	}
	if b[0]&FlagCompressed == 0 {
		if len(b)-1 > limit {
			return nil, fmt.Errorf("%w: oversized chunk", ErrMalformed)
		}
		return b[1:], nil
	}
	if headerFlags&FlagCompressed == 0 {
		return nil, fmt.Errorf("%w: compressed chunk in uncompressed blob", ErrMalformed)
	}
	return Decompress(b[1:], limit)
}
