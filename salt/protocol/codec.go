package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxMessageSize limits a single framed message on a byte stream.
	MaxMessageSize = 16 << 20 // 16 MiB
)

var (
	ErrMessageTooLarge = errors.New("protocol: message too large")
)

// WriteMessage frames msg for a byte-stream transport.
// Format:
//
//	4 bytes: message length (big endian)
//	N bytes: message
//
// The caller is responsible for flushing a buffered w.
func WriteMessage(w io.Writer, msg []byte) error {
	if len(msg) > MaxMessageSize {
		return ErrMessageTooLarge
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(msg)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(msg) > 0 {
		if _, err := w.Write(msg); err != nil {
			return err
		}
	}
	return nil
}

// ReadMessage reads one framed message. r should be buffered and reused
// across calls; a fresh buffer per call would drop read-ahead bytes.
func ReadMessage(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d", ErrMessageTooLarge, n)
	}
	msg := make([]byte, n)
	if _, err := io.ReadFull(r, msg); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return msg, nil
}
