package transport

import (
	"bufio"
	"errors"
	"io"

	"github.com/TheusHen/saltchannel/salt/protocol"
)

// Stream carries messages over a byte stream such as a TCP connection or a
// QUIC stream, using protocol.WriteMessage framing.
type Stream struct {
	rw io.ReadWriter
	r  *bufio.Reader
	w  *bufio.Writer
}

// NewStream wraps rw. If rw implements io.Closer, Close closes it; if it
// implements CloseWrite, a write with last set half-closes it.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{
		rw: rw,
		r:  bufio.NewReader(rw),
		w:  bufio.NewWriter(rw),
	}
}

func (s *Stream) Read() ([]byte, error) {
	msg, err := protocol.ReadMessage(s.r)
	if errors.Is(err, io.EOF) {
		return nil, ErrClosed
	}
	return msg, err
}

// Write frames all messages, flushes once and, when last is set, closes
// the write half if the stream supports it.
func (s *Stream) Write(last bool, messages ...[]byte) error {
	for _, m := range messages {
		if err := protocol.WriteMessage(s.w, m); err != nil {
			return err
		}
	}
	if err := s.w.Flush(); err != nil {
		return err
	}
	if last {
		if cw, ok := s.rw.(interface{ CloseWrite() error }); ok {
			return cw.CloseWrite()
		}
	}
	return nil
}

func (s *Stream) Close() error {
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
