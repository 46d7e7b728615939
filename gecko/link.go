package gecko

import (
	"errors"
	"io"
)

// Link is the console side of the cable.
type Link interface {
	// Alive reports whether a cable is present.
	Alive() bool

	// Flush discards anything pending in the cable's receive FIFO.
	Flush() error

	// Send writes all of p.
	Send(p []byte) error

	// Recv fills p, blocking until it is full.
	Recv(p []byte) error
}

// StreamLink is a Link over a byte stream, such as a serial port or a pipe.
// It is always alive; Flush is a no-op unless the stream has a Flush method.
type StreamLink struct {
	rw io.ReadWriter
}

// NewStreamLink wraps rw.
func NewStreamLink(rw io.ReadWriter) *StreamLink {
	return &StreamLink{rw: rw}
}

// Alive implements Link.
func (l *StreamLink) Alive() bool {
	return l.rw != nil
}

type flusher interface {
	Flush() error
}

// Flush implements Link.
func (l *StreamLink) Flush() error {
	if f, ok := l.rw.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Send implements Link.
func (l *StreamLink) Send(p []byte) error {
	for len(p) > 0 {
		n, err := l.rw.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// Recv implements Link.
func (l *StreamLink) Recv(p []byte) error {
	_, err := io.ReadFull(l.rw, p)
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
