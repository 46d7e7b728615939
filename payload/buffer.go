package payload

import (
	"errors"
	"fmt"
)

// ErrAllocation is the null indication of an Allocator: no memory for the
// requested payload. Sources give up on their attempt when they see it.
var ErrAllocation = errors.New("payload: allocation failed")

// SizeError indicates a payload length that cannot be allocated at all.
type SizeError struct {
	Size int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("payload: invalid size %d", e.Size)
}

// Buffer is an owned byte region holding exactly one payload. A Buffer is
// filled by the source that allocated it and handed on only once complete.
// Release returns the memory to the allocator; after Release the contents
// must not be used.
type Buffer struct {
	data     []byte
	origin   string
	release  func(int)
	released bool
}

// NewBuffer wraps data without an allocator. It is meant for payloads that
// already live in memory.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the payload. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	if b == nil || b.released {
		return nil
	}
	return b.data
}

// Len returns the payload length.
func (b *Buffer) Len() int {
	if b == nil || b.released {
		return 0
	}
	return len(b.data)
}

// Origin names the source that produced the payload, if set.
func (b *Buffer) Origin() string {
	if b == nil {
		return ""
	}
	return b.origin
}

// SetOrigin records the source that produced the payload.
func (b *Buffer) SetOrigin(name string) {
	b.origin = name
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool {
	return b == nil || b.released
}

// Release hands the memory back. It is safe to call more than once and on
// a nil Buffer.
func (b *Buffer) Release() {
	if b == nil || b.released {
		return
	}
	b.released = true
	if b.release != nil {
		b.release(len(b.data))
	}
	b.data = nil
}
