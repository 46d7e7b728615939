package payload

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// xzMagic starts every xz stream.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// IsCompressed reports whether data is an xz stream.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, xzMagic)
}

// UnwrapError indicates a compressed payload that could not be expanded.
type UnwrapError struct {
	Err error
}

func (e *UnwrapError) Error() string {
	return fmt.Sprintf("payload: decompress: %v", e.Err)
}

func (e *UnwrapError) Unwrap() error {
	return e.Err
}

// Unwrap expands an xz compressed payload into a new buffer from alloc and
// releases b. A payload that is not compressed is returned as is. The
// expanded size is capped at limit bytes; zero means no cap.
//
// On failure b is released as well, so the caller never holds a half
// processed payload.
func Unwrap(b *Buffer, alloc Allocator, limit int) (*Buffer, error) {
	if !IsCompressed(b.Bytes()) {
		return b, nil
	}
	origin := b.Origin()
	defer b.Release()

	r, err := xz.NewReader(bytes.NewReader(b.Bytes()))
	if err != nil {
		return nil, &UnwrapError{Err: err}
	}

	var src io.Reader = r
	if limit > 0 {
		src = io.LimitReader(r, int64(limit)+1)
	}

	var out bytes.Buffer
	if _, err := io.Copy(&out, src); err != nil {
		return nil, &UnwrapError{Err: err}
	}
	if limit > 0 && out.Len() > limit {
		return nil, &UnwrapError{Err: fmt.Errorf("expanded size exceeds %d bytes", limit)}
	}

	nb, err := alloc.Alloc(out.Len())
	if err != nil {
		return nil, err
	}
	copy(nb.Bytes(), out.Bytes())
	nb.SetOrigin(origin)
	return nb, nil
}

// Compress wraps data in an xz stream. Tools use it to store compressed
// payloads that Unwrap expands at boot.
func Compress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	w, err := xz.NewWriter(&out)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
