package gecko

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kunaigc/go-kunai/payload"
)

// ErrNotPresent is returned by Receive when no cable answers the liveness probe.
var ErrNotPresent = errors.New("gecko: cable not present")

// LengthError indicates a length prefix that cannot be a payload.
type LengthError struct {
	Length uint32
	Max    uint32
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("gecko: announced payload length %d outside 1-%d", e.Length, e.Max)
}

// Receive runs the console side of a cable transfer and returns the payload.
//
// Sequence:
//
//	console            host
//	  0x88  -------->
//	        <--------  0x80 (ready) or 0x81 (ok)
//	  0x89  -------->          only after 0x80
//	        <--------  length (4 bytes, little-endian)
//	        <--------  payload, in chunks of at most ChunkSize
//
// Without a cable Receive fails fast with ErrNotPresent and sends nothing.
// The context is checked between handshake bytes; a blocked read is not
// interrupted.
func Receive(ctx context.Context, link Link, alloc payload.Allocator, opts ...Option) (*payload.Buffer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if !link.Alive() {
		return nil, ErrNotPresent
	}
	if err := link.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}

	cfg.logDebug("sending ready")
	if err := link.Send([]byte{DeviceReady}); err != nil {
		return nil, fmt.Errorf("send ready: %w", err)
	}

	cfg.logDebug("waiting for host")
	var b [1]byte
	for b[0] != HostReady && b[0] != HostOK {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := link.Recv(b[:]); err != nil {
			return nil, fmt.Errorf("wait for host: %w", err)
		}
	}

	if b[0] == HostReady {
		if err := sleep(ctx, cfg.AckDelay); err != nil {
			return nil, err
		}
		if err := link.Send([]byte{DeviceOK}); err != nil {
			return nil, fmt.Errorf("send ok: %w", err)
		}
	}

	var raw [LengthSize]byte
	if err := link.Recv(raw[:]); err != nil {
		return nil, fmt.Errorf("receive length: %w", err)
	}
	size := binary.LittleEndian.Uint32(raw[:])
	if size == 0 || size > cfg.MaxPayload {
		return nil, &LengthError{Length: size, Max: cfg.MaxPayload}
	}
	cfg.logDebug("receiving payload", "size", size)

	buf, err := alloc.Alloc(int(size))
	if err != nil {
		return nil, err
	}
	data := buf.Bytes()
	for off := 0; off < len(data); off += ChunkSize {
		end := off + ChunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := link.Recv(data[off:end]); err != nil {
			buf.Release()
			return nil, fmt.Errorf("receive payload at %d: %w", off, err)
		}
		cfg.reportProgress(end, len(data))
	}
	return buf, nil
}

// Send runs the host side of a cable transfer over rw.
//
// Example:
//
//	port, _ := serial.Open("/dev/ttyUSB0", serial.WithBaudrate(115200))
//	err := gecko.Send(ctx, port, dolBytes)
func Send(ctx context.Context, rw io.ReadWriter, data []byte, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(data) == 0 || uint64(len(data)) > uint64(cfg.MaxPayload) {
		return &LengthError{Length: uint32(len(data)), Max: cfg.MaxPayload}
	}
	link := NewStreamLink(rw)

	cfg.logInfo("waiting for console")
	if err := expect(ctx, link, DeviceReady); err != nil {
		return err
	}
	if err := link.Send([]byte{HostReady}); err != nil {
		return fmt.Errorf("send ready: %w", err)
	}
	if err := expect(ctx, link, DeviceOK); err != nil {
		return err
	}

	var raw [LengthSize]byte
	binary.LittleEndian.PutUint32(raw[:], uint32(len(data)))
	if err := link.Send(raw[:]); err != nil {
		return fmt.Errorf("send length: %w", err)
	}

	for off := 0; off < len(data); off += ChunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := off + ChunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := link.Send(data[off:end]); err != nil {
			return fmt.Errorf("send payload at %d: %w", off, err)
		}
		cfg.reportProgress(end, len(data))
	}
	cfg.logInfo("payload sent", "size", len(data))
	return nil
}

// expect reads bytes until want arrives, skipping line noise.
func expect(ctx context.Context, link Link, want byte) error {
	var b [1]byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := link.Recv(b[:]); err != nil {
			return fmt.Errorf("wait for 0x%02X: %w", want, err)
		}
		if b[0] == want {
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
