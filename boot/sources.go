package boot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/kunaigc/go-kunai/blockdev"
	"github.com/kunaigc/go-kunai/crc"
	"github.com/kunaigc/go-kunai/flashfs"
	"github.com/kunaigc/go-kunai/gecko"
	"github.com/kunaigc/go-kunai/kunai"
	"github.com/kunaigc/go-kunai/payload"
	"github.com/kunaigc/go-kunai/spinor"
)

// CableSource receives a payload over a USB Gecko cable in one memory card
// slot.
type CableSource struct {
	// Slot is the memory card slot letter, "A" or "B"
	Slot string

	// Link reaches the cable in Slot
	Link gecko.Link

	// Options are passed to gecko.Receive
	Options []gecko.Option
}

// Name implements Source.
func (s *CableSource) Name() string {
	return "usb" + s.Slot
}

// Probe implements Source.
func (s *CableSource) Probe(ctx context.Context, alloc payload.Allocator) (*payload.Buffer, error) {
	if s.Link == nil {
		return nil, ErrNotPresent
	}
	buf, err := gecko.Receive(ctx, s.Link, alloc, s.Options...)
	if errors.Is(err, gecko.ErrNotPresent) {
		return nil, fmt.Errorf("%w: %v", ErrNotPresent, err)
	}
	return buf, err
}

// MediaSource reads a file from removable media such as an SD card adapter.
type MediaSource struct {
	// Slot names the media slot, such as "sdb", "sda" or "sd2"
	Slot string

	// Mount makes the media's filesystem available. A mount failure means
	// no usable card is present. If the returned filesystem implements
	// io.Closer it is closed after the read.
	Mount func() (fs.FS, error)

	// Path is the file to load
	Path string
}

// Name implements Source.
func (s *MediaSource) Name() string {
	return s.Slot
}

// Probe implements Source.
func (s *MediaSource) Probe(_ context.Context, alloc payload.Allocator) (*payload.Buffer, error) {
	if s.Mount == nil {
		return nil, ErrNotPresent
	}
	fsys, err := s.Mount()
	if err != nil {
		return nil, fmt.Errorf("%w: mount %s: %v", ErrNotPresent, s.Slot, err)
	}
	if c, ok := fsys.(io.Closer); ok {
		defer c.Close()
	}

	f, err := fsys.Open(trimRoot(s.Path))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrNotPresent, s.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", s.Path, err)
	}

	b, err := alloc.Alloc(int(info.Size()))
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(f, b.Bytes()); err != nil {
		b.Release()
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return b, nil
}

// trimRoot strips leading slashes; io/fs paths are unrooted.
func trimRoot(path string) string {
	for len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return path
}

// FlashFSSource reads a file from the filesystem on the board's flash.
// The volume is mounted for the probe and unmounted afterwards; it is
// never formatted.
type FlashFSSource struct {
	// Device is the block device over the board's flash
	Device *blockdev.Adapter

	// Path is the file to load
	Path string

	// Options are passed to flashfs.Mount
	Options []flashfs.Option
}

// Name implements Source.
func (s *FlashFSSource) Name() string {
	return "lfs:" + s.Path
}

// Probe implements Source.
func (s *FlashFSSource) Probe(_ context.Context, alloc payload.Allocator) (buf *payload.Buffer, err error) {
	if s.Device == nil {
		return nil, ErrNotPresent
	}
	v, err := flashfs.Mount(s.Device, s.Options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPresent, err)
	}
	defer func() {
		if cerr := v.Close(); cerr != nil && err == nil {
			buf.Release()
			buf, err = nil, cerr
		}
	}()

	buf, err = v.ReadFile(s.Path, alloc)
	var oerr *flashfs.OpenError
	if errors.As(err, &oerr) {
		return nil, fmt.Errorf("%w: %v", ErrNotPresent, err)
	}
	return buf, err
}

// RawLayout places a payload in raw flash: a header holding the payload
// size (uint32, big-endian) followed by its CRC-16 (uint16, big-endian),
// and the payload itself starting at PayloadAddr. The payload must end at
// or before HeaderAddr.
type RawLayout struct {
	HeaderAddr  uint32
	PayloadAddr uint32
}

// Raw layout defaults.
const (
	DefaultHeaderAddr  = 0x3F000
	DefaultPayloadAddr = 0x1000

	// RawHeaderSize is the size of the header at HeaderAddr
	RawHeaderSize = 6
)

// DefaultRawLayout returns the board's raw payload layout.
func DefaultRawLayout() RawLayout {
	return RawLayout{
		HeaderAddr:  DefaultHeaderAddr,
		PayloadAddr: DefaultPayloadAddr,
	}
}

// MaxPayload returns the largest payload the layout can hold.
func (l RawLayout) MaxPayload() uint32 {
	if l.HeaderAddr <= l.PayloadAddr {
		return 0
	}
	return l.HeaderAddr - l.PayloadAddr
}

// Header encodes the header for data.
func (l RawLayout) Header(data []byte) []byte {
	h := make([]byte, RawHeaderSize)
	size := uint32(len(data))
	h[0], h[1], h[2], h[3] = byte(size>>24), byte(size>>16), byte(size>>8), byte(size)
	sum := crc.Checksum(data)
	h[4], h[5] = byte(sum>>8), byte(sum)
	return h
}

// InternalFlashSource loads a payload stored in raw flash according to a
// RawLayout and verifies its CRC before handing it on.
type InternalFlashSource struct {
	// Flash is the command layer for the board's flash
	Flash *spinor.Flash

	// Layout locates the header and payload
	Layout RawLayout

	// Activator, when set, brackets the reads
	Activator blockdev.Activator
}

// Name implements Source.
func (s *InternalFlashSource) Name() string {
	return "flash"
}

// Probe implements Source.
func (s *InternalFlashSource) Probe(_ context.Context, alloc payload.Allocator) (*payload.Buffer, error) {
	if s.Flash == nil {
		return nil, ErrNotPresent
	}
	var buf *payload.Buffer
	err := blockdev.Activated(s.Activator, func() (err error) {
		buf, err = s.read(alloc)
		return err
	})
	if err != nil {
		buf.Release()
		return nil, err
	}
	return buf, nil
}

func (s *InternalFlashSource) read(alloc payload.Allocator) (*payload.Buffer, error) {
	c, err := s.Flash.ReadStream(s.Layout.HeaderAddr)
	if err != nil {
		return nil, err
	}
	size, err := c.ReadUint32()
	if err != nil {
		c.Close()
		return nil, err
	}
	expected, err := c.ReadUint16()
	c.Close()
	if err != nil {
		return nil, err
	}

	// Erased flash reads back as all ones.
	if size == 0 || size == 0xFFFFFFFF {
		return nil, ErrNotPresent
	}
	if size > s.Layout.MaxPayload() {
		return nil, &IntegrityError{
			Source: s.Name(),
			Reason: fmt.Sprintf("size %d exceeds %d", size, s.Layout.MaxPayload()),
		}
	}

	b, err := alloc.Alloc(int(size))
	if err != nil {
		return nil, err
	}
	if err := s.Flash.Read(s.Layout.PayloadAddr, b.Bytes()); err != nil {
		b.Release()
		return nil, err
	}
	if !crc.Verify(b.Bytes(), int(size), expected) {
		actual := crc.Checksum(b.Bytes())
		b.Release()
		return nil, &IntegrityError{
			Source: s.Name(),
			Reason: "crc",
			Err:    &ChecksumError{Expected: expected, Actual: actual},
		}
	}
	return b, nil
}

// DirectSource loads a payload through the board's direct read path.
type DirectSource struct {
	Gate    *kunai.Gate
	Address uint32
}

// Name implements Source.
func (s *DirectSource) Name() string {
	return "direct"
}

// Probe implements Source.
func (s *DirectSource) Probe(_ context.Context, alloc payload.Allocator) (*payload.Buffer, error) {
	if s.Gate == nil {
		return nil, ErrNotPresent
	}
	buf, err := s.Gate.ReadDirect(s.Address, alloc)
	if errors.Is(err, kunai.ErrEmptyPayload) {
		return nil, fmt.Errorf("%w: %v", ErrNotPresent, err)
	}
	return buf, err
}
