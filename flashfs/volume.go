package flashfs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	lfs "github.com/bgould/go-littlefs"

	"github.com/kunaigc/go-kunai/blockdev"
	"github.com/kunaigc/go-kunai/payload"
)

// BootCountFile is the name of the boot counter file.
const BootCountFile = "boot_count"

// ErrClosed is returned by operations on an unmounted volume.
var ErrClosed = errors.New("flashfs: volume closed")

// Volume is a mounted littlefs filesystem on the KunaiGC flash.
//
// Volume is not safe for concurrent use.
type Volume struct {
	dev    *blockdev.Adapter
	fs     *lfs.LFS
	cfg    lfs.Config
	config Config
	closed bool
}

func open(dev *blockdev.Adapter, opts []Option) (*Volume, error) {
	if dev == nil {
		panic("block device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := dev.Detect(); err != nil {
		return nil, &MountError{Err: err}
	}

	v := &Volume{
		dev:    dev,
		cfg:    dev.Geometry().LFSConfig(),
		config: cfg,
	}
	v.fs = lfs.New(dev).Configure(&v.cfg)
	return v, nil
}

// Mount identifies the chip, sizes the filesystem to it and mounts it. A
// filesystem that does not mount is reported as *MountError; nothing is
// formatted.
//
// Example:
//
//	vol, err := flashfs.Mount(dev)
//	if err != nil {
//	    return err
//	}
//	defer vol.Close()
func Mount(dev *blockdev.Adapter, opts ...Option) (*Volume, error) {
	v, err := open(dev, opts)
	if err != nil {
		return nil, err
	}
	if err := v.fs.Mount(); err != nil {
		v.logError("mount failed", "error", err)
		return nil, &MountError{Err: err}
	}
	v.logInfo("mounted", "blocks", v.cfg.BlockCount)
	return v, nil
}

// MountOrFormat mounts the filesystem, formatting it once if the first
// mount fails. This should only happen on the first boot of a new board. A
// failure after formatting is returned as *MountError with Formatted set.
func MountOrFormat(dev *blockdev.Adapter, opts ...Option) (*Volume, error) {
	v, err := open(dev, opts)
	if err != nil {
		return nil, err
	}
	if err := v.fs.Mount(); err == nil {
		v.logInfo("mounted", "blocks", v.cfg.BlockCount)
		return v, nil
	}

	v.logInfo("formatting", "blocks", v.cfg.BlockCount)
	if err := v.fs.Format(); err != nil {
		return nil, &MountError{Formatted: true, Err: fmt.Errorf("format: %w", err)}
	}
	if err := v.fs.Mount(); err != nil {
		return nil, &MountError{Formatted: true, Err: err}
	}
	v.logInfo("mounted", "blocks", v.cfg.BlockCount)
	return v, nil
}

// Geometry returns the geometry the volume is mounted with.
func (v *Volume) Geometry() blockdev.Geometry {
	return v.dev.Geometry()
}

// ReadFile reads the whole file at path into a buffer from alloc. The
// buffer is returned only when fully read.
func (v *Volume) ReadFile(path string, alloc payload.Allocator) (buf *payload.Buffer, err error) {
	if v.closed {
		return nil, ErrClosed
	}
	info, err := v.fs.Stat(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	size := info.Size()
	v.logDebug("reading", "path", path, "size", size)

	f, err := v.fs.OpenFile(path, lfs.O_RDONLY)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	defer f.Close()

	b, err := alloc.Alloc(int(size))
	if err != nil {
		return nil, err
	}
	if _, err := readFull(f, b.Bytes()); err != nil {
		b.Release()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

// WriteFile replaces the file at path with data. The contents are only
// persisted once the file closes successfully.
func (v *Volume) WriteFile(path string, data []byte) error {
	if v.closed {
		return ErrClosed
	}
	f, err := v.fs.OpenFile(path, lfs.O_WRONLY|lfs.O_CREAT|lfs.O_TRUNC)
	if err != nil {
		return &OpenError{Path: path, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	v.logDebug("wrote", "path", path, "size", len(data))
	return nil
}

// Remove deletes the file at path.
func (v *Volume) Remove(path string) error {
	if v.closed {
		return ErrClosed
	}
	return v.fs.Remove(path)
}

// IncrementBootCount reads the boot counter, adds one and writes it back,
// creating the file on first use. The counter is stored big-endian. The new
// value is persisted only if closing the file succeeds.
func (v *Volume) IncrementBootCount() (uint32, error) {
	count, err := v.BootCount()
	if err != nil {
		return 0, err
	}
	count++

	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], count)
	if err := v.WriteFile(BootCountFile, raw[:]); err != nil {
		return 0, fmt.Errorf("boot count: %w", err)
	}
	v.logInfo("boot count", "count", count)
	return count, nil
}

// BootCount returns the stored boot counter, creating the file if it does
// not exist. A missing or short file counts as zero.
func (v *Volume) BootCount() (uint32, error) {
	if v.closed {
		return 0, ErrClosed
	}
	f, err := v.fs.OpenFile(BootCountFile, lfs.O_RDWR|lfs.O_CREAT)
	if err != nil {
		return 0, &OpenError{Path: BootCountFile, Err: err}
	}

	var raw [4]byte
	n, err := readFull(f, raw[:])
	if cerr := f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	switch {
	case n == len(raw):
		return binary.BigEndian.Uint32(raw[:]), nil
	case err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		return 0, nil
	default:
		return 0, fmt.Errorf("read boot count: %w", err)
	}
}

// Close unmounts the volume. It is idempotent.
func (v *Volume) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	return v.fs.Unmount()
}

// readFull is io.ReadFull for readers that report end of file with a zero
// count instead of io.EOF.
func readFull(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, io.ErrUnexpectedEOF
		}
	}
	return n, nil
}

func (v *Volume) logDebug(msg string, keysAndValues ...interface{}) {
	if v.config.Logger != nil {
		v.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (v *Volume) logInfo(msg string, keysAndValues ...interface{}) {
	if v.config.Logger != nil {
		v.config.Logger.Info(msg, keysAndValues...)
	}
}

func (v *Volume) logError(msg string, keysAndValues ...interface{}) {
	if v.config.Logger != nil {
		v.config.Logger.Error(msg, keysAndValues...)
	}
}
