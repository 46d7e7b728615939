package blockdev

import (
	"errors"
	"fmt"
)

// ErrEmptyTransfer is returned for a read or program of zero bytes. The bus
// is not touched.
var ErrEmptyTransfer = errors.New("blockdev: zero-length transfer")

// CapacityError indicates a JEDEC ID whose capacity exponent cannot describe
// a usable part: too large for 3-byte addressing, or not larger than the
// reserved region.
type CapacityError struct {
	JEDECID  uint32
	Exponent uint
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("blockdev: implausible capacity exponent %d in JEDEC ID 0x%06X", e.Exponent, e.JEDECID)
}

// GeometryError indicates an inconsistent geometry.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("blockdev: invalid geometry: %s", e.Reason)
}

// RangeError indicates an access outside the block device.
type RangeError struct {
	Block  uint32
	Offset uint32
	Size   int
	Blocks uint32
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("blockdev: access block %d offset %d size %d outside %d blocks", e.Block, e.Offset, e.Size, e.Blocks)
}

// AlignmentError indicates a transfer that is not a multiple of its unit.
type AlignmentError struct {
	Op   string
	Size int
	Unit uint32
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("blockdev: %s of %d bytes is not a multiple of %d", e.Op, e.Size, e.Unit)
}
