package blockdev

import (
	"fmt"

	lfs "github.com/bgould/go-littlefs"
)

// Layout of the filesystem region on the KunaiGC flash.
const (
	// ReservedOffset is the flash region below the filesystem, holding the
	// loader image
	ReservedOffset = 0x40000

	// DefaultBlockCount is the block count of a 2 MiB part, used until the
	// chip has been identified
	DefaultBlockCount = 448

	// MaxCapacityExponent is the largest size reachable with 3-byte addressing
	MaxCapacityExponent = 24
)

// Geometry describes the filesystem's view of the flash.
type Geometry struct {
	// ReadSize is the unit of every read
	ReadSize uint32

	// ProgSize is the unit of every program; one page program each
	ProgSize uint32

	// BlockSize is the erase unit
	BlockSize uint32

	// BlockCount is the number of blocks above ReservedOffset
	BlockCount uint32

	// CacheSize is the per-file and read/program cache size
	CacheSize uint32

	// LookaheadSize is the block allocator lookahead buffer size
	LookaheadSize uint32

	// BlockCycles is the erase count before wear leveling moves metadata
	BlockCycles int32

	// ReservedOffset is the flash address of block 0
	ReservedOffset uint32
}

// DefaultGeometry returns the geometry the KunaiGC firmware formats with.
func DefaultGeometry() Geometry {
	return Geometry{
		ReadSize:       4,
		ProgSize:       256,
		BlockSize:      4096,
		BlockCount:     DefaultBlockCount,
		CacheSize:      256 * 8,
		LookaheadSize:  16,
		BlockCycles:    500,
		ReservedOffset: ReservedOffset,
	}
}

// Validate checks the divisibility rules between the sizes.
func (g Geometry) Validate() error {
	switch {
	case g.ReadSize == 0 || g.ProgSize == 0 || g.BlockSize == 0:
		return &GeometryError{Reason: "read, program and block sizes must be non-zero"}
	case g.BlockSize%g.ProgSize != 0:
		return &GeometryError{Reason: fmt.Sprintf("program size %d does not divide block size %d", g.ProgSize, g.BlockSize)}
	case g.BlockSize%g.ReadSize != 0:
		return &GeometryError{Reason: fmt.Sprintf("read size %d does not divide block size %d", g.ReadSize, g.BlockSize)}
	case g.CacheSize%g.ProgSize != 0 || g.CacheSize%g.ReadSize != 0:
		return &GeometryError{Reason: fmt.Sprintf("cache size %d is not a multiple of read and program size", g.CacheSize)}
	case g.BlockSize%g.CacheSize != 0:
		return &GeometryError{Reason: fmt.Sprintf("cache size %d does not divide block size %d", g.CacheSize, g.BlockSize)}
	case g.ReservedOffset%g.BlockSize != 0:
		return &GeometryError{Reason: fmt.Sprintf("reserved offset 0x%X is not block aligned", g.ReservedOffset)}
	}
	return nil
}

// BlockCountFor derives the filesystem block count from a JEDEC ID. The low
// byte is the capacity exponent; the part holds 1<<exp bytes, of which
// everything above ReservedOffset belongs to the filesystem.
//
//	blocks = ((1 << exp) - ReservedOffset) / BlockSize
func BlockCountFor(jedecID uint32, g Geometry) (uint32, error) {
	exp := uint(jedecID & 0xFF)
	if exp > MaxCapacityExponent || g.BlockSize == 0 {
		return 0, &CapacityError{JEDECID: jedecID, Exponent: exp}
	}
	capacity := uint64(1) << exp
	if capacity <= uint64(g.ReservedOffset) {
		return 0, &CapacityError{JEDECID: jedecID, Exponent: exp}
	}
	if capacity%uint64(g.BlockSize) != 0 {
		return 0, &CapacityError{JEDECID: jedecID, Exponent: exp}
	}
	return uint32((capacity - uint64(g.ReservedOffset)) / uint64(g.BlockSize)), nil
}

// ForJEDECID returns g with BlockCount recomputed for the identified part.
func (g Geometry) ForJEDECID(jedecID uint32) (Geometry, error) {
	n, err := BlockCountFor(jedecID, g)
	if err != nil {
		return g, err
	}
	g.BlockCount = n
	return g, nil
}

// Size returns the filesystem region size in bytes.
func (g Geometry) Size() uint64 {
	return uint64(g.BlockCount) * uint64(g.BlockSize)
}

// LFSConfig converts the geometry to a littlefs configuration.
func (g Geometry) LFSConfig() lfs.Config {
	return lfs.Config{
		ReadSize:      g.ReadSize,
		ProgSize:      g.ProgSize,
		BlockSize:     g.BlockSize,
		BlockCount:    g.BlockCount,
		CacheSize:     g.CacheSize,
		LookaheadSize: g.LookaheadSize,
		BlockCycles:   g.BlockCycles,
	}
}
