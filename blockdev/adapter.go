package blockdev

import (
	"fmt"

	lfs "github.com/bgould/go-littlefs"

	"github.com/kunaigc/go-kunai/spinor"
)

// Status codes of the integer block device contract.
const (
	// StatusOK reports success
	StatusOK = 0

	// StatusIO reports an I/O failure; it equals littlefs' LFS_ERR_IO
	StatusIO = -5
)

var _ lfs.BlockDevice = (*Adapter)(nil)

// Adapter maps filesystem blocks onto the flash above the reserved region.
// It implements lfs.BlockDevice; Read, Prog, Erase and SyncStatus expose the
// same operations with integer status codes.
//
// Every flash command runs in its own window, and every program and erase
// waits for the chip before returning.
type Adapter struct {
	flash  *spinor.Flash
	geo    Geometry
	config Config
}

// New creates an adapter over flash with geometry g.
func New(flash *spinor.Flash, g Geometry, opts ...Option) (*Adapter, error) {
	if flash == nil {
		panic("flash cannot be nil")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if g.ProgSize > spinor.PageSize {
		return nil, &GeometryError{Reason: fmt.Sprintf("program size %d exceeds page size %d", g.ProgSize, spinor.PageSize)}
	}
	if g.BlockSize%spinor.SectorSize != 0 {
		return nil, &GeometryError{Reason: fmt.Sprintf("block size %d is not a multiple of the %d byte sector", g.BlockSize, spinor.SectorSize)}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Adapter{
		flash:  flash,
		geo:    g,
		config: cfg,
	}, nil
}

// Geometry returns the current geometry.
func (a *Adapter) Geometry() Geometry {
	return a.geo
}

// Detect reads the JEDEC ID and recomputes BlockCount from it. It must run
// before the filesystem is mounted.
func (a *Adapter) Detect() (uint32, error) {
	var id uint32
	err := a.activated(func() error {
		var err error
		id, err = a.flash.ReadJEDECID()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read JEDEC ID: %w", err)
	}

	g, err := a.geo.ForJEDECID(id)
	if err != nil {
		return id, err
	}
	a.geo = g
	a.logDebug("flash detected", "jedec_id", fmt.Sprintf("0x%06X", id), "block_count", g.BlockCount)
	return id, nil
}

func (a *Adapter) address(block, off uint32, size int) (uint32, error) {
	if block >= a.geo.BlockCount || uint64(off)+uint64(size) > uint64(a.geo.BlockSize) {
		return 0, &RangeError{Block: block, Offset: off, Size: size, Blocks: a.geo.BlockCount}
	}
	return block*a.geo.BlockSize + off + a.geo.ReservedOffset, nil
}

// ReadBlock implements lfs.BlockDevice. The data is pulled in ReadSize
// units from a single fast read.
func (a *Adapter) ReadBlock(block, off uint32, buf []byte) error {
	if len(buf) == 0 {
		return ErrEmptyTransfer
	}
	if len(buf)%int(a.geo.ReadSize) != 0 {
		return &AlignmentError{Op: "read", Size: len(buf), Unit: a.geo.ReadSize}
	}
	addr, err := a.address(block, off, len(buf))
	if err != nil {
		return err
	}

	return a.activated(func() (err error) {
		c, err := a.flash.ReadStream(addr)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		unit := int(a.geo.ReadSize)
		for i := 0; i < len(buf); i += unit {
			if err := c.Read(buf[i : i+unit]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ProgramBlock implements lfs.BlockDevice. Each ProgSize unit is one page
// program followed by a completion wait.
func (a *Adapter) ProgramBlock(block, off uint32, buf []byte) error {
	if len(buf) == 0 {
		return ErrEmptyTransfer
	}
	if len(buf)%int(a.geo.ProgSize) != 0 {
		return &AlignmentError{Op: "program", Size: len(buf), Unit: a.geo.ProgSize}
	}
	addr, err := a.address(block, off, len(buf))
	if err != nil {
		return err
	}

	return a.activated(func() error {
		unit := int(a.geo.ProgSize)
		for i := 0; i < len(buf); i += unit {
			if err := a.flash.PageProgram(addr+uint32(i), buf[i:i+unit]); err != nil {
				return fmt.Errorf("program 0x%06X: %w", addr+uint32(i), err)
			}
			if err := a.wait(); err != nil {
				return err
			}
		}
		return nil
	})
}

// EraseBlock implements lfs.BlockDevice. The erased state is not read back.
func (a *Adapter) EraseBlock(block uint32) error {
	addr, err := a.address(block, 0, 0)
	if err != nil {
		return err
	}

	return a.activated(func() error {
		for s := uint32(0); s < a.geo.BlockSize; s += spinor.SectorSize {
			if err := a.flash.EraseSector(addr + s); err != nil {
				return fmt.Errorf("erase 0x%06X: %w", addr+s, err)
			}
			if err := a.wait(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Sync implements lfs.BlockDevice. Writes reach the chip before the program
// call returns, so there is nothing to flush.
func (a *Adapter) Sync() error {
	return nil
}

// Read is ReadBlock with the integer status contract; size bytes of buf are read.
func (a *Adapter) Read(block, off uint32, buf []byte, size uint32) int {
	if size == 0 || int(size) > len(buf) {
		return StatusIO
	}
	return a.status("read", a.ReadBlock(block, off, buf[:size]))
}

// Prog is ProgramBlock with the integer status contract.
func (a *Adapter) Prog(block, off uint32, buf []byte, size uint32) int {
	if size == 0 || int(size) > len(buf) {
		return StatusIO
	}
	return a.status("prog", a.ProgramBlock(block, off, buf[:size]))
}

// Erase is EraseBlock with the integer status contract.
func (a *Adapter) Erase(block uint32) int {
	return a.status("erase", a.EraseBlock(block))
}

// SyncStatus is Sync with the integer status contract.
func (a *Adapter) SyncStatus() int {
	return a.status("sync", a.Sync())
}

func (a *Adapter) status(op string, err error) int {
	if err != nil {
		a.logError("block device "+op+" failed", "error", err)
		return StatusIO
	}
	return StatusOK
}

// wait lets the chip settle and polls it until ready.
func (a *Adapter) wait() error {
	if a.config.SettleDelay > 0 {
		a.config.Sleep(a.config.SettleDelay)
	}
	return a.flash.WaitUntilReady()
}

func (a *Adapter) activated(fn func() error) error {
	return Activated(a.config.Activator, fn)
}

// Activated runs fn between act.Reenable and act.Disable, or runs it
// directly when act is nil. Disable runs even if fn fails.
func Activated(act Activator, fn func() error) (err error) {
	if act == nil {
		return fn()
	}
	if err := act.Reenable(); err != nil {
		return fmt.Errorf("reenable: %w", err)
	}
	defer func() {
		if derr := act.Disable(); derr != nil && err == nil {
			err = fmt.Errorf("disable: %w", derr)
		}
	}()
	return fn()
}

func (a *Adapter) logDebug(msg string, keysAndValues ...interface{}) {
	if a.config.Logger != nil {
		a.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (a *Adapter) logError(msg string, keysAndValues ...interface{}) {
	if a.config.Logger != nil {
		a.config.Logger.Error(msg, keysAndValues...)
	}
}
