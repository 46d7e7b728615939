package spinor

import (
	"encoding/binary"
	"fmt"

	"github.com/kunaigc/go-kunai/exi"
)

// Tx is one chip-select framed window on the flash. Everything written and
// read between opening and Close belongs to a single chip command.
type Tx interface {
	Write(p []byte) error
	Read(p []byte) error
	Close() error
}

// Opener hands out command windows. In the device the opener is the
// passthrough gate; for a chip wired straight to a SPI port it is a
// DirectOpener.
type Opener interface {
	Begin() (Tx, error)
}

// DirectOpener opens plain bus sessions, with no passthrough signaling.
type DirectOpener struct {
	Bus     exi.Bus
	Channel exi.Channel
	Device  exi.Device
	Speed   exi.Speed
}

// Begin implements Opener.
func (o DirectOpener) Begin() (Tx, error) {
	return exi.Open(o.Bus, o.Channel, o.Device, o.Speed)
}

// Flash issues SPI-NOR commands. Every method runs its command inside its
// own window; none of them waits for program or erase completion unless the
// name says so.
//
// Flash is not safe for concurrent use.
type Flash struct {
	open   Opener
	config Config
}

// New creates a Flash driver issuing commands through open.
//
// Example:
//
//	gate := kunai.NewGate(bus)
//	f := spinor.New(gate, spinor.WithPollLimit(1<<16))
//	id, err := f.ReadJEDECID()
func New(open Opener, opts ...Option) *Flash {
	if open == nil {
		panic("opener cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Flash{
		open:   open,
		config: cfg,
	}
}

// command runs fn inside one window. The window is closed on every path.
func (f *Flash) command(fn func(tx Tx) error) (err error) {
	tx, err := f.open.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := tx.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(tx)
}

func writeWord(tx Tx, cmd byte, addr uint32) error {
	word, err := CommandWord(cmd, addr)
	if err != nil {
		return err
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], word)
	return tx.Write(buf[:])
}

func (f *Flash) single(cmd byte) error {
	return f.command(func(tx Tx) error {
		return tx.Write([]byte{cmd})
	})
}

// ReadID returns the 16-bit manufacturer/device ID. It is only good for
// sanity checks; geometry comes from ReadJEDECID.
func (f *Flash) ReadID() (uint16, error) {
	var id uint16
	err := f.command(func(tx Tx) error {
		if err := writeWord(tx, CmdReadManufacturerDeviceID, 0); err != nil {
			return err
		}
		var buf [2]byte
		if err := tx.Read(buf[:]); err != nil {
			return err
		}
		id = binary.BigEndian.Uint16(buf[:])
		return nil
	})
	return id, err
}

// ReadJEDECID returns the 24-bit manufacturer/type/capacity triple. The low
// byte is the capacity exponent.
func (f *Flash) ReadJEDECID() (uint32, error) {
	var id uint32
	err := f.command(func(tx Tx) error {
		if err := tx.Write([]byte{CmdReadJEDECID}); err != nil {
			return err
		}
		// one word is clocked in; the trailing byte is not part of the ID
		var buf [4]byte
		if err := tx.Read(buf[:]); err != nil {
			return err
		}
		id = binary.BigEndian.Uint32(buf[:]) >> 8
		return nil
	})
	return id, err
}

// UniqueID returns the 64-bit factory unique ID.
func (f *Flash) UniqueID() (uint64, error) {
	var id uint64
	err := f.command(func(tx Tx) error {
		if err := writeWord(tx, CmdReadUniqueID, 0); err != nil {
			return err
		}
		var buf [9]byte // dummy byte + 8 ID bytes
		if err := tx.Read(buf[:]); err != nil {
			return err
		}
		id = binary.BigEndian.Uint64(buf[1:])
		return nil
	})
	return id, err
}

// WriteEnable sets the write-enable latch.
func (f *Flash) WriteEnable() error {
	return f.single(CmdWriteEnable)
}

// WriteDisable clears the write-enable latch.
func (f *Flash) WriteDisable() error {
	return f.single(CmdWriteDisable)
}

// ReadStatus returns status register 1.
func (f *Flash) ReadStatus() (byte, error) {
	var status byte
	err := f.command(func(tx Tx) error {
		if err := tx.Write([]byte{CmdReadStatus1}); err != nil {
			return err
		}
		var buf [1]byte
		if err := tx.Read(buf[:]); err != nil {
			return err
		}
		status = buf[0]
		return nil
	})
	return status, err
}

// IsBusy reports whether a program or erase cycle is in progress.
func (f *Flash) IsBusy() (bool, error) {
	status, err := f.ReadStatus()
	return status&StatusBusy != 0, err
}

// WaitUntilReady polls the busy bit until it clears. The status register is
// re-read continuously within one window, as the chip allows. When the
// configured poll limit is reached the call fails with *NotRespondingError;
// with a limit of zero it spins until the chip answers.
func (f *Flash) WaitUntilReady() error {
	return f.command(func(tx Tx) error {
		if err := tx.Write([]byte{CmdReadStatus1}); err != nil {
			return err
		}
		var buf [1]byte
		for polls := 1; ; polls++ {
			if err := tx.Read(buf[:]); err != nil {
				return err
			}
			if buf[0]&StatusBusy == 0 {
				return nil
			}
			if f.config.PollLimit > 0 && polls >= f.config.PollLimit {
				f.logError("flash busy wait exceeded poll limit", "polls", polls)
				return &NotRespondingError{Polls: polls, Status: buf[0]}
			}
		}
	})
}

func (f *Flash) erase(cmd byte, addr uint32) error {
	if addr > MaxAddress {
		return &AddressError{Address: addr}
	}
	if err := f.WriteEnable(); err != nil {
		return fmt.Errorf("write enable: %w", err)
	}
	f.logDebug("erase", "command", fmt.Sprintf("0x%02X", cmd), "address", fmt.Sprintf("0x%06X", addr))
	return f.command(func(tx Tx) error {
		return writeWord(tx, cmd, addr)
	})
}

// EraseSector starts erasing the 4 KiB sector containing addr. The caller
// must WaitUntilReady before the next program or erase.
func (f *Flash) EraseSector(addr uint32) error {
	return f.erase(CmdErase4K, addr)
}

// EraseBlock32K starts erasing the 32 KiB block containing addr.
func (f *Flash) EraseBlock32K(addr uint32) error {
	return f.erase(CmdErase32K, addr)
}

// EraseBlock64K starts erasing the 64 KiB block containing addr.
func (f *Flash) EraseBlock64K(addr uint32) error {
	return f.erase(CmdErase64K, addr)
}

// EraseChip starts erasing the whole array.
func (f *Flash) EraseChip() error {
	if err := f.WriteEnable(); err != nil {
		return fmt.Errorf("write enable: %w", err)
	}
	return f.single(CmdChipErase)
}

// PageProgram starts programming data at addr. len(data) must be between 1
// and PageSize. The range is not checked against page boundaries: a write
// that crosses one wraps around to the start of the same page, exactly as
// the chip does. The caller must WaitUntilReady afterwards.
func (f *Flash) PageProgram(addr uint32, data []byte) error {
	if len(data) == 0 || len(data) > PageSize {
		return &PageSizeError{Size: len(data)}
	}
	if addr > MaxAddress {
		return &AddressError{Address: addr}
	}
	if err := f.WriteEnable(); err != nil {
		return fmt.Errorf("write enable: %w", err)
	}
	return f.command(func(tx Tx) error {
		if err := writeWord(tx, CmdPageProgram, addr); err != nil {
			return err
		}
		return tx.Write(data)
	})
}

// ReadStream issues a fast read at addr and returns a cursor over the data.
// The dummy byte that follows the address is consumed before returning. The
// cursor owns the window; the caller must Close it.
func (f *Flash) ReadStream(addr uint32) (*Cursor, error) {
	tx, err := f.open.Begin()
	if err != nil {
		return nil, err
	}
	if err := writeWord(tx, CmdFastRead, addr); err != nil {
		_ = tx.Close()
		return nil, err
	}
	var dummy [1]byte
	if err := tx.Read(dummy[:]); err != nil {
		_ = tx.Close()
		return nil, err
	}
	return &Cursor{tx: tx, addr: addr}, nil
}

// Read fills buf starting at addr.
func (f *Flash) Read(addr uint32, buf []byte) (err error) {
	c, err := f.ReadStream(addr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return c.Read(buf)
}

func (f *Flash) logDebug(msg string, keysAndValues ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (f *Flash) logError(msg string, keysAndValues ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Error(msg, keysAndValues...)
	}
}
