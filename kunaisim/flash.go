package kunaisim

import (
	"encoding/binary"

	"github.com/kunaigc/go-kunai/spinor"
)

// Winbond manufacturer code and the W25Q memory type.
const (
	ManufacturerWinbond = 0xEF
	MemoryTypeW25Q      = 0x40
)

// Flash models a W25Q-series SPI NOR chip: command decoding per chip-select
// frame, write-enable latch, busy period after program and erase, AND-only
// programming with page wrap, and sector, block and chip erase.
type Flash struct {
	mem      []byte
	jedec    uint32
	uniqueID uint64

	wel       bool
	busyPolls int
	busyLeft  int

	active bool
	in     []byte
	out    int

	programs int
	erases   int
}

// NewFlash creates an erased chip of 1<<capacity bytes. Capacities outside
// 16..24 are clamped into that range.
func NewFlash(capacity byte) *Flash {
	if capacity < 16 {
		capacity = 16
	}
	if capacity > 24 {
		capacity = 24
	}
	mem := make([]byte, 1<<capacity)
	for i := range mem {
		mem[i] = spinor.ErasedByte
	}
	return &Flash{
		mem:      mem,
		jedec:    ManufacturerWinbond<<16 | MemoryTypeW25Q<<8 | uint32(capacity),
		uniqueID: 0xD26121D3C7000000 | uint64(capacity),
	}
}

// SetJEDECID overrides the identification the chip reports. The memory size
// is not changed; this is how a misreporting part is modelled.
func (f *Flash) SetJEDECID(id uint32) {
	f.jedec = id & 0xFFFFFF
}

// SetBusyPolls sets how many status reads report busy after each program
// or erase.
func (f *Flash) SetBusyPolls(n int) {
	f.busyPolls = n
}

// Size returns the array size in bytes.
func (f *Flash) Size() int {
	return len(f.mem)
}

// Bytes returns the array contents. The slice aliases the chip.
func (f *Flash) Bytes() []byte {
	return f.mem
}

// Load copies data into the array at addr as if it had been programmed into
// an erased region, bypassing the command interface.
func (f *Flash) Load(addr uint32, data []byte) {
	copy(f.mem[addr:], data)
}

// Programs returns the number of page programs accepted.
func (f *Flash) Programs() int {
	return f.programs
}

// Erases returns the number of erase commands accepted.
func (f *Flash) Erases() int {
	return f.erases
}

// Busy reports whether a program or erase cycle is still running.
func (f *Flash) Busy() bool {
	return f.busyLeft > 0
}

// Begin asserts chip-select.
func (f *Flash) Begin() {
	f.active = true
	f.in = f.in[:0]
	f.out = 0
}

// Write clocks bytes into the chip.
func (f *Flash) Write(p []byte) {
	if !f.active {
		return
	}
	f.in = append(f.in, p...)
}

// Read clocks bytes out of the chip.
func (f *Flash) Read(p []byte) {
	for i := range p {
		p[i] = f.next()
	}
}

func (f *Flash) addr() uint32 {
	if len(f.in) < 4 {
		return 0
	}
	return uint32(f.in[1])<<16 | uint32(f.in[2])<<8 | uint32(f.in[3])
}

func (f *Flash) next() byte {
	if !f.active || len(f.in) == 0 {
		return 0xFF
	}
	idx := f.out
	f.out++

	switch f.in[0] {
	case spinor.CmdReadStatus1:
		var status byte
		if f.busyLeft > 0 {
			status |= spinor.StatusBusy
			f.busyLeft--
		}
		if f.wel {
			status |= spinor.StatusWriteEnableLatch
		}
		return status
	case spinor.CmdReadData:
		if f.Busy() {
			return 0xFF
		}
		return f.mem[(f.addr()+uint32(idx))%uint32(len(f.mem))]
	case spinor.CmdFastRead:
		if f.Busy() || idx == 0 {
			return 0xFF
		}
		return f.mem[(f.addr()+uint32(idx-1))%uint32(len(f.mem))]
	case spinor.CmdReadManufacturerDeviceID:
		if idx%2 == 0 {
			return byte(f.jedec >> 16)
		}
		return byte(f.jedec) - 1
	case spinor.CmdReadJEDECID:
		if idx < 3 {
			return byte(f.jedec >> (16 - 8*idx))
		}
		return 0x00
	case spinor.CmdReadUniqueID:
		if idx == 0 || idx > 8 {
			return 0x00
		}
		var id [8]byte
		binary.BigEndian.PutUint64(id[:], f.uniqueID)
		return id[idx-1]
	default:
		return 0xFF
	}
}

// End releases chip-select. Program and erase commands take effect here.
func (f *Flash) End() {
	if !f.active {
		return
	}
	f.active = false
	if len(f.in) == 0 || f.Busy() {
		return
	}

	switch cmd := f.in[0]; cmd {
	case spinor.CmdWriteEnable:
		f.wel = true
	case spinor.CmdWriteDisable:
		f.wel = false
	case spinor.CmdPageProgram:
		if !f.wel || len(f.in) <= 4 {
			return
		}
		f.program(f.addr(), f.in[4:])
	case spinor.CmdErase4K:
		f.eraseAligned(spinor.SectorSize)
	case spinor.CmdErase32K:
		f.eraseAligned(spinor.Block32KSize)
	case spinor.CmdErase64K:
		f.eraseAligned(spinor.Block64KSize)
	case spinor.CmdChipErase:
		if !f.wel {
			return
		}
		f.erase(0, len(f.mem))
	}
}

func (f *Flash) program(addr uint32, data []byte) {
	addr %= uint32(len(f.mem))
	page := addr &^ (spinor.PageSize - 1)
	off := addr - page
	if len(data) > spinor.PageSize {
		data = data[len(data)-spinor.PageSize:]
	}
	for i, b := range data {
		pos := page + (off+uint32(i))%spinor.PageSize
		f.mem[pos] &= b
	}
	f.programs++
	f.wel = false
	f.busyLeft = f.busyPolls
}

func (f *Flash) eraseAligned(size int) {
	if !f.wel || len(f.in) < 4 {
		return
	}
	start := int(f.addr()) &^ (size - 1)
	if start >= len(f.mem) {
		return
	}
	f.erase(start, size)
}

func (f *Flash) erase(start, size int) {
	end := start + size
	if end > len(f.mem) {
		end = len(f.mem)
	}
	for i := start; i < end; i++ {
		f.mem[i] = spinor.ErasedByte
	}
	f.erases++
	f.wel = false
	f.busyLeft = f.busyPolls
}
