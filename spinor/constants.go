package spinor

// Command codes of the W25Q80BV family. Other 25-series parts share this set.
const (
	// CmdWriteEnable sets the write-enable latch; required before program and erase
	CmdWriteEnable = 0x06

	// CmdWriteDisable clears the write-enable latch
	CmdWriteDisable = 0x04

	// CmdReadStatus1 reads status register 1
	CmdReadStatus1 = 0x05

	// CmdReadData is the plain read command (no dummy cycle)
	CmdReadData = 0x03

	// CmdFastRead is the fast read command; one dummy byte follows the address
	CmdFastRead = 0x0B

	// CmdPageProgram programs up to one page
	CmdPageProgram = 0x02

	// CmdErase4K erases one 4 KiB sector
	CmdErase4K = 0x20

	// CmdErase32K erases one 32 KiB block
	CmdErase32K = 0x52

	// CmdErase64K erases one 64 KiB block
	CmdErase64K = 0xD8

	// CmdChipErase erases the whole array
	CmdChipErase = 0xC7

	// CmdReadManufacturerDeviceID reads the 16-bit manufacturer/device ID
	CmdReadManufacturerDeviceID = 0x90

	// CmdReadJEDECID reads the 24-bit JEDEC manufacturer/type/capacity ID
	CmdReadJEDECID = 0x9F

	// CmdReadUniqueID reads the 64-bit factory unique ID
	CmdReadUniqueID = 0x4B
)

// Status register bits.
const (
	// StatusBusy is set while a program or erase cycle is in progress
	StatusBusy = 0x01

	// StatusWriteEnableLatch is set after a write enable
	StatusWriteEnableLatch = 0x02
)

// Geometry of the chip family.
const (
	// PageSize is the largest unit a single page program may write
	PageSize = 256

	// SectorSize is the smallest erasable unit
	SectorSize = 4096

	// Block32KSize is the size erased by CmdErase32K
	Block32KSize = 32 * 1024

	// Block64KSize is the size erased by CmdErase64K
	Block64KSize = 64 * 1024

	// MaxAddress is the highest address reachable with 3-byte addressing
	MaxAddress = 0xFFFFFF

	// ErasedByte is the value every byte reads as after an erase
	ErasedByte = 0xFF
)

// DefaultPollLimit bounds WaitUntilReady. A chip erase on the largest
// supported parts takes well under this many status reads at bus speed.
const DefaultPollLimit = 1 << 20
