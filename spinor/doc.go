/*
Package spinor implements the command layer of 25-series SPI NOR flash
(W25Q80BV and compatible parts).

Each command runs in its own chip-select window obtained from an Opener. On
the KunaiGC board the opener is the passthrough gate from package kunai,
which hands the bus to the flash for the duration of the window; a chip
wired directly to a SPI port uses DirectOpener.

# Command Framing

Commands that take an address send a single 32-bit word, command byte first:

	[CMD][ADDR_H][ADDR_M][ADDR_L]

Fast read (0x0B) is followed by one dummy byte before data. JEDEC ID (0x9F)
returns manufacturer, memory type and capacity exponent.

# Program and Erase

Program and erase commands need the write-enable latch, which is set in its
own window immediately before. Neither waits for completion:

	f := spinor.New(gate)
	if err := f.EraseSector(addr); err != nil {
		return err
	}
	if err := f.WaitUntilReady(); err != nil {
		return err
	}

WaitUntilReady is bounded by the poll limit (WithPollLimit). A chip that
stays busy past the limit yields *NotRespondingError.

PageProgram writes at most PageSize bytes. Writes that cross a page boundary
wrap inside the page on the chip; callers keep writes page aligned.

# Reading

ReadStream returns a Cursor that keeps the read command open so that words
can be pulled one at a time:

	c, err := f.ReadStream(addr)
	if err != nil {
		return err
	}
	defer c.Close()
	size, err := c.ReadUint32()
*/
package spinor
