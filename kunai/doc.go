/*
Package kunai drives the KunaiGC board on the console's expansion bus.

The board sits on channel 0, device 1, in front of a SPI NOR flash chip. The
console never talks to the flash directly: the first word of every selection
tells the board what to do with the rest of it.

# Passthrough

A selection that starts with 0x80000000 at 32 MHz is forwarded to the flash
until deselect. Gate wraps this in a two-state machine:

	Owned --Enter--> Passthrough --Close--> Owned

Enter retries the signaling word up to three times and releases the bus
between attempts. Window.Close always deselects and unlocks. Opening a
second window while one is open fails with ErrNested.

Gate implements spinor.Opener, so every flash command runs in its own
window:

	gate := kunai.NewGate(bus)
	flash := spinor.New(gate)
	id, err := flash.ReadJEDECID()

# Activation Register

A selection that starts with 0xC0000000 at 8 MHz writes the activation
register with the following word. Disable (6<<24) hides the board so the
console falls back to its own boot ROM; Reenable (1<<24) brings it back.

# Direct Read

Any other first word at 16 MHz is a direct read: the word is the payload
address shifted left by six, and the board answers with a 32-bit length
followed by the payload bytes. ReadDirect implements this path.
*/
package kunai
