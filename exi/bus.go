package exi

import "fmt"

// Channel identifies an expansion bus channel.
type Channel int

// Device identifies a chip-select line on a channel.
type Device int

// Speed is the clock class requested when selecting a device.
type Speed int

// Direction of an immediate transfer.
type Direction int

// Channels, devices and speed classes of the expansion bus.
const (
	Channel0 Channel = 0
	Channel1 Channel = 1
	Channel2 Channel = 2

	Device0 Device = 0
	Device1 Device = 1
	Device2 Device = 2

	Speed1MHz  Speed = 0
	Speed2MHz  Speed = 1
	Speed4MHz  Speed = 2
	Speed8MHz  Speed = 3
	Speed16MHz Speed = 4
	Speed32MHz Speed = 5

	Read  Direction = 0
	Write Direction = 1
)

// Transfer sizes accepted by a single immediate transfer.
const (
	// MaxImmSize is the widest immediate transfer the hardware supports (one word)
	MaxImmSize = 4
)

func (d Direction) String() string {
	switch d {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

func (s Speed) String() string {
	switch s {
	case Speed1MHz:
		return "1MHz"
	case Speed2MHz:
		return "2MHz"
	case Speed4MHz:
		return "4MHz"
	case Speed8MHz:
		return "8MHz"
	case Speed16MHz:
		return "16MHz"
	case Speed32MHz:
		return "32MHz"
	default:
		return fmt.Sprintf("speed(%d)", int(s))
	}
}

// Bus is the shared expansion bus. Implementations drive the hardware; they
// perform no framing of their own.
//
// A transfer is only legal between Lock+Select and Deselect+Unlock. Callers
// should go through Open, which returns a Session that enforces the pairing.
type Bus interface {
	// Lock takes exclusive ownership of the channel for the device.
	Lock(ch Channel, dev Device) error

	// Select asserts the device's chip-select at the given speed.
	Select(ch Channel, dev Device, speed Speed) error

	// Imm starts an immediate transfer of len(buf) bytes (1 to MaxImmSize).
	// For reads, buf is filled once Sync returns.
	Imm(ch Channel, buf []byte, dir Direction) error

	// Sync waits for the pending immediate transfer to finish.
	Sync(ch Channel) error

	// Deselect releases the chip-select.
	Deselect(ch Channel) error

	// Unlock releases channel ownership.
	Unlock(ch Channel) error
}
