package kunai

import "github.com/kunaigc/go-kunai/exi"

// Bus location of the KunaiGC board.
const (
	// Channel is the expansion channel the board answers on
	Channel = exi.Channel0

	// Device is the chip-select the board answers on
	Device = exi.Device1
)

// Signaling words. The board inspects the first word of every selection to
// decide what the rest of the selection means.
const (
	// PassthroughWord hands the rest of the selection to the flash chip:
	// one set bit followed by 31 clear bits
	PassthroughWord uint32 = 0x80000000

	// ControlWord addresses the activation register; the next word is the value
	ControlWord uint32 = 0xC0000000

	// DirectShift is applied to a payload address to form a direct read word
	DirectShift = 6

	// MaxDirectAddress is the highest address a direct read word can carry
	MaxDirectAddress uint32 = 0xFFFFFFFF >> DirectShift
)

// Activation register values.
const (
	// DisableValue hides the board so the console boots its own IPL
	DisableValue uint32 = 6 << 24

	// ReenableValue makes the board visible again
	ReenableValue uint32 = 1 << 24
)

// Bus speeds used for each kind of selection.
const (
	PassthroughSpeed = exi.Speed32MHz
	ControlSpeed     = exi.Speed8MHz
	DirectSpeed      = exi.Speed16MHz
)

// DefaultAttempts is the number of tries Enter makes to signal passthrough.
const DefaultAttempts = 3

// DefaultMaxDirectSize bounds the length ReadDirect accepts by default.
const DefaultMaxDirectSize = 24 << 20
