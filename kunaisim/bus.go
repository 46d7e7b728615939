package kunaisim

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/kunaigc/go-kunai/exi"
	"github.com/kunaigc/go-kunai/kunai"
)

// Bus protocol violations reported by the simulator.
var (
	ErrLocked      = errors.New("kunaisim: channel already locked")
	ErrNotLocked   = errors.New("kunaisim: channel not locked")
	ErrNotSelected = errors.New("kunaisim: device not selected")
	ErrNoTransfer  = errors.New("kunaisim: sync without pending transfer")
	ErrInjected    = errors.New("kunaisim: injected transfer failure")
)

// Mode is how the board interpreted a selection.
type Mode int

const (
	ModeUnknown Mode = iota
	ModePassthrough
	ModeControl
	ModeDirect
	ModeBare
)

func (m Mode) String() string {
	switch m {
	case ModeUnknown:
		return "unknown"
	case ModePassthrough:
		return "passthrough"
	case ModeControl:
		return "control"
	case ModeDirect:
		return "direct"
	case ModeBare:
		return "bare"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Selection records one completed Select..Deselect frame.
type Selection struct {
	Speed exi.Speed
	Mode  Mode
}

// Bus is an exi.Bus with the KunaiGC board on channel 0, device 1. The first
// word of every selection picks passthrough to the flash, the activation
// register, or a direct read. A bare bus wires the flash straight to the
// chip-select with no board in between.
type Bus struct {
	flash *Flash
	bare  bool

	locked   bool
	selected bool
	speed    exi.Speed

	pending    []byte
	pendingDir exi.Direction
	hasPending bool

	mode   Mode
	head   []byte
	ctrl   []byte
	direct uint32

	enabled    bool
	failSyncs  int
	transfers  int
	selections []Selection
}

// NewBus creates a bus with a KunaiGC board in front of flash.
func NewBus(flash *Flash) *Bus {
	return &Bus{flash: flash, enabled: true}
}

// NewBareBus creates a bus where flash sits directly on the chip-select.
func NewBareBus(flash *Flash) *Bus {
	return &Bus{flash: flash, bare: true, enabled: true}
}

// Flash returns the simulated chip.
func (b *Bus) Flash() *Flash {
	return b.flash
}

// Enabled reports the activation register state.
func (b *Bus) Enabled() bool {
	return b.enabled
}

// FailNextSyncs makes the next n Sync calls fail without effect.
func (b *Bus) FailNextSyncs(n int) {
	b.failSyncs = n
}

// Transfers returns the number of completed immediate transfers.
func (b *Bus) Transfers() int {
	return b.transfers
}

// Selections returns the frames seen so far.
func (b *Bus) Selections() []Selection {
	return b.selections
}

// Held reports whether the channel is locked or a device selected.
func (b *Bus) Held() bool {
	return b.locked || b.selected
}

func (b *Bus) check(ch exi.Channel, dev exi.Device) error {
	if ch != kunai.Channel || dev != kunai.Device {
		return fmt.Errorf("kunaisim: nothing on channel %d device %d", ch, dev)
	}
	return nil
}

// Lock implements exi.Bus.
func (b *Bus) Lock(ch exi.Channel, dev exi.Device) error {
	if err := b.check(ch, dev); err != nil {
		return err
	}
	if b.locked {
		return ErrLocked
	}
	b.locked = true
	return nil
}

// Select implements exi.Bus.
func (b *Bus) Select(ch exi.Channel, dev exi.Device, speed exi.Speed) error {
	if err := b.check(ch, dev); err != nil {
		return err
	}
	if !b.locked {
		return ErrNotLocked
	}
	b.selected = true
	b.speed = speed
	b.head = b.head[:0]
	b.ctrl = b.ctrl[:0]
	b.mode = ModeUnknown
	if b.bare {
		b.mode = ModeBare
		b.flash.Begin()
	}
	return nil
}

// Imm implements exi.Bus.
func (b *Bus) Imm(ch exi.Channel, buf []byte, dir exi.Direction) error {
	if !b.selected {
		return ErrNotSelected
	}
	b.pending = buf
	b.pendingDir = dir
	b.hasPending = true
	return nil
}

// Sync implements exi.Bus.
func (b *Bus) Sync(ch exi.Channel) error {
	if !b.hasPending {
		return ErrNoTransfer
	}
	b.hasPending = false
	if b.failSyncs > 0 {
		b.failSyncs--
		return ErrInjected
	}
	b.transfers++
	if b.pendingDir == exi.Write {
		b.write(b.pending)
	} else {
		b.read(b.pending)
	}
	return nil
}

func (b *Bus) write(p []byte) {
	if b.mode == ModeUnknown {
		n := 4 - len(b.head)
		if n > len(p) {
			n = len(p)
		}
		b.head = append(b.head, p[:n]...)
		p = p[n:]
		if len(b.head) < 4 {
			return
		}
		word := binary.BigEndian.Uint32(b.head)
		switch word {
		case kunai.PassthroughWord:
			b.mode = ModePassthrough
			b.flash.Begin()
		case kunai.ControlWord:
			b.mode = ModeControl
		default:
			b.mode = ModeDirect
			b.direct = word >> kunai.DirectShift
		}
	}

	switch b.mode {
	case ModePassthrough, ModeBare:
		b.flash.Write(p)
	case ModeControl:
		b.ctrl = append(b.ctrl, p...)
		if len(b.ctrl) >= 4 {
			switch binary.BigEndian.Uint32(b.ctrl) {
			case kunai.DisableValue:
				b.enabled = false
			case kunai.ReenableValue:
				b.enabled = true
			}
			b.ctrl = b.ctrl[4:]
		}
	}
}

func (b *Bus) read(p []byte) {
	switch b.mode {
	case ModePassthrough, ModeBare:
		b.flash.Read(p)
	case ModeDirect:
		mem := b.flash.Bytes()
		for i := range p {
			p[i] = mem[b.direct%uint32(len(mem))]
			b.direct++
		}
	default:
		for i := range p {
			p[i] = 0xFF
		}
	}
}

// Deselect implements exi.Bus.
func (b *Bus) Deselect(ch exi.Channel) error {
	if !b.selected {
		return ErrNotSelected
	}
	if b.mode == ModePassthrough || b.mode == ModeBare {
		b.flash.End()
	}
	b.selections = append(b.selections, Selection{Speed: b.speed, Mode: b.mode})
	b.selected = false
	b.hasPending = false
	return nil
}

// Unlock implements exi.Bus.
func (b *Bus) Unlock(ch exi.Channel) error {
	if !b.locked {
		return ErrNotLocked
	}
	b.locked = false
	return nil
}
