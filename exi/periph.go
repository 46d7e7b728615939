package exi

import (
	"errors"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

// PeriphBus drives a SPI port through periph.io with a GPIO chip-select.
// It lets the flash stack run against a bare chip wired to a host adapter
// (FT232H, a Raspberry Pi header, ...). Channel and device arguments are
// accepted for any value since there is exactly one chip behind the port;
// the clock is fixed when the spi.Conn is connected, so Speed is ignored.
type PeriphBus struct {
	conn spi.Conn
	cs   gpio.PinOut

	mu      sync.Mutex
	pending []byte
	dir     Direction
}

// NewPeriphBus returns a Bus over conn using cs as active-low chip-select.
func NewPeriphBus(conn spi.Conn, cs gpio.PinOut) *PeriphBus {
	return &PeriphBus{conn: conn, cs: cs}
}

func (b *PeriphBus) Lock(_ Channel, _ Device) error {
	b.mu.Lock()
	return nil
}

func (b *PeriphBus) Select(_ Channel, _ Device, _ Speed) error {
	return b.cs.Out(gpio.Low)
}

func (b *PeriphBus) Imm(_ Channel, buf []byte, dir Direction) error {
	if b.pending != nil {
		return errors.New("exi: immediate transfer already pending")
	}
	b.pending = buf
	b.dir = dir
	return nil
}

func (b *PeriphBus) Sync(_ Channel) error {
	buf := b.pending
	b.pending = nil
	if buf == nil {
		return nil
	}
	if b.dir == Write {
		return b.conn.Tx(buf, nil)
	}
	// clock out zeros while reading
	w := make([]byte, len(buf))
	return b.conn.Tx(w, buf)
}

func (b *PeriphBus) Deselect(_ Channel) error {
	b.pending = nil
	return b.cs.Out(gpio.High)
}

func (b *PeriphBus) Unlock(_ Channel) error {
	b.mu.Unlock()
	return nil
}
