package main

import (
	"fmt"
	"os"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/kunaigc/go-kunai/blockdev"
	"github.com/kunaigc/go-kunai/config"
	"github.com/kunaigc/go-kunai/exi"
	"github.com/kunaigc/go-kunai/kunai"
	"github.com/kunaigc/go-kunai/kunaisim"
	"github.com/kunaigc/go-kunai/logging"
	"github.com/kunaigc/go-kunai/spinor"
)

// device is the opened flash stack.
type device struct {
	flash *spinor.Flash
	gate  *kunai.Gate
	dev   *blockdev.Adapter
	close func() error

	// act is the gate when there is a board, nil otherwise
	act blockdev.Activator
}

// openDevice builds the stack over real hardware, or over a simulated chip
// backed by an image file when one is configured.
func openDevice(cfg *config.Config, log logging.Logger) (*device, error) {
	var (
		bus     exi.Bus
		closeFn func() error
	)

	if cfg.Device.Image != "" {
		chip, save, err := openImage(cfg.Device.Image, cfg.Device.ImageCapacity)
		if err != nil {
			return nil, err
		}
		if cfg.Device.Board {
			bus = kunaisim.NewBus(chip)
		} else {
			bus = kunaisim.NewBareBus(chip)
		}
		closeFn = save
	} else {
		pb, closer, err := openPeriph(cfg.Device)
		if err != nil {
			return nil, err
		}
		bus = pb
		closeFn = closer
	}

	d := &device{close: closeFn}
	var opener spinor.Opener
	var opts []blockdev.Option
	if cfg.Device.Board {
		d.gate = kunai.NewGate(bus, kunai.WithLogger(log))
		opener = d.gate
		d.act = d.gate
		opts = append(opts, blockdev.WithActivation(d.gate))
	} else {
		opener = spinor.DirectOpener{
			Bus:     bus,
			Channel: kunai.Channel,
			Device:  kunai.Device,
			Speed:   kunai.PassthroughSpeed,
		}
	}
	d.flash = spinor.New(opener, spinor.WithLogger(log))

	opts = append(opts, blockdev.WithLogger(log))
	dev, err := blockdev.New(d.flash, cfg.BlockGeometry(), opts...)
	if err != nil {
		closeFn()
		return nil, err
	}
	d.dev = dev
	return d, nil
}

// openPeriph connects the configured SPI port and chip-select pin.
func openPeriph(dc config.Device) (exi.Bus, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("host init: %w", err)
	}

	port, err := spireg.Open(dc.SPI)
	if err != nil {
		return nil, nil, fmt.Errorf("open spi %q: %w", dc.SPI, err)
	}
	conn, err := port.Connect(physic.Frequency(dc.Hz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("connect spi: %w", err)
	}

	cs := gpioreg.ByName(dc.CS)
	if cs == nil {
		port.Close()
		return nil, nil, fmt.Errorf("chip-select pin %q not found", dc.CS)
	}
	return exi.NewPeriphBus(conn, cs), port.Close, nil
}

// openImage loads an image file into a simulated chip. The returned save
// function writes the chip back to the file.
func openImage(path string, capacity uint8) (*kunaisim.Flash, func() error, error) {
	chip := kunaisim.NewFlash(capacity)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, nil, err
	case len(data) > chip.Size():
		return nil, nil, fmt.Errorf("image %s is %d bytes, chip holds %d", path, len(data), chip.Size())
	default:
		chip.Load(0, data)
	}

	save := func() error {
		return os.WriteFile(path, chip.Bytes(), 0o644)
	}
	return chip, save, nil
}
