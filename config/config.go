// Package config loads the YAML configuration shared by the command line
// tools.
//
// Example file:
//
//	device:
//	  spi: /dev/spidev0.0
//	  cs: GPIO8
//	  hz: 16000000
//	  board: true
//	layout:
//	  headerAddr: 0x3F000
//	  payloadAddr: 0x1000
//	gecko:
//	  port: /dev/ttyUSB0
//	  baud: 115200
//	log:
//	  level: debug
package config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"

	"github.com/kunaigc/go-kunai/blockdev"
	"github.com/kunaigc/go-kunai/boot"
)

// Device selects the flash the tools talk to.
type Device struct {
	// SPI is the periph.io port name; empty uses the first port
	SPI string `json:"spi,omitempty"`

	// CS is the GPIO pin used as chip-select
	CS string `json:"cs,omitempty"`

	// Hz is the SPI clock
	Hz int64 `json:"hz,omitempty"`

	// Board is true when a KunaiGC board sits between the port and the
	// chip and passthrough must be entered for every transaction
	Board bool `json:"board"`

	// Image makes the tools run against a simulated chip backed by this
	// file instead of hardware
	Image string `json:"image,omitempty"`

	// ImageCapacity is the simulated chip size exponent
	ImageCapacity uint8 `json:"imageCapacity,omitempty"`
}

// Layout overrides the raw payload layout.
type Layout struct {
	HeaderAddr  uint32 `json:"headerAddr,omitempty"`
	PayloadAddr uint32 `json:"payloadAddr,omitempty"`
}

// Gecko configures the host side of the cable.
type Gecko struct {
	Port string `json:"port,omitempty"`
	Baud int    `json:"baud,omitempty"`
}

// Log configures the tools' logger.
type Log struct {
	// Level is "debug", "info" or "error"
	Level string `json:"level,omitempty"`

	// Development selects zap's human readable output
	Development bool `json:"development"`
}

// Config is the tool configuration.
type Config struct {
	Device   Device   `json:"device"`
	Geometry Geometry `json:"geometry"`
	Layout   Layout   `json:"layout"`
	Gecko    Gecko    `json:"gecko"`
	Log      Log      `json:"log"`
}

// Geometry overrides parts of the littlefs geometry. Zero fields keep the
// default.
type Geometry struct {
	BlockCycles int32  `json:"blockCycles,omitempty"`
	CacheSize   uint32 `json:"cacheSize,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Device: Device{
			Hz:            16000000,
			Board:         true,
			ImageCapacity: 0x14,
		},
		Layout: Layout{
			HeaderAddr:  boot.DefaultHeaderAddr,
			PayloadAddr: boot.DefaultPayloadAddr,
		},
		Gecko: Gecko{
			Baud: 115200,
		},
		Log: Log{
			Level:       "info",
			Development: true,
		},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the tools cannot use.
func (c *Config) Validate() error {
	if c.Layout.HeaderAddr <= c.Layout.PayloadAddr {
		return fmt.Errorf("config: layout header 0x%X must follow payload 0x%X",
			c.Layout.HeaderAddr, c.Layout.PayloadAddr)
	}
	if c.Layout.HeaderAddr+boot.RawHeaderSize > blockdev.ReservedOffset {
		return fmt.Errorf("config: layout header 0x%X runs into the filesystem at 0x%X",
			c.Layout.HeaderAddr, blockdev.ReservedOffset)
	}
	switch c.Log.Level {
	case "debug", "info", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	if c.Device.Image != "" && (c.Device.ImageCapacity < 19 || c.Device.ImageCapacity > blockdev.MaxCapacityExponent) {
		return fmt.Errorf("config: image capacity exponent %d outside 19-%d",
			c.Device.ImageCapacity, blockdev.MaxCapacityExponent)
	}
	return nil
}

// RawLayout returns the configured raw payload layout.
func (c *Config) RawLayout() boot.RawLayout {
	return boot.RawLayout{
		HeaderAddr:  c.Layout.HeaderAddr,
		PayloadAddr: c.Layout.PayloadAddr,
	}
}

// BlockGeometry returns the default littlefs geometry with the configured
// overrides applied.
func (c *Config) BlockGeometry() blockdev.Geometry {
	g := blockdev.DefaultGeometry()
	if c.Geometry.BlockCycles != 0 {
		g.BlockCycles = c.Geometry.BlockCycles
	}
	if c.Geometry.CacheSize != 0 {
		g.CacheSize = c.Geometry.CacheSize
	}
	return g
}
