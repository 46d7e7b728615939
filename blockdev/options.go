package blockdev

import (
	"time"

	"github.com/kunaigc/go-kunai/logging"
)

// Activator switches the board on and off around flash access.
// *kunai.Gate implements it.
type Activator interface {
	Reenable() error
	Disable() error
}

// Config holds the adapter configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger logging.Logger

	// Activator, when set, brackets every operation with Reenable and Disable
	Activator Activator

	// SettleDelay is slept before each completion wait
	SettleDelay time.Duration

	// Sleep implements SettleDelay; defaults to time.Sleep
	Sleep func(time.Duration)
}

func defaultConfig() Config {
	return Config{
		Sleep: time.Sleep,
	}
}

// Option is a functional option for configuring the Adapter.
type Option func(*Config)

// WithLogger sets a logger for block device operations.
func WithLogger(logger logging.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithActivation reenables the board before and disables it after every
// operation, the way the loader firmware does.
//
// Example:
//
//	gate := kunai.NewGate(bus)
//	dev, err := blockdev.New(spinor.New(gate), blockdev.DefaultGeometry(),
//	    blockdev.WithActivation(gate),
//	)
func WithActivation(a Activator) Option {
	return func(c *Config) {
		c.Activator = a
	}
}

// WithSettleDelay sleeps d after each program or erase before polling for
// completion. The loader firmware uses 150ms.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.SettleDelay = d
		}
	}
}

// WithSleep replaces the function used for the settle delay.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Config) {
		if sleep != nil {
			c.Sleep = sleep
		}
	}
}
