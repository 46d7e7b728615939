package kunai

import "github.com/kunaigc/go-kunai/logging"

// Config holds the gate configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger logging.Logger

	// Attempts is the number of tries to signal passthrough
	Attempts int

	// MaxDirectSize bounds the length ReadDirect accepts from the board
	MaxDirectSize uint32
}

func defaultConfig() Config {
	return Config{
		Attempts:      DefaultAttempts,
		MaxDirectSize: DefaultMaxDirectSize,
	}
}

// Option is a functional option for configuring the Gate.
type Option func(*Config)

// WithLogger sets a logger for gate operations.
func WithLogger(logger logging.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithAttempts sets how often Enter tries to signal passthrough.
//
// Example:
//
//	gate := kunai.NewGate(bus, kunai.WithAttempts(5))
func WithAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Attempts = n
		}
	}
}

// WithMaxDirectSize bounds the payload length ReadDirect accepts.
func WithMaxDirectSize(n uint32) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxDirectSize = n
		}
	}
}
