package spinor

import "github.com/kunaigc/go-kunai/logging"

// Config holds the driver configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger logging.Logger

	// PollLimit bounds the number of status reads in WaitUntilReady.
	// Zero disables the bound and polls until the chip reports ready.
	PollLimit int
}

func defaultConfig() Config {
	return Config{
		PollLimit: DefaultPollLimit,
	}
}

// Option is a functional option for configuring the Flash driver.
type Option func(*Config)

// WithLogger sets a logger for driver operations.
func WithLogger(logger logging.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithPollLimit bounds WaitUntilReady to n status reads. n == 0 polls forever,
// which is how the original device firmware behaves.
//
// Example:
//
//	f := spinor.New(gate, spinor.WithPollLimit(0))
func WithPollLimit(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.PollLimit = n
		}
	}
}
