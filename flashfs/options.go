package flashfs

import "github.com/kunaigc/go-kunai/logging"

// Config holds the volume configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger logging.Logger
}

func defaultConfig() Config {
	return Config{}
}

// Option is a functional option for configuring a Volume.
type Option func(*Config)

// WithLogger sets a logger for volume operations.
func WithLogger(logger logging.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
