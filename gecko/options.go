package gecko

import (
	"time"

	"github.com/kunaigc/go-kunai/logging"
)

// ProgressCallback is called after every chunk with the bytes moved so far.
type ProgressCallback func(done, total int)

// Config holds the transfer configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger logging.Logger

	// ProgressCallback reports payload progress (optional)
	ProgressCallback ProgressCallback

	// AckDelay is waited before the console acknowledges HostReady
	AckDelay time.Duration

	// MaxPayload bounds the payload length
	MaxPayload uint32
}

func defaultConfig() Config {
	return Config{
		AckDelay:   DefaultAckDelay,
		MaxPayload: DefaultMaxPayload,
	}
}

// Option is a functional option for configuring a transfer.
type Option func(*Config)

// WithLogger sets a logger for the transfer.
func WithLogger(logger logging.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithProgressCallback sets a callback to track payload progress.
//
// Example:
//
//	err := gecko.Send(ctx, port, data,
//	    gecko.WithProgressCallback(func(done, total int) {
//	        fmt.Printf("\r%d/%d", done, total)
//	    }),
//	)
func WithProgressCallback(cb ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = cb
	}
}

// WithAckDelay sets the delay before the console acknowledges HostReady.
func WithAckDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.AckDelay = d
		}
	}
}

// WithMaxPayload bounds the payload length.
func WithMaxPayload(n uint32) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxPayload = n
		}
	}
}

func (c Config) reportProgress(done, total int) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(done, total)
	}
}

func (c Config) logDebug(msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Debug(msg, keysAndValues...)
	}
}

func (c Config) logInfo(msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Info(msg, keysAndValues...)
	}
}
