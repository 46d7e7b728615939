package boot

import (
	"github.com/kunaigc/go-kunai/dol"
	"github.com/kunaigc/go-kunai/logging"
)

// Validator inspects a loaded payload. A non-nil error rejects it.
type Validator func(data []byte) error

// ValidateDOL rejects payloads that are not well formed DOL executables.
func ValidateDOL(data []byte) error {
	_, err := dol.ParseBytes(data)
	return err
}

// Config holds the resolver configuration.
type Config struct {
	// ProgressCallback is called on state changes (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger logging.Logger

	// Validators run in order against every loaded payload
	Validators []Validator

	// Unwrap expands xz compressed payloads before validation
	Unwrap bool

	// UnwrapLimit caps the expanded size; zero means no cap
	UnwrapLimit int

	// Splice promotes SpliceSource when it returns true. Evaluated once
	// per resolution, before the first probe.
	Splice       func() bool
	SpliceSource Source
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		UnwrapLimit: 24 << 20,
	}
}

// Option is a functional option for configuring the Resolver.
type Option func(*Config)

// WithProgressCallback sets a callback to track resolution.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the resolver.
//
// Example:
//
//	r := boot.New(plan, arena, boot.WithLogger(myLogger))
func WithLogger(logger logging.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithValidator appends a payload validator.
//
// Example:
//
//	r := boot.New(plan, arena, boot.WithValidator(boot.ValidateDOL))
func WithValidator(v Validator) Option {
	return func(c *Config) {
		if v != nil {
			c.Validators = append(c.Validators, v)
		}
	}
}

// WithUnwrap enables xz expansion of compressed payloads, capped at limit
// bytes when limit is positive.
func WithUnwrap(limit int) Option {
	return func(c *Config) {
		c.Unwrap = true
		if limit > 0 {
			c.UnwrapLimit = limit
		}
	}
}

// WithSplice puts src first in the plan when held reports true.
//
// Example:
//
//	r := boot.New(plan, arena,
//	    boot.WithSplice(func() bool { return pad.Held(boot.ButtonStart) }, swiss),
//	)
func WithSplice(held func() bool, src Source) Option {
	return func(c *Config) {
		c.Splice = held
		c.SpliceSource = src
	}
}
