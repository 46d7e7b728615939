// Package logging defines the optional structured logger accepted by the
// driver and resolver packages, with an adapter for logr.
package logging

import (
	"errors"

	"github.com/go-logr/logr"
)

// Logger is an optional logging interface. This allows integration with any
// logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...interface{}) {}
func (Nop) Info(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}

// FromLogr adapts a logr.Logger. Debug maps to verbosity 1. Error looks for
// an "error" key in keysAndValues and passes it to logr as the error value.
//
// Example with zap:
//
//	zl, _ := zap.NewDevelopment()
//	log := logging.FromLogr(zapr.NewLogger(zl))
func FromLogr(l logr.Logger) Logger {
	return logrAdapter{l: l}
}

type logrAdapter struct {
	l logr.Logger
}

func (a logrAdapter) Debug(msg string, keysAndValues ...interface{}) {
	a.l.V(1).Info(msg, keysAndValues...)
}

func (a logrAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.l.Info(msg, keysAndValues...)
}

func (a logrAdapter) Error(msg string, keysAndValues ...interface{}) {
	err, rest := splitError(keysAndValues)
	a.l.Error(err, msg, rest...)
}

// splitError removes the first "error" pair whose value is an error.
func splitError(kv []interface{}) (error, []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok && k == "error" {
			if err, ok := kv[i+1].(error); ok {
				rest := make([]interface{}, 0, len(kv)-2)
				rest = append(rest, kv[:i]...)
				rest = append(rest, kv[i+2:]...)
				return err, rest
			}
		}
	}
	return errors.New("unspecified error"), kv
}
