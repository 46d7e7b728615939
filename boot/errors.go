package boot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotPresent indicates a source with nothing to offer: no cable, no card,
// no file. The resolver moves on to the next source.
var ErrNotPresent = errors.New("boot: source not present")

// Attempt records one failed probe.
type Attempt struct {
	Source string
	Err    error
}

// AllFailedError is returned when every source in the plan failed.
type AllFailedError struct {
	Attempts []Attempt
}

func (e *AllFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return "boot: no sources to try"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Source, a.Err)
	}
	return fmt.Sprintf("boot: all %d sources failed: %s", len(e.Attempts), strings.Join(parts, "; "))
}

// IntegrityError indicates a payload that was read but must not be run.
type IntegrityError struct {
	Source string
	Reason string
	Err    error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("boot: %s payload rejected: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("boot: %s payload rejected: %s", e.Source, e.Reason)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// ChecksumError indicates a stored CRC that does not match the payload.
type ChecksumError struct {
	Expected uint16
	Actual   uint16
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%04X, got 0x%04X", e.Expected, e.Actual)
}
