package exi

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when a transfer is attempted on a closed Session.
var ErrClosed = errors.New("exi: session closed")

// TransferSizeError indicates an immediate transfer outside the hardware word sizes.
type TransferSizeError struct {
	Size int
}

func (e *TransferSizeError) Error() string {
	return fmt.Sprintf("exi: invalid immediate transfer size %d (want 1, 2 or %d)", e.Size, MaxImmSize)
}

// TransferError wraps a failure reported by the bus while a transfer was in flight.
type TransferError struct {
	Channel   Channel
	Direction Direction
	Size      int
	Err       error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("exi: channel %d %s of %d bytes failed: %v", e.Channel, e.Direction, e.Size, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
