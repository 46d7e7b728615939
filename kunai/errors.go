package kunai

import (
	"errors"
	"fmt"
)

// ErrNested is returned when the bus is requested while a passthrough
// window is still open.
var ErrNested = errors.New("kunai: passthrough window already open")

// ErrEmptyPayload is returned by ReadDirect when the board reports a zero or
// negative size. Erased flash reads back as 0xFFFFFFFF and lands here.
var ErrEmptyPayload = errors.New("kunai: device reports empty payload")

// PassthroughError indicates that every attempt to signal passthrough failed.
type PassthroughError struct {
	Attempts int
	Err      error
}

func (e *PassthroughError) Error() string {
	return fmt.Sprintf("kunai: passthrough not acknowledged after %d attempts: %v", e.Attempts, e.Err)
}

func (e *PassthroughError) Unwrap() error {
	return e.Err
}

// DirectLengthError indicates a direct read size past the configured bound.
type DirectLengthError struct {
	Length uint32
	Max    uint32
}

func (e *DirectLengthError) Error() string {
	return fmt.Sprintf("kunai: direct read length %d exceeds %d", e.Length, e.Max)
}

// DirectAddressError indicates an address that does not fit a direct read word.
type DirectAddressError struct {
	Address uint32
}

func (e *DirectAddressError) Error() string {
	return fmt.Sprintf("kunai: direct read address 0x%08X exceeds 0x%08X", e.Address, MaxDirectAddress)
}
