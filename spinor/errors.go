package spinor

import "fmt"

// NotRespondingError indicates the chip stayed busy for longer than the poll limit.
type NotRespondingError struct {
	Polls  int
	Status byte
}

func (e *NotRespondingError) Error() string {
	return fmt.Sprintf("flash not responding: still busy after %d status polls (status 0x%02X)", e.Polls, e.Status)
}

// AddressError indicates an address outside 3-byte addressing.
type AddressError struct {
	Address uint32
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("address 0x%08X exceeds 24-bit range", e.Address)
}

// PageSizeError indicates a page program with an empty or oversized payload.
type PageSizeError struct {
	Size int
}

func (e *PageSizeError) Error() string {
	return fmt.Sprintf("page program of %d bytes: must be 1-%d", e.Size, PageSize)
}
