package dol

import "fmt"

// HeaderError indicates a malformed DOL header.
type HeaderError struct {
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("invalid DOL header: %s", e.Reason)
}

// SectionError indicates a section that cannot be loaded.
type SectionError struct {
	Section Section
	Reason  string
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("invalid %s section %d at 0x%08X (%d bytes): %s",
		e.Section.Kind, e.Section.Index, e.Section.Address, e.Section.Size, e.Reason)
}
