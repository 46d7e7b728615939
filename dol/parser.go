package dol

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Constants for DOL header parsing.
const (
	// HeaderSize is the length of the fixed header
	HeaderSize = 0x100

	// TextSections is the number of text slots in the header
	TextSections = 7

	// DataSections is the number of data slots in the header
	DataSections = 11

	offsetTable  = 0x00
	addressTable = 0x48
	sizeTable    = 0x90
	bssAddress   = 0xD8
	bssSize      = 0xDC
	entryPoint   = 0xE0

	// MemoryStart is the first cached main memory address
	MemoryStart = 0x80000000

	// MemoryEnd is the end of the 24 MiB of main memory
	MemoryEnd = 0x81800000
)

// Parse parses a DOL file from the given file path.
//
// Example:
//
//	img, err := dol.Parse("swiss.dol")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Entry: 0x%08X\n", img.Entry)
func Parse(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader reads a whole DOL from r and parses it.
func ParseReader(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses and validates a DOL image held in memory. Every
// populated section must lie inside data and load inside main memory, and
// the entry point must fall inside a text section.
//
// Header format (all fields big-endian u32):
//
//	0x00 [TextOffset x7][DataOffset x11]
//	0x48 [TextAddress x7][DataAddress x11]
//	0x90 [TextSize x7][DataSize x11]
//	0xD8 [BSSAddress][BSSSize][Entry]
func ParseBytes(data []byte) (*Image, error) {
	if len(data) < HeaderSize {
		return nil, &HeaderError{Reason: fmt.Sprintf("image is %d bytes, header needs %d", len(data), HeaderSize)}
	}

	word := func(off int) uint32 {
		return binary.BigEndian.Uint32(data[off:])
	}

	img := &Image{
		BSSAddress: word(bssAddress),
		BSSSize:    word(bssSize),
		Entry:      word(entryPoint),
	}

	for slot := 0; slot < TextSections+DataSections; slot++ {
		s := Section{
			Kind:    Text,
			Index:   slot,
			Offset:  word(offsetTable + 4*slot),
			Address: word(addressTable + 4*slot),
			Size:    word(sizeTable + 4*slot),
		}
		if slot >= TextSections {
			s.Kind = Data
			s.Index = slot - TextSections
		}
		if s.Size == 0 {
			continue
		}
		if err := checkSection(s, len(data)); err != nil {
			return nil, err
		}
		img.Sections = append(img.Sections, s)
	}

	if err := checkImage(img); err != nil {
		return nil, err
	}
	return img, nil
}

func checkSection(s Section, fileSize int) error {
	if s.Offset < HeaderSize {
		return &SectionError{Section: s, Reason: "contents overlap the header"}
	}
	if uint64(s.Offset)+uint64(s.Size) > uint64(fileSize) {
		return &SectionError{Section: s, Reason: fmt.Sprintf("contents extend past the %d byte image", fileSize)}
	}
	if s.Address < MemoryStart || uint64(s.Address)+uint64(s.Size) > MemoryEnd {
		return &SectionError{Section: s, Reason: "loads outside main memory"}
	}
	return nil
}

func checkImage(img *Image) error {
	hasText := false
	entryFound := false
	for _, s := range img.Sections {
		if s.Kind != Text {
			continue
		}
		hasText = true
		if img.Entry >= s.Address && img.Entry < s.End() {
			entryFound = true
		}
	}
	if !hasText {
		return &HeaderError{Reason: "no text sections"}
	}
	if !entryFound {
		return &HeaderError{Reason: fmt.Sprintf("entry point 0x%08X is not inside a text section", img.Entry)}
	}
	if img.BSSSize > 0 && (img.BSSAddress < MemoryStart || uint64(img.BSSAddress)+uint64(img.BSSSize) > MemoryEnd) {
		return &HeaderError{Reason: "bss outside main memory"}
	}
	return nil
}
