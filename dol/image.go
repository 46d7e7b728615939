package dol

// SectionKind distinguishes code from data sections.
type SectionKind int

const (
	Text SectionKind = iota
	Data
)

func (k SectionKind) String() string {
	if k == Text {
		return "text"
	}
	return "data"
}

// Section is one loadable segment of a DOL image.
type Section struct {
	// Kind is Text or Data
	Kind SectionKind

	// Index is the slot in the header (0-6 for text, 0-10 for data)
	Index int

	// Offset is the file offset of the section contents
	Offset uint32

	// Address is the load address in main memory
	Address uint32

	// Size is the section length in bytes
	Size uint32
}

// End returns the first address past the section.
func (s Section) End() uint32 {
	return s.Address + s.Size
}

// Image is a parsed DOL header. Only populated sections are listed.
type Image struct {
	// Sections in header order, text first
	Sections []Section

	// BSSAddress is the start of the zero-initialised region
	BSSAddress uint32

	// BSSSize is the length of the zero-initialised region
	BSSSize uint32

	// Entry is the address control is transferred to
	Entry uint32
}

// LoadEnd returns the highest address the image occupies once loaded.
func (img *Image) LoadEnd() uint32 {
	end := img.BSSAddress + img.BSSSize
	for _, s := range img.Sections {
		if s.End() > end {
			end = s.End()
		}
	}
	return end
}

// FileSize returns the smallest file length that holds every section.
func (img *Image) FileSize() uint32 {
	size := uint32(HeaderSize)
	for _, s := range img.Sections {
		if s.Offset+s.Size > size {
			size = s.Offset + s.Size
		}
	}
	return size
}
