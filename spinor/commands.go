package spinor

// CommandWord packs a command byte and a 24-bit address into the single
// 32-bit word sent on the wire, command first.
//
// Frame structure:
//
//	[CMD][ADDR_H][ADDR_M][ADDR_L]
func CommandWord(cmd byte, addr uint32) (uint32, error) {
	if addr > MaxAddress {
		return 0, &AddressError{Address: addr}
	}
	return uint32(cmd)<<24 | addr, nil
}

// JEDECID is the decoded 24-bit JEDEC identification triple.
type JEDECID struct {
	// Manufacturer is the JEDEC manufacturer code (0xEF for Winbond)
	Manufacturer byte

	// MemoryType is the vendor memory type
	MemoryType byte

	// Capacity is the size exponent: the chip holds 1<<Capacity bytes
	Capacity byte
}

// ParseJEDECID splits a 24-bit JEDEC value as returned by Flash.ReadJEDECID.
func ParseJEDECID(id uint32) JEDECID {
	return JEDECID{
		Manufacturer: byte(id >> 16),
		MemoryType:   byte(id >> 8),
		Capacity:     byte(id),
	}
}

// Uint32 packs the triple back into its 24-bit form.
func (j JEDECID) Uint32() uint32 {
	return uint32(j.Manufacturer)<<16 | uint32(j.MemoryType)<<8 | uint32(j.Capacity)
}

// Size returns the chip capacity in bytes. Exponents of 32 or more return 0.
func (j JEDECID) Size() uint64 {
	if j.Capacity >= 32 {
		return 0
	}
	return 1 << j.Capacity
}
