// Package crc computes the CRC-16 that guards payloads stored in raw flash.
//
// Parameters (CRC-16/AUG-CCITT):
//   - Polynomial: 0x1021, MSB first
//   - Initial value: 0x1D0F
//   - No reflection, no final XOR
//
// The check value of "123456789" is 0xE5CC.
package crc

// Algorithm constants.
const (
	// Polynomial is the CRC-16-CCITT polynomial
	Polynomial = 0x1021

	// InitialValue is the register value before the first byte
	InitialValue = 0x1D0F

	// highBit is the top bit of the 16-bit register
	highBit = 0x8000

	bitsPerByte = 8
)

var table = makeTable()

// makeTable derives the 256-entry lookup table from the bitwise update.
func makeTable() *[256]uint16 {
	var t [256]uint16
	for i := range t {
		crc := uint16(i) << bitsPerByte
		for j := 0; j < bitsPerByte; j++ {
			if crc&highBit != 0 {
				crc = (crc << 1) ^ Polynomial
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}

// Update feeds data into a running checksum and returns the new register.
// Start from InitialValue.
func Update(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = crc<<bitsPerByte ^ table[byte(crc>>bitsPerByte)^b]
	}
	return crc
}

// Checksum returns the CRC-16 of data.
func Checksum(data []byte) uint16 {
	return Update(InitialValue, data)
}

// Verify reports whether the first length bytes of buf check to expected.
// A length beyond the buffer never verifies.
func Verify(buf []byte, length int, expected uint16) bool {
	if length < 0 || length > len(buf) {
		return false
	}
	return Checksum(buf[:length]) == expected
}
