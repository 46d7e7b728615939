package dol

import "encoding/binary"

// DefaultLoadAddress is where Minimal places its text section.
const DefaultLoadAddress = 0x80003100

// Minimal builds a DOL with a single text section holding code, loaded at
// DefaultLoadAddress with the entry point at its first instruction. It is
// meant for test payloads.
func Minimal(code []byte) []byte {
	out := make([]byte, HeaderSize+len(code))
	binary.BigEndian.PutUint32(out[offsetTable:], HeaderSize)
	binary.BigEndian.PutUint32(out[addressTable:], DefaultLoadAddress)
	binary.BigEndian.PutUint32(out[sizeTable:], uint32(len(code)))
	binary.BigEndian.PutUint32(out[entryPoint:], DefaultLoadAddress)
	copy(out[HeaderSize:], code)
	return out
}
