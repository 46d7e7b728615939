package spinor

import "encoding/binary"

// Cursor pulls data sequentially from an open read command. The chip keeps
// the read going for as long as chip-select stays asserted, so the window
// stays open until Close.
type Cursor struct {
	tx   Tx
	addr uint32
}

// Addr returns the address of the next byte the cursor will return.
func (c *Cursor) Addr() uint32 { return c.addr }

// Read fills p.
func (c *Cursor) Read(p []byte) error {
	if err := c.tx.Read(p); err != nil {
		return err
	}
	c.addr += uint32(len(p))
	return nil
}

// ReadUint8 pulls one byte.
func (c *Cursor) ReadUint8() (uint8, error) {
	var buf [1]byte
	err := c.Read(buf[:])
	return buf[0], err
}

// ReadUint16 pulls a big-endian half word.
func (c *Cursor) ReadUint16() (uint16, error) {
	var buf [2]byte
	err := c.Read(buf[:])
	return binary.BigEndian.Uint16(buf[:]), err
}

// ReadUint32 pulls a big-endian word.
func (c *Cursor) ReadUint32() (uint32, error) {
	var buf [4]byte
	err := c.Read(buf[:])
	return binary.BigEndian.Uint32(buf[:]), err
}

// ReadUint16LE pulls a little-endian half word.
func (c *Cursor) ReadUint16LE() (uint16, error) {
	var buf [2]byte
	err := c.Read(buf[:])
	return binary.LittleEndian.Uint16(buf[:]), err
}

// ReadUint32LE pulls a little-endian word.
func (c *Cursor) ReadUint32LE() (uint32, error) {
	var buf [4]byte
	err := c.Read(buf[:])
	return binary.LittleEndian.Uint32(buf[:]), err
}

// Close ends the read command and releases the window.
func (c *Cursor) Close() error {
	return c.tx.Close()
}
