package exi

import "encoding/binary"

// Session is a locked and selected device on the bus. It is the scoped
// acquisition guard for every transfer: Open takes the lock and asserts the
// chip-select, Close releases both.
//
// A Session is not safe for concurrent use.
type Session struct {
	bus    Bus
	ch     Channel
	dev    Device
	speed  Speed
	closed bool
}

// Open locks ch for dev and selects it at speed. If Select fails the lock is
// released before the error is returned, so a failed Open leaves nothing held.
//
// Example:
//
//	s, err := exi.Open(bus, exi.Channel0, exi.Device1, exi.Speed32MHz)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	err = s.WriteUint32(0x80000000)
func Open(bus Bus, ch Channel, dev Device, speed Speed) (*Session, error) {
	if err := bus.Lock(ch, dev); err != nil {
		return nil, err
	}
	if err := bus.Select(ch, dev, speed); err != nil {
		_ = bus.Unlock(ch)
		return nil, err
	}
	return &Session{bus: bus, ch: ch, dev: dev, speed: speed}, nil
}

// Channel returns the channel the session holds.
func (s *Session) Channel() Channel { return s.ch }

// Device returns the selected device.
func (s *Session) Device() Device { return s.dev }

// Speed returns the speed class the device was selected at.
func (s *Session) Speed() Speed { return s.speed }

// Transact performs one framed immediate transfer: Imm followed by Sync.
// There is no retry; a failure is returned to the caller as *TransferError.
func (s *Session) Transact(dir Direction, buf []byte) error {
	if s.closed {
		return ErrClosed
	}
	if len(buf) == 0 || len(buf) > MaxImmSize {
		return &TransferSizeError{Size: len(buf)}
	}
	if err := s.bus.Imm(s.ch, buf, dir); err != nil {
		return &TransferError{Channel: s.ch, Direction: dir, Size: len(buf), Err: err}
	}
	if err := s.bus.Sync(s.ch); err != nil {
		return &TransferError{Channel: s.ch, Direction: dir, Size: len(buf), Err: err}
	}
	return nil
}

// Write sends p as a sequence of word-sized immediate transfers.
func (s *Session) Write(p []byte) error {
	return s.stream(Write, p)
}

// Read fills p from a sequence of word-sized immediate transfers.
func (s *Session) Read(p []byte) error {
	return s.stream(Read, p)
}

func (s *Session) stream(dir Direction, p []byte) error {
	for len(p) > 0 {
		n := len(p)
		if n > MaxImmSize {
			n = MaxImmSize
		}
		if err := s.Transact(dir, p[:n]); err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// WriteUint8 sends a single byte.
func (s *Session) WriteUint8(v uint8) error {
	return s.Transact(Write, []byte{v})
}

// WriteUint32 sends v as one big-endian word, most significant byte first on the wire.
func (s *Session) WriteUint32(v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return s.Transact(Write, buf[:])
}

// ReadUint8 receives a single byte.
func (s *Session) ReadUint8() (uint8, error) {
	var buf [1]byte
	err := s.Transact(Read, buf[:])
	return buf[0], err
}

// ReadUint16 receives one big-endian half word.
func (s *Session) ReadUint16() (uint16, error) {
	var buf [2]byte
	err := s.Transact(Read, buf[:])
	return binary.BigEndian.Uint16(buf[:]), err
}

// ReadUint32 receives one big-endian word.
func (s *Session) ReadUint32() (uint32, error) {
	var buf [4]byte
	err := s.Transact(Read, buf[:])
	return binary.BigEndian.Uint32(buf[:]), err
}

// Close deselects the device and unlocks the channel. Both steps always run,
// even if the first fails. Close is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	errDeselect := s.bus.Deselect(s.ch)
	errUnlock := s.bus.Unlock(s.ch)
	if errDeselect != nil {
		return errDeselect
	}
	return errUnlock
}
