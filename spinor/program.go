package spinor

import "fmt"

// EraseRange erases every sector overlapping [addr, addr+n) and waits for
// each erase to finish. Whole sectors are erased, including bytes outside
// the range that share a sector with it.
func (f *Flash) EraseRange(addr uint32, n int) error {
	if n <= 0 {
		return nil
	}
	end := uint64(addr) + uint64(n)
	if end-1 > MaxAddress {
		return &AddressError{Address: uint32(end - 1)}
	}
	for a := uint64(addr) &^ (SectorSize - 1); a < end; a += SectorSize {
		if err := f.EraseSector(uint32(a)); err != nil {
			return fmt.Errorf("erase sector 0x%06X: %w", a, err)
		}
		if err := f.WaitUntilReady(); err != nil {
			return fmt.Errorf("erase sector 0x%06X: %w", a, err)
		}
	}
	return nil
}

// Program writes data at addr into erased flash. The data is split on page
// boundaries so no page program wraps, and every program is waited for.
func (f *Flash) Program(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if uint64(addr)+uint64(len(data))-1 > MaxAddress {
		return &AddressError{Address: addr + uint32(len(data)) - 1}
	}
	for len(data) > 0 {
		n := PageSize - int(addr%PageSize)
		if n > len(data) {
			n = len(data)
		}
		if err := f.PageProgram(addr, data[:n]); err != nil {
			return fmt.Errorf("program 0x%06X: %w", addr, err)
		}
		if err := f.WaitUntilReady(); err != nil {
			return fmt.Errorf("program 0x%06X: %w", addr, err)
		}
		addr += uint32(n)
		data = data[n:]
	}
	return nil
}

// Write erases the sectors under [addr, addr+len(data)) and programs data.
func (f *Flash) Write(addr uint32, data []byte) error {
	if err := f.EraseRange(addr, len(data)); err != nil {
		return err
	}
	return f.Program(addr, data)
}
