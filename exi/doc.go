// Package exi implements the transaction primitive of the console expansion
// bus: fixed-size immediate transfers framed by lock/select and
// deselect/unlock.
//
// # Overview
//
// All higher layers (the SPI-NOR command layer, the passthrough gate, the
// direct payload reader) are composed from Session transfers:
//
//	s, err := exi.Open(bus, exi.Channel0, exi.Device1, exi.Speed16MHz)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if err := s.WriteUint32(addr); err != nil {
//	    return err
//	}
//	size, err := s.ReadUint32()
//
// # Hardware Independence
//
// The package does not drive hardware itself. Users provide a Bus
// implementation; PeriphBus is included for SPI ports reachable through
// periph.io, and package kunaisim provides a simulated bus for tests.
package exi
