// Package kunaisim simulates the KunaiGC board and its flash chip on the
// expansion bus.
//
// The simulator decodes the same signaling the hardware does: a passthrough
// word forwards the rest of the selection to a W25Q flash model, a control
// word writes the activation register, anything else starts a direct read.
// It is used by the package tests and by kunaictl's image mode.
//
//	chip := kunaisim.NewFlash(0x14)
//	bus := kunaisim.NewBus(chip)
//	gate := kunai.NewGate(bus)
package kunaisim
