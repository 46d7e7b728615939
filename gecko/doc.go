// Package gecko implements the USB Gecko cable transfer used to push a
// payload from a PC to the console.
//
// Receive is the console side and is what the boot resolver's cable sources
// call. Send is the PC side, used by the geckosend tool over a serial port.
//
// The length prefix travels little-endian: the console reads it as a native
// big-endian word and byte swaps it.
package gecko
