// Package dol parses GameCube DOL executables, the payload format the loader
// boots.
//
// # DOL File Format
//
// A DOL starts with a 256 byte header of big-endian words describing up to
// 7 text and 11 data sections, a zero-initialised BSS region and the entry
// point:
//
//	0x00  text file offsets  [7]
//	0x1C  data file offsets  [11]
//	0x48  text load addresses [7]
//	0x64  data load addresses [11]
//	0x90  text sizes [7]
//	0xAC  data sizes [11]
//	0xD8  BSS address
//	0xDC  BSS size
//	0xE0  entry point
//
// Sections with a size of zero are unused.
//
// # Usage
//
// The boot resolver uses ParseBytes as a payload validator, so that a
// truncated or garbage image from one source does not stop the next source
// from being tried:
//
//	img, err := dol.ParseBytes(buf.Bytes())
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("entry 0x%08X, %d sections\n", img.Entry, len(img.Sections))
package dol
