/*
Package blockdev exposes the KunaiGC flash as a littlefs block device.

The filesystem starts at ReservedOffset (256 KiB); everything below belongs
to the loader image. Block b, offset o lives at flash address

	b*BlockSize + o + ReservedOffset

The default geometry matches the loader firmware: 4 byte reads, 256 byte
programs (one page), 4096 byte blocks (one sector), 2048 byte caches, a 16
byte lookahead and 500 erase cycles. BlockCount depends on the part and is
recomputed from its JEDEC ID by Detect:

	blocks = ((1 << (jedec & 0xFF)) - ReservedOffset) / BlockSize

A W25Q80 (0xEF4014) gives 192 blocks.

# Status Contract

The Go methods (ReadBlock, ProgramBlock, EraseBlock, Sync) satisfy
lfs.BlockDevice. Read, Prog, Erase and SyncStatus wrap them with the integer
contract of the C library: StatusOK or StatusIO (-5). Zero-length reads and
programs are I/O errors and never reach the bus.
*/
package blockdev
