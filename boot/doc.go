// Package boot finds the payload to run at power on.
//
// A Resolver walks a Plan of sources in priority order and stops at the
// first one that yields a payload passing validation:
//
//	Idle -> Trying(0) -> Trying(1) -> ... -> Loaded
//	                                     \-> AllFailed
//
// The default plan is cable B, media B, cable A, media A, then the
// secondary media slot. A held button can splice another source, such as
// a file on the board's flash filesystem, to the front of the plan.
//
// # Sources
//
//   - CableSource: USB Gecko transfer in a memory card slot
//   - MediaSource: a file on removable media, through io/fs
//   - FlashFSSource: a file on the littlefs volume on the board's flash
//   - InternalFlashSource: a CRC-guarded payload in raw flash
//   - DirectSource: the board's direct read path
//
// # Ownership
//
// A source allocates its buffer from the resolver's allocator and fills
// it completely before returning it. Failed probes, failed validation and
// failed CRC checks release the buffer; the resolver never hands off a
// payload that did not pass. On success the caller owns the buffer.
//
// # Example
//
//	plan := boot.DefaultPlan(boot.Sources{
//	    CableB: &boot.CableSource{Slot: "B", Link: linkB},
//	    MediaB: &boot.MediaSource{Slot: "sdb", Mount: mountB, Path: path},
//	})
//	r := boot.New(plan, payload.NewArena(16<<20), boot.WithValidator(boot.ValidateDOL))
//	res, err := boot.Run(ctx, r, executor)
package boot
