// Package payload holds boot payloads in memory.
//
// A Buffer is sized exactly to its payload and has a single owner: the
// source that allocated and filled it, then the resolver, then the hand-off.
// Allocators signal a lack of memory with ErrAllocation instead of failing
// hard, so a probe can give up and let the next source try.
//
// Payloads may be stored xz compressed; Unwrap expands them.
package payload
