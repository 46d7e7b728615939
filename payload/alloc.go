package payload

import "sync"

// Allocator hands out payload buffers. Alloc returns ErrAllocation when the
// memory is not available; a probe that sees it aborts to the next source.
type Allocator interface {
	Alloc(size int) (*Buffer, error)
}

// AllocatorFunc adapts a function to the Allocator interface.
type AllocatorFunc func(size int) (*Buffer, error)

// Alloc calls f(size).
func (f AllocatorFunc) Alloc(size int) (*Buffer, error) {
	return f(size)
}

// Arena is an Allocator with a fixed budget, standing in for the console's
// main memory arena. A zero limit means no budget.
type Arena struct {
	mu    sync.Mutex
	limit int
	used  int
}

// NewArena creates an arena that never has more than limit bytes outstanding.
func NewArena(limit int) *Arena {
	return &Arena{limit: limit}
}

// Alloc implements Allocator. Sizes of zero or below are rejected with
// *SizeError; a request over the remaining budget gets ErrAllocation.
func (a *Arena) Alloc(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, &SizeError{Size: int64(size)}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.limit > 0 && a.used+size > a.limit {
		return nil, ErrAllocation
	}
	a.used += size

	return &Buffer{
		data:    make([]byte, size),
		release: a.free,
	}, nil
}

// InUse returns the number of bytes held by unreleased buffers.
func (a *Arena) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Limit returns the arena budget.
func (a *Arena) Limit() int {
	return a.limit
}

func (a *Arena) free(n int) {
	a.mu.Lock()
	a.used -= n
	a.mu.Unlock()
}
