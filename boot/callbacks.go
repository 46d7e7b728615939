package boot

import "time"

// Progress describes the resolver's position in the plan.
// Passed to ProgressCallback on every state change.
type Progress struct {
	// State is the resolver state after the change
	State State

	// Source is the source being tried, or the one that loaded
	Source string

	// Index is the 0-based position of Source in the plan
	Index int

	// Total is the number of sources in the plan
	Total int

	// Err is the failure of the previous attempt, if any
	Err error

	// ElapsedTime is the time since resolution started
	ElapsedTime time.Duration
}

// ProgressCallback is called on every resolver state change.
// Implementations should return quickly.
//
// Example:
//
//	r := boot.New(plan, arena,
//	    boot.WithProgressCallback(func(p boot.Progress) {
//	        fmt.Printf("[%s] %s (%d/%d)\n", p.State, p.Source, p.Index+1, p.Total)
//	    }),
//	)
type ProgressCallback func(Progress)
