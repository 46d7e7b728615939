package boot

import (
	"context"
	"fmt"
	"time"

	"github.com/kunaigc/go-kunai/payload"
)

// State of a resolution.
type State int

const (
	// Idle means no resolution has started
	Idle State = iota

	// Trying means a source is being probed
	Trying

	// Loaded means a payload was found and validated
	Loaded

	// AllFailed means every source failed
	AllFailed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Trying:
		return "trying"
	case Loaded:
		return "loaded"
	case AllFailed:
		return "all-failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is a successful resolution.
type Result struct {
	// Source is the name of the source that produced Payload
	Source string

	// Payload is owned by the caller, who hands it off or releases it
	Payload *payload.Buffer

	// Attempts lists the sources that failed before Source
	Attempts []Attempt
}

// Resolver walks a boot plan until one source yields a payload that passes
// validation. It never backtracks: once a source succeeds the remaining
// sources are not probed.
//
// Resolver is not safe for concurrent use.
type Resolver struct {
	plan   Plan
	alloc  payload.Allocator
	config Config
	state  State
}

// New creates a resolver over plan, allocating payloads from alloc.
//
// Example:
//
//	arena := payload.NewArena(16 << 20)
//	r := boot.New(boot.DefaultPlan(sources), arena,
//	    boot.WithValidator(boot.ValidateDOL),
//	    boot.WithUnwrap(0),
//	)
//	res, err := r.Resolve(ctx)
func New(plan Plan, alloc payload.Allocator, opts ...Option) *Resolver {
	if alloc == nil {
		panic("allocator cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Resolver{
		plan:   plan,
		alloc:  alloc,
		config: cfg,
	}
}

// State returns the state of the last resolution.
func (r *Resolver) State() State {
	return r.state
}

// Plan returns the configured plan, before any splice.
func (r *Resolver) Plan() Plan {
	return r.plan
}

// Resolve tries each source in turn. On success the payload belongs to the
// caller. When every source fails the error is *AllFailedError and the
// state is AllFailed. Cancellation is checked before each probe.
func (r *Resolver) Resolve(ctx context.Context) (*Result, error) {
	start := time.Now()
	r.state = Idle

	plan := r.plan
	if r.config.Splice != nil && r.config.SpliceSource != nil && r.config.Splice() {
		r.logInfo("splicing source", "source", r.config.SpliceSource.Name())
		plan = plan.Splice(r.config.SpliceSource)
	}

	var attempts []Attempt
	var lastErr error
	for i, src := range plan {
		if err := ctx.Err(); err != nil {
			r.state = Idle
			return nil, fmt.Errorf("cancelled: %w", err)
		}

		r.state = Trying
		r.reportProgress(Progress{
			State:       Trying,
			Source:      src.Name(),
			Index:       i,
			Total:       len(plan),
			Err:         lastErr,
			ElapsedTime: time.Since(start),
		})
		r.logDebug("probing", "source", src.Name(), "index", i)

		buf, err := r.load(ctx, src)
		if err != nil {
			r.logDebug("source failed", "source", src.Name(), "error", err)
			attempts = append(attempts, Attempt{Source: src.Name(), Err: err})
			lastErr = err
			continue
		}

		r.state = Loaded
		r.reportProgress(Progress{
			State:       Loaded,
			Source:      src.Name(),
			Index:       i,
			Total:       len(plan),
			ElapsedTime: time.Since(start),
		})
		r.logInfo("payload loaded", "source", src.Name(), "size", buf.Len())
		return &Result{Source: src.Name(), Payload: buf, Attempts: attempts}, nil
	}

	r.state = AllFailed
	r.reportProgress(Progress{
		State:       AllFailed,
		Index:       len(plan),
		Total:       len(plan),
		Err:         lastErr,
		ElapsedTime: time.Since(start),
	})
	r.logError("no bootable payload", "sources", len(plan))
	return nil, &AllFailedError{Attempts: attempts}
}

// load probes one source and applies unwrapping and validation. On any
// failure the buffer is released before returning.
func (r *Resolver) load(ctx context.Context, src Source) (*payload.Buffer, error) {
	buf, err := probe(ctx, src, r.alloc)
	if err != nil {
		return nil, err
	}

	if r.config.Unwrap {
		buf, err = payload.Unwrap(buf, r.alloc, r.config.UnwrapLimit)
		if err != nil {
			return nil, &IntegrityError{Source: src.Name(), Reason: "unwrap", Err: err}
		}
	}

	for _, validate := range r.config.Validators {
		if err := validate(buf.Bytes()); err != nil {
			buf.Release()
			return nil, &IntegrityError{Source: src.Name(), Reason: "validation", Err: err}
		}
	}
	return buf, nil
}

// Executor takes over a loaded payload. It owns the buffer from the moment
// Execute is called. On real hardware Execute does not return.
type Executor interface {
	Execute(ctx context.Context, buf *payload.Buffer) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, buf *payload.Buffer) error

// Execute calls f(ctx, buf).
func (f ExecutorFunc) Execute(ctx context.Context, buf *payload.Buffer) error {
	return f(ctx, buf)
}

// Run resolves a payload and hands it to exec. When resolution fails the
// error is returned and exec is not called; the caller decides whether to
// halt or retry.
func Run(ctx context.Context, r *Resolver, exec Executor) (*Result, error) {
	res, err := r.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := exec.Execute(ctx, res.Payload); err != nil {
		return res, fmt.Errorf("execute %s payload: %w", res.Source, err)
	}
	return res, nil
}

func (r *Resolver) reportProgress(p Progress) {
	if r.config.ProgressCallback != nil {
		r.config.ProgressCallback(p)
	}
}

func (r *Resolver) logDebug(msg string, keysAndValues ...interface{}) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (r *Resolver) logInfo(msg string, keysAndValues ...interface{}) {
	if r.config.Logger != nil {
		r.config.Logger.Info(msg, keysAndValues...)
	}
}

func (r *Resolver) logError(msg string, keysAndValues ...interface{}) {
	if r.config.Logger != nil {
		r.config.Logger.Error(msg, keysAndValues...)
	}
}
