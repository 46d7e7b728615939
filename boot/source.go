package boot

import (
	"context"

	"github.com/kunaigc/go-kunai/payload"
)

// Source is one place a payload can come from.
//
// Probe either returns a fully populated buffer from alloc and a nil error,
// or a nil buffer and an error. A failed probe must not leave a buffer
// allocated.
type Source interface {
	Name() string
	Probe(ctx context.Context, alloc payload.Allocator) (*payload.Buffer, error)
}

// ProbeFunc is the probe signature.
type ProbeFunc func(ctx context.Context, alloc payload.Allocator) (*payload.Buffer, error)

type funcSource struct {
	name  string
	probe ProbeFunc
}

// NewSource builds a Source from a name and a probe function.
func NewSource(name string, probe ProbeFunc) Source {
	return funcSource{name: name, probe: probe}
}

func (s funcSource) Name() string { return s.name }

func (s funcSource) Probe(ctx context.Context, alloc payload.Allocator) (*payload.Buffer, error) {
	return s.probe(ctx, alloc)
}

// Plan is an ordered list of sources, tried first to last.
type Plan []Source

// Names returns the source names in order.
func (p Plan) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name()
	}
	return names
}

// Splice returns a new plan with src first. A source of the same name
// already in the plan is moved rather than duplicated.
func (p Plan) Splice(src Source) Plan {
	out := make(Plan, 0, len(p)+1)
	out = append(out, src)
	for _, s := range p {
		if s.Name() != src.Name() {
			out = append(out, s)
		}
	}
	return out
}

// First probes sources in order and returns the first payload. It stops
// at the first success; later sources are never probed. The context is
// checked before each probe.
func First(ctx context.Context, alloc payload.Allocator, sources ...Source) (Source, *payload.Buffer, error) {
	var attempts []Attempt
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		buf, err := probe(ctx, src, alloc)
		if err == nil {
			return src, buf, nil
		}
		attempts = append(attempts, Attempt{Source: src.Name(), Err: err})
	}
	return nil, nil, &AllFailedError{Attempts: attempts}
}

// probe runs one source and enforces the probe contract.
func probe(ctx context.Context, src Source, alloc payload.Allocator) (*payload.Buffer, error) {
	buf, err := src.Probe(ctx, alloc)
	if err != nil {
		buf.Release()
		return nil, err
	}
	if buf == nil || buf.Len() == 0 {
		buf.Release()
		return nil, &IntegrityError{Source: src.Name(), Reason: "empty payload"}
	}
	buf.SetOrigin(src.Name())
	return buf, nil
}
