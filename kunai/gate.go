package kunai

import (
	"fmt"

	"github.com/kunaigc/go-kunai/exi"
	"github.com/kunaigc/go-kunai/payload"
	"github.com/kunaigc/go-kunai/spinor"
)

// State of the gate.
type State int

const (
	// Owned means the console owns the bus; the flash is not reachable
	Owned State = iota

	// Passthrough means a window is open and bus traffic reaches the flash
	Passthrough
)

func (s State) String() string {
	switch s {
	case Owned:
		return "owned"
	case Passthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Gate arbitrates the board's bus device between the console and the flash
// chip behind it. At most one passthrough window exists at a time.
//
// Gate is not safe for concurrent use.
type Gate struct {
	bus    exi.Bus
	config Config
	state  State
}

// NewGate creates a gate for the board on bus.
//
// Example:
//
//	gate := kunai.NewGate(bus, kunai.WithLogger(log))
//	flash := spinor.New(gate)
func NewGate(bus exi.Bus, opts ...Option) *Gate {
	if bus == nil {
		panic("bus cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Gate{
		bus:    bus,
		config: cfg,
	}
}

// State returns the current gate state.
func (g *Gate) State() State {
	return g.state
}

// Enter switches the board into passthrough and returns the open window.
// The signaling word is sent up to the configured number of attempts; each
// failed attempt releases the bus before the next. When all attempts fail
// the gate stays Owned and *PassthroughError is returned.
func (g *Gate) Enter() (*Window, error) {
	if g.state == Passthrough {
		return nil, ErrNested
	}

	var lastErr error
	for attempt := 1; attempt <= g.config.Attempts; attempt++ {
		s, err := exi.Open(g.bus, Channel, Device, PassthroughSpeed)
		if err != nil {
			lastErr = err
			g.logDebug("passthrough attempt failed", "attempt", attempt, "error", err)
			continue
		}
		if err := s.WriteUint32(PassthroughWord); err != nil {
			_ = s.Close()
			lastErr = err
			g.logDebug("passthrough attempt failed", "attempt", attempt, "error", err)
			continue
		}
		g.state = Passthrough
		return &Window{gate: g, session: s}, nil
	}

	g.logError("passthrough failed", "attempts", g.config.Attempts, "error", lastErr)
	return nil, &PassthroughError{Attempts: g.config.Attempts, Err: lastErr}
}

// Begin implements spinor.Opener.
func (g *Gate) Begin() (spinor.Tx, error) {
	w, err := g.Enter()
	if err != nil {
		return nil, err
	}
	return w, nil
}

// writeRegister performs a two-word control selection.
func (g *Gate) writeRegister(value uint32) error {
	if g.state == Passthrough {
		return ErrNested
	}
	s, err := exi.Open(g.bus, Channel, Device, ControlSpeed)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.WriteUint32(ControlWord); err != nil {
		return err
	}
	return s.WriteUint32(value)
}

// Disable hides the board from the console. Flash access through the gate
// still works while disabled.
func (g *Gate) Disable() error {
	g.logDebug("disable board")
	return g.writeRegister(DisableValue)
}

// Reenable makes the board visible again.
func (g *Gate) Reenable() error {
	g.logDebug("reenable board")
	return g.writeRegister(ReenableValue)
}

// ReadDirect fetches a payload through the board's direct read path: the
// address word is sent, the board answers with a big-endian 32-bit length
// and then the payload bytes. The buffer comes from alloc; it is returned
// only when completely filled.
func (g *Gate) ReadDirect(addr uint32, alloc payload.Allocator) (buf *payload.Buffer, err error) {
	if g.state == Passthrough {
		return nil, ErrNested
	}
	if addr > MaxDirectAddress {
		return nil, &DirectAddressError{Address: addr}
	}

	s, err := exi.Open(g.bus, Channel, Device, DirectSpeed)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			buf.Release()
			buf, err = nil, cerr
		}
	}()

	if err := s.WriteUint32(addr << DirectShift); err != nil {
		return nil, err
	}
	size, err := s.ReadUint32()
	if err != nil {
		return nil, err
	}
	// The size is a signed word on the board.
	if int32(size) <= 0 {
		return nil, ErrEmptyPayload
	}
	if size > g.config.MaxDirectSize {
		return nil, &DirectLengthError{Length: size, Max: g.config.MaxDirectSize}
	}
	g.logDebug("direct read", "address", fmt.Sprintf("0x%06X", addr), "size", size)

	b, err := alloc.Alloc(int(size))
	if err != nil {
		return nil, err
	}
	if err := s.Read(b.Bytes()); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

func (g *Gate) logDebug(msg string, keysAndValues ...interface{}) {
	if g.config.Logger != nil {
		g.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (g *Gate) logError(msg string, keysAndValues ...interface{}) {
	if g.config.Logger != nil {
		g.config.Logger.Error(msg, keysAndValues...)
	}
}

// Window is an open passthrough window. Everything written and read goes to
// the flash chip as one chip-select frame. Close ends the frame and returns
// the gate to Owned.
type Window struct {
	gate    *Gate
	session *exi.Session
	closed  bool
}

// Write sends p to the flash.
func (w *Window) Write(p []byte) error {
	return w.session.Write(p)
}

// Read fills p from the flash.
func (w *Window) Read(p []byte) error {
	return w.session.Read(p)
}

// Close deselects and unlocks unconditionally. It is idempotent.
func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.gate.state = Owned
	return w.session.Close()
}
