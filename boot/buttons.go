package boot

import (
	"context"
	"strings"
	"time"
)

// Buttons is a controller button mask, OR'd across all controller ports.
type Buttons uint16

// Controller button bits.
const (
	ButtonLeft  Buttons = 0x0001
	ButtonRight Buttons = 0x0002
	ButtonDown  Buttons = 0x0004
	ButtonUp    Buttons = 0x0008
	TriggerZ    Buttons = 0x0010
	TriggerR    Buttons = 0x0020
	TriggerL    Buttons = 0x0040
	ButtonA     Buttons = 0x0100
	ButtonB     Buttons = 0x0200
	ButtonX     Buttons = 0x0400
	ButtonY     Buttons = 0x0800
	ButtonStart Buttons = 0x1000
)

var buttonNames = []struct {
	b    Buttons
	name string
}{
	{ButtonLeft, "LEFT"},
	{ButtonRight, "RIGHT"},
	{ButtonDown, "DOWN"},
	{ButtonUp, "UP"},
	{TriggerZ, "Z"},
	{TriggerR, "R"},
	{TriggerL, "L"},
	{ButtonA, "A"},
	{ButtonB, "B"},
	{ButtonX, "X"},
	{ButtonY, "Y"},
	{ButtonStart, "START"},
}

// Held reports whether every button in mask is held.
func (b Buttons) Held(mask Buttons) bool {
	return mask != 0 && b&mask == mask
}

func (b Buttons) String() string {
	var names []string
	for _, n := range buttonNames {
		if b&n.b != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// Pad reads the controller state.
type Pad interface {
	Held() Buttons
}

// PadFunc adapts a function to the Pad interface.
type PadFunc func() Buttons

// Held calls f().
func (f PadFunc) Held() Buttons {
	return f()
}

// DefaultPath is the media file loaded when no shortcut is held.
const DefaultPath = "/KUNAIGC/ipl.dol"

// Shortcut maps a held button to an alternate media path.
type Shortcut struct {
	Buttons Buttons
	Path    string
}

// DefaultShortcuts are checked in order; the first held one wins.
var DefaultShortcuts = []Shortcut{
	{ButtonA, "/a.dol"},
	{ButtonB, "/b.dol"},
	{ButtonX, "/x.dol"},
	{ButtonY, "/y.dol"},
	{ButtonLeft, "/left.dol"},
	{ButtonRight, "/right.dol"},
	{ButtonUp, "/up.dol"},
}

// ShortcutPath returns the media path selected by held, or DefaultPath.
func ShortcutPath(held Buttons, shortcuts []Shortcut) string {
	for _, s := range shortcuts {
		if held&s.Buttons != 0 {
			return s.Path
		}
	}
	return DefaultPath
}

// Sources are the external payload sources of a board, in no particular
// order. Nil entries are left out of the plans built from them.
type Sources struct {
	CableA   Source
	CableB   Source
	MediaA   Source
	MediaB   Source
	MediaSD2 Source
}

// DefaultPlan orders external sources: cable B, media B, cable A, media A,
// then the secondary media slot.
func DefaultPlan(s Sources) Plan {
	return compact(s.CableB, s.MediaB, s.CableA, s.MediaA, s.MediaSD2)
}

// RecoveryPlan is the plan of the recovery image. External sources are
// tried only while Z is held; the installed loader comes last either way.
func RecoveryPlan(s Sources, held Buttons, loader Source) Plan {
	var plan Plan
	if held.Held(TriggerZ) {
		plan = DefaultPlan(s)
	}
	return append(plan, compact(loader)...)
}

func compact(sources ...Source) Plan {
	plan := make(Plan, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			plan = append(plan, s)
		}
	}
	return plan
}

// DefaultPollInterval is used by WaitRelease for a non-positive interval.
const DefaultPollInterval = 10 * time.Millisecond

// WaitRelease blocks while any button in mask is held, polling every
// interval. Hand-off is held back this way so the user can read the log.
func WaitRelease(ctx context.Context, pad Pad, mask Buttons, interval time.Duration) error {
	if pad.Held()&mask == 0 {
		return nil
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if pad.Held()&mask == 0 {
				return nil
			}
		}
	}
}
