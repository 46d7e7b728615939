package boot

import (
	"fmt"

	"github.com/kunaigc/go-kunai/blockdev"
	"github.com/kunaigc/go-kunai/flashfs"
	"github.com/kunaigc/go-kunai/kunai"
)

// MenuItem is an entry of the board menu.
type MenuItem int

const (
	// MenuDeactivate turns the board off until the next reset
	MenuDeactivate MenuItem = iota

	// MenuReactivate turns the board back on
	MenuReactivate

	// MenuEnablePassthrough opens a passthrough window to the flash
	MenuEnablePassthrough

	// MenuDisablePassthrough closes the passthrough window
	MenuDisablePassthrough
)

// menuItems is the number of menu entries.
const menuItems = 4

func (m MenuItem) String() string {
	switch m {
	case MenuDeactivate:
		return "Deactivate"
	case MenuReactivate:
		return "Reactivate"
	case MenuEnablePassthrough:
		return "Enable Passthrough"
	case MenuDisablePassthrough:
		return "Disable Passthrough"
	default:
		return fmt.Sprintf("item(%d)", int(m))
	}
}

// Menu is the board menu entered by holding Z at power on. Opening it
// counts a boot; the filesystem is formatted on first use.
type Menu struct {
	gate      *kunai.Gate
	window    *kunai.Window
	cursor    MenuItem
	bootCount uint32
	jedecID   uint32
}

// OpenMenu identifies the flash, increments the boot counter on dev's
// filesystem and returns the menu. The volume is formatted if it cannot be
// mounted and is unmounted again before OpenMenu returns.
func OpenMenu(gate *kunai.Gate, dev *blockdev.Adapter, opts ...flashfs.Option) (*Menu, error) {
	id, err := dev.Detect()
	if err != nil {
		return nil, err
	}
	count, err := IncrementBootCount(dev, opts...)
	if err != nil {
		return nil, err
	}
	return &Menu{gate: gate, bootCount: count, jedecID: id}, nil
}

// IncrementBootCount mounts dev, formatting once if needed, increments the
// boot counter and unmounts. It returns the new count.
func IncrementBootCount(dev *blockdev.Adapter, opts ...flashfs.Option) (count uint32, err error) {
	v, err := flashfs.MountOrFormat(dev, opts...)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := v.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return v.IncrementBootCount()
}

// BootCount returns the counter value recorded when the menu opened.
func (m *Menu) BootCount() uint32 {
	return m.bootCount
}

// JEDECID returns the flash identification read when the menu opened.
func (m *Menu) JEDECID() uint32 {
	return m.jedecID
}

// Cursor returns the highlighted item.
func (m *Menu) Cursor() MenuItem {
	return m.cursor
}

// Items returns the menu entries in display order.
func (m *Menu) Items() []MenuItem {
	items := make([]MenuItem, menuItems)
	for i := range items {
		items[i] = MenuItem(i)
	}
	return items
}

// Handle applies one button press. DOWN and UP move the cursor, A
// activates the highlighted item and B leaves the menu. It reports
// whether the menu should close.
func (m *Menu) Handle(pressed Buttons) (bool, error) {
	switch {
	case pressed&ButtonB != 0:
		return true, nil
	case pressed&ButtonA != 0:
		return false, m.Select(m.cursor)
	case pressed&ButtonDown != 0:
		if m.cursor < menuItems-1 {
			m.cursor++
		}
	case pressed&ButtonUp != 0:
		if m.cursor > 0 {
			m.cursor--
		}
	}
	return false, nil
}

// Select performs item.
func (m *Menu) Select(item MenuItem) error {
	switch item {
	case MenuDeactivate:
		return m.gate.Disable()
	case MenuReactivate:
		return m.gate.Reenable()
	case MenuEnablePassthrough:
		if m.window != nil {
			return nil
		}
		w, err := m.gate.Enter()
		if err != nil {
			return err
		}
		m.window = w
		return nil
	case MenuDisablePassthrough:
		return m.closeWindow()
	default:
		return fmt.Errorf("unknown menu item %d", int(item))
	}
}

// Passthrough reports whether the menu holds a passthrough window open.
func (m *Menu) Passthrough() bool {
	return m.window != nil
}

// Close releases a passthrough window left open by the menu.
func (m *Menu) Close() error {
	return m.closeWindow()
}

func (m *Menu) closeWindow() error {
	if m.window == nil {
		return nil
	}
	err := m.window.Close()
	m.window = nil
	return err
}
