package boot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io/fs"
	"net"
	"testing"
	"testing/fstest"
	"time"

	"github.com/kunaigc/go-kunai/blockdev"
	"github.com/kunaigc/go-kunai/dol"
	"github.com/kunaigc/go-kunai/flashfs"
	"github.com/kunaigc/go-kunai/gecko"
	"github.com/kunaigc/go-kunai/kunai"
	"github.com/kunaigc/go-kunai/kunaisim"
	"github.com/kunaigc/go-kunai/payload"
	"github.com/kunaigc/go-kunai/spinor"
)

type board struct {
	chip  *kunaisim.Flash
	bus   *kunaisim.Bus
	gate  *kunai.Gate
	flash *spinor.Flash
	dev   *blockdev.Adapter
}

func newBoard(t *testing.T) *board {
	t.Helper()
	b := &board{chip: kunaisim.NewFlash(0x14)}
	b.bus = kunaisim.NewBus(b.chip)
	b.gate = kunai.NewGate(b.bus)
	b.flash = spinor.New(b.gate)
	dev, err := blockdev.New(b.flash, blockdev.DefaultGeometry(), blockdev.WithActivation(b.gate))
	if err != nil {
		t.Fatal(err)
	}
	b.dev = dev
	return b
}

func (b *board) provision(layout RawLayout, data []byte) {
	b.chip.Load(layout.HeaderAddr, layout.Header(data))
	b.chip.Load(layout.PayloadAddr, data)
}

func TestInternalFlashSource(t *testing.T) {
	b := newBoard(t)
	data := dol.Minimal(make([]byte, 300))
	b.provision(DefaultRawLayout(), data)

	src := &InternalFlashSource{Flash: b.flash, Layout: DefaultRawLayout(), Activator: b.gate}
	buf, err := src.Probe(context.Background(), payload.NewArena(0))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Error("payload mismatch")
	}
	if b.gate.State() != kunai.Owned {
		t.Error("gate left in passthrough")
	}
	if b.bus.Enabled() {
		t.Error("board left enabled after probe")
	}
}

func TestInternalFlashSourceChecksumMismatch(t *testing.T) {
	b := newBoard(t)
	layout := DefaultRawLayout()
	data := []byte("payload with a bad checksum")
	b.provision(layout, data)
	b.chip.Load(layout.PayloadAddr+3, []byte{0x00})

	arena := payload.NewArena(1 << 10)
	src := &InternalFlashSource{Flash: b.flash, Layout: layout}

	_, err := src.Probe(context.Background(), arena)
	var ie *IntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("Probe() error = %v, want IntegrityError", err)
	}
	var ce *ChecksumError
	if !errors.As(err, &ce) {
		t.Errorf("Probe() error = %v, want ChecksumError inside", err)
	}
	if arena.InUse() != 0 {
		t.Errorf("arena in use = %d after mismatch", arena.InUse())
	}

	// the only source failing verification leaves nothing to run
	r := New(Plan{src}, arena)
	if _, err := r.Resolve(context.Background()); err == nil {
		t.Fatal("Resolve() handed off a payload that failed verification")
	} else {
		var afe *AllFailedError
		if !errors.As(err, &afe) {
			t.Errorf("Resolve() error = %v, want AllFailedError", err)
		}
	}
	if r.State() != AllFailed {
		t.Errorf("State() = %v, want all-failed", r.State())
	}
}

func TestInternalFlashSourceHeader(t *testing.T) {
	tests := []struct {
		name    string
		size    uint32
		wantErr func(error) bool
	}{
		{"erased", 0xFFFFFFFF, func(err error) bool { return errors.Is(err, ErrNotPresent) }},
		{"zero", 0, func(err error) bool { return errors.Is(err, ErrNotPresent) }},
		{"overlaps header", DefaultHeaderAddr - DefaultPayloadAddr + 1, func(err error) bool {
			var ie *IntegrityError
			return errors.As(err, &ie)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBoard(t)
			hdr := make([]byte, RawHeaderSize)
			binary.BigEndian.PutUint32(hdr, tt.size)
			b.chip.Load(DefaultHeaderAddr, hdr)

			arena := payload.NewArena(0)
			src := &InternalFlashSource{Flash: b.flash, Layout: DefaultRawLayout()}
			_, err := src.Probe(context.Background(), arena)
			if !tt.wantErr(err) {
				t.Errorf("Probe() error = %v", err)
			}
			if arena.InUse() != 0 {
				t.Errorf("arena in use = %d", arena.InUse())
			}
		})
	}
}

func TestRawLayoutHeader(t *testing.T) {
	l := DefaultRawLayout()
	hdr := l.Header([]byte("123456789"))
	want := []byte{0x00, 0x00, 0x00, 0x09, 0xE5, 0xCC}
	if !bytes.Equal(hdr, want) {
		t.Errorf("Header() = %X, want %X", hdr, want)
	}
	if got := l.MaxPayload(); got != 0x3E000 {
		t.Errorf("MaxPayload() = 0x%X, want 0x3E000", got)
	}
}

func TestMediaSource(t *testing.T) {
	card := fstest.MapFS{
		"KUNAIGC/ipl.dol": &fstest.MapFile{Data: []byte("ipl")},
		"a.dol":           &fstest.MapFile{Data: []byte("alt")},
	}
	mounted := func() (fs.FS, error) { return card, nil }
	noCard := func() (fs.FS, error) { return nil, errors.New("no card inserted") }

	tests := []struct {
		name     string
		mount    func() (fs.FS, error)
		path     string
		want     string
		notThere bool
	}{
		{"default path", mounted, DefaultPath, "ipl", false},
		{"shortcut path", mounted, "/a.dol", "alt", false},
		{"missing file", mounted, "/b.dol", "", true},
		{"no card", noCard, DefaultPath, "", true},
		{"no slot", nil, DefaultPath, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arena := payload.NewArena(0)
			src := &MediaSource{Slot: "sdb", Mount: tt.mount, Path: tt.path}
			buf, err := src.Probe(context.Background(), arena)
			if tt.notThere {
				if !errors.Is(err, ErrNotPresent) {
					t.Errorf("Probe() error = %v, want ErrNotPresent", err)
				}
				if arena.InUse() != 0 {
					t.Errorf("arena in use = %d", arena.InUse())
				}
				return
			}
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if string(buf.Bytes()) != tt.want {
				t.Errorf("payload = %q, want %q", buf.Bytes(), tt.want)
			}
		})
	}
}

func TestFlashFSSource(t *testing.T) {
	b := newBoard(t)
	arena := payload.NewArena(0)
	src := &FlashFSSource{Device: b.dev, Path: "swiss.dol"}

	// blank flash is never formatted by a probe
	if _, err := src.Probe(context.Background(), arena); !errors.Is(err, ErrNotPresent) {
		t.Fatalf("Probe() on blank flash error = %v, want ErrNotPresent", err)
	}
	if b.chip.Erases() != 0 {
		t.Error("probe erased the flash")
	}

	v, err := flashfs.MountOrFormat(b.dev)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.WriteFile("swiss.dol", []byte("swiss")); err != nil {
		t.Fatal(err)
	}
	if err := v.Close(); err != nil {
		t.Fatal(err)
	}

	buf, err := src.Probe(context.Background(), arena)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if string(buf.Bytes()) != "swiss" {
		t.Errorf("payload = %q, want swiss", buf.Bytes())
	}

	missing := &FlashFSSource{Device: b.dev, Path: "KunaiLoader.dol"}
	if _, err := missing.Probe(context.Background(), arena); !errors.Is(err, ErrNotPresent) {
		t.Errorf("Probe() missing file error = %v, want ErrNotPresent", err)
	}
	if arena.InUse() != len("swiss") {
		t.Errorf("arena in use = %d, want %d", arena.InUse(), len("swiss"))
	}
}

func TestCableSource(t *testing.T) {
	host, console := net.Pipe()
	defer console.Close()

	errc := make(chan error, 1)
	go func() {
		defer host.Close()
		errc <- gecko.Send(context.Background(), host, []byte("from the pc"))
	}()

	src := &CableSource{
		Slot:    "B",
		Link:    gecko.NewStreamLink(console),
		Options: []gecko.Option{gecko.WithAckDelay(0)},
	}
	if src.Name() != "usbB" {
		t.Errorf("Name() = %q, want usbB", src.Name())
	}

	buf, err := src.Probe(context.Background(), payload.NewArena(0))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if string(buf.Bytes()) != "from the pc" {
		t.Errorf("payload = %q", buf.Bytes())
	}
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Send() did not finish")
	}
}

func TestCableSourceNotPresent(t *testing.T) {
	src := &CableSource{Slot: "A", Link: gecko.NewStreamLink(nil)}
	_, err := src.Probe(context.Background(), payload.NewArena(0))
	if !errors.Is(err, ErrNotPresent) {
		t.Errorf("Probe() error = %v, want ErrNotPresent", err)
	}
}

func TestDirectSource(t *testing.T) {
	b := newBoard(t)
	const addr = 0x20000
	data := []byte("direct payload")
	hdr := make([]byte, 4)
	binary.BigEndian.PutUint32(hdr, uint32(len(data)))
	b.chip.Load(addr, append(hdr, data...))

	src := &DirectSource{Gate: b.gate, Address: addr}
	buf, err := src.Probe(context.Background(), payload.NewArena(0))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("payload = %q, want %q", buf.Bytes(), data)
	}

	empty := &DirectSource{Gate: b.gate, Address: 0x30000}
	b.chip.Load(0x30000, []byte{0, 0, 0, 0})
	if _, err := empty.Probe(context.Background(), payload.NewArena(0)); !errors.Is(err, ErrNotPresent) {
		t.Errorf("Probe() empty error = %v, want ErrNotPresent", err)
	}

	erased := &DirectSource{Gate: b.gate, Address: 0x38000}
	if _, err := erased.Probe(context.Background(), payload.NewArena(0)); !errors.Is(err, ErrNotPresent) {
		t.Errorf("Probe() erased error = %v, want ErrNotPresent", err)
	}
}
