package blockdev_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kunaigc/go-kunai/blockdev"
	"github.com/kunaigc/go-kunai/exi"
	"github.com/kunaigc/go-kunai/kunai"
	"github.com/kunaigc/go-kunai/kunaisim"
	"github.com/kunaigc/go-kunai/spinor"
)

type fixture struct {
	bus   *kunaisim.Bus
	gate  *kunai.Gate
	dev   *blockdev.Adapter
	chip  *kunaisim.Flash
	slept []time.Duration
}

func newFixture(t *testing.T, opts ...blockdev.Option) *fixture {
	t.Helper()
	fx := &fixture{chip: kunaisim.NewFlash(0x14)}
	fx.chip.SetBusyPolls(3)
	fx.bus = kunaisim.NewBus(fx.chip)
	fx.gate = kunai.NewGate(fx.bus)

	opts = append([]blockdev.Option{
		blockdev.WithSleep(func(d time.Duration) { fx.slept = append(fx.slept, d) }),
	}, opts...)
	dev, err := blockdev.New(spinor.New(fx.gate), blockdev.DefaultGeometry(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := dev.Detect(); err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	fx.dev = dev
	return fx
}

func TestDetect(t *testing.T) {
	fx := newFixture(t)
	if got := fx.dev.Geometry().BlockCount; got != 192 {
		t.Errorf("BlockCount = %d, want 192", got)
	}
}

func TestBlockCountFor(t *testing.T) {
	g := blockdev.DefaultGeometry()
	for exp := uint32(19); exp <= 24; exp++ {
		got, err := blockdev.BlockCountFor(0xEF4000|exp, g)
		if err != nil {
			t.Errorf("exp %d: error = %v", exp, err)
			continue
		}
		want := uint32(((1 << exp) - blockdev.ReservedOffset) / 4096)
		if got != want {
			t.Errorf("exp %d: BlockCountFor() = %d, want %d", exp, got, want)
		}
		if uint64(got)*uint64(g.BlockSize)+blockdev.ReservedOffset != 1<<exp {
			t.Errorf("exp %d: blocks do not cover the part", exp)
		}
	}
}

func TestBlockCountForImplausible(t *testing.T) {
	tests := []struct {
		name string
		id   uint32
	}{
		{"no chip", 0xFFFFFF},
		{"all zero", 0x000000},
		{"reserved region only", 0xEF4012},
		{"beyond 3-byte addressing", 0xEF4019},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := blockdev.BlockCountFor(tt.id, blockdev.DefaultGeometry())
			var ce *blockdev.CapacityError
			if !errors.As(err, &ce) {
				t.Errorf("error = %v, want CapacityError", err)
			}
		})
	}
}

func TestDetectImplausible(t *testing.T) {
	chip := kunaisim.NewFlash(0x14)
	chip.SetJEDECID(0xFFFFFF)
	dev, err := blockdev.New(spinor.New(kunai.NewGate(kunaisim.NewBus(chip))), blockdev.DefaultGeometry())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dev.Detect(); err == nil {
		t.Fatal("Detect() accepted an absent chip")
	}
	if dev.Geometry().BlockCount != blockdev.DefaultBlockCount {
		t.Error("geometry changed on a failed detect")
	}
}

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*blockdev.Geometry)
	}{
		{"zero read size", func(g *blockdev.Geometry) { g.ReadSize = 0 }},
		{"prog does not divide block", func(g *blockdev.Geometry) { g.ProgSize = 3000 }},
		{"cache does not divide block", func(g *blockdev.Geometry) { g.CacheSize = 256 * 3 }},
		{"unaligned reserved offset", func(g *blockdev.Geometry) { g.ReservedOffset = 0x100 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := blockdev.DefaultGeometry()
			tt.modify(&g)
			var ge *blockdev.GeometryError
			if err := g.Validate(); !errors.As(err, &ge) {
				t.Errorf("Validate() error = %v, want GeometryError", err)
			}
		})
	}

	if err := blockdev.DefaultGeometry().Validate(); err != nil {
		t.Errorf("default geometry invalid: %v", err)
	}
}

func TestEraseProgramRoundTrip(t *testing.T) {
	fx := newFixture(t)
	block := uint32(5)
	g := fx.dev.Geometry()

	page := make([]byte, g.ProgSize)
	for i := range page {
		page[i] = byte(i)
	}
	if st := fx.dev.Prog(block, 256, page, uint32(len(page))); st != blockdev.StatusOK {
		t.Fatalf("Prog() = %d", st)
	}

	got := make([]byte, len(page))
	if st := fx.dev.Read(block, 256, got, uint32(len(got))); st != blockdev.StatusOK {
		t.Fatalf("Read() = %d", st)
	}
	if !bytes.Equal(got, page) {
		t.Error("read back differs from programmed page")
	}

	if st := fx.dev.Erase(block); st != blockdev.StatusOK {
		t.Fatalf("Erase() = %d", st)
	}
	whole := make([]byte, g.BlockSize)
	if st := fx.dev.Read(block, 0, whole, uint32(len(whole))); st != blockdev.StatusOK {
		t.Fatalf("Read() = %d", st)
	}
	for i, b := range whole {
		if b != 0xFF {
			t.Fatalf("byte %d = 0x%02X after erase, want 0xFF", i, b)
		}
	}

	mem := fx.chip.Bytes()
	base := blockdev.ReservedOffset + block*g.BlockSize
	if mem[base-1] != 0xFF || mem[base+g.BlockSize] != 0xFF {
		t.Error("neighbouring blocks touched")
	}
}

func TestProgramLandsAboveReservedRegion(t *testing.T) {
	fx := newFixture(t)
	data := bytes.Repeat([]byte{0xA5}, 256)
	if err := fx.dev.ProgramBlock(0, 0, data); err != nil {
		t.Fatal(err)
	}
	mem := fx.chip.Bytes()
	if !bytes.Equal(mem[blockdev.ReservedOffset:blockdev.ReservedOffset+256], data) {
		t.Error("block 0 is not at the reserved offset")
	}
	for _, b := range mem[:blockdev.ReservedOffset] {
		if b != 0xFF {
			t.Fatal("reserved region modified")
		}
	}
}

func TestMultiPageProgram(t *testing.T) {
	fx := newFixture(t, blockdev.WithSettleDelay(150*time.Millisecond))
	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i * 3)
	}
	before := fx.chip.Programs()
	if err := fx.dev.ProgramBlock(2, 0, data); err != nil {
		t.Fatal(err)
	}
	if n := fx.chip.Programs() - before; n != 4 {
		t.Errorf("%d page programs, want 4", n)
	}
	if len(fx.slept) != 4 {
		t.Errorf("settled %d times, want once per page", len(fx.slept))
	}
	got := make([]byte, len(data))
	if err := fx.dev.ReadBlock(2, 0, got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("multi-page read back differs")
	}
	if fx.chip.Busy() {
		t.Error("chip still busy after ProgramBlock returned")
	}
}

func TestZeroSizeDoesNotTouchBus(t *testing.T) {
	fx := newFixture(t)
	transfers := fx.bus.Transfers()
	selections := len(fx.bus.Selections())
	buf := make([]byte, 16)

	if st := fx.dev.Read(0, 0, buf, 0); st != blockdev.StatusIO {
		t.Errorf("Read(size 0) = %d, want %d", st, blockdev.StatusIO)
	}
	if st := fx.dev.Prog(0, 0, buf, 0); st != blockdev.StatusIO {
		t.Errorf("Prog(size 0) = %d, want %d", st, blockdev.StatusIO)
	}
	if err := fx.dev.ReadBlock(0, 0, nil); !errors.Is(err, blockdev.ErrEmptyTransfer) {
		t.Errorf("ReadBlock(nil) error = %v", err)
	}
	if fx.bus.Transfers() != transfers || len(fx.bus.Selections()) != selections {
		t.Error("zero-length transfer touched the bus")
	}
}

func TestOutOfRange(t *testing.T) {
	fx := newFixture(t)
	g := fx.dev.Geometry()
	buf := make([]byte, 4)

	var re *blockdev.RangeError
	if err := fx.dev.ReadBlock(g.BlockCount, 0, buf); !errors.As(err, &re) {
		t.Errorf("ReadBlock past the end error = %v", err)
	}
	if err := fx.dev.ReadBlock(0, g.BlockSize-2, buf); !errors.As(err, &re) {
		t.Errorf("ReadBlock across a block error = %v", err)
	}
	if err := fx.dev.EraseBlock(g.BlockCount); !errors.As(err, &re) {
		t.Errorf("EraseBlock past the end error = %v", err)
	}
}

func TestAlignment(t *testing.T) {
	fx := newFixture(t)
	var ae *blockdev.AlignmentError
	if err := fx.dev.ReadBlock(0, 0, make([]byte, 6)); !errors.As(err, &ae) {
		t.Errorf("ReadBlock error = %v", err)
	}
	if err := fx.dev.ProgramBlock(0, 0, make([]byte, 100)); !errors.As(err, &ae) {
		t.Errorf("ProgramBlock error = %v", err)
	}
}

func TestActivationBrackets(t *testing.T) {
	fx := newFixture(t)
	dev, err := blockdev.New(spinor.New(fx.gate), fx.dev.Geometry(), blockdev.WithActivation(fx.gate))
	if err != nil {
		t.Fatal(err)
	}
	start := len(fx.bus.Selections())

	if err := dev.ReadBlock(0, 0, make([]byte, 8)); err != nil {
		t.Fatal(err)
	}

	sel := fx.bus.Selections()[start:]
	if len(sel) != 3 {
		t.Fatalf("%d selections, want reenable, read, disable", len(sel))
	}
	if sel[0].Mode != kunaisim.ModeControl || sel[1].Mode != kunaisim.ModePassthrough || sel[2].Mode != kunaisim.ModeControl {
		t.Errorf("selections = %+v", sel)
	}
	if sel[1].Speed != exi.Speed32MHz {
		t.Errorf("passthrough speed = %v", sel[1].Speed)
	}
	if fx.bus.Enabled() {
		t.Error("board left enabled")
	}
}

func TestPassthroughFailureIsIOError(t *testing.T) {
	fx := newFixture(t)
	fx.bus.FailNextSyncs(kunai.DefaultAttempts)

	if st := fx.dev.Read(0, 0, make([]byte, 4), 4); st != blockdev.StatusIO {
		t.Errorf("Read() = %d, want StatusIO", st)
	}
	if fx.bus.Held() {
		t.Error("bus held after failure")
	}
}

func TestSync(t *testing.T) {
	fx := newFixture(t)
	if st := fx.dev.SyncStatus(); st != blockdev.StatusOK {
		t.Errorf("SyncStatus() = %d", st)
	}
}

type mockActivator struct {
	calls       []string
	reenableErr error
	disableErr  error
}

func (m *mockActivator) Reenable() error {
	m.calls = append(m.calls, "reenable")
	return m.reenableErr
}

func (m *mockActivator) Disable() error {
	m.calls = append(m.calls, "disable")
	return m.disableErr
}

func TestActivated(t *testing.T) {
	fnErr := errors.New("read failed")
	actErr := errors.New("bus stuck")

	tests := []struct {
		name        string
		reenableErr error
		disableErr  error
		fnErr       error
		wantCalls   []string
		wantErr     error
	}{
		{"ok", nil, nil, nil, []string{"reenable", "fn", "disable"}, nil},
		{"fn fails", nil, nil, fnErr, []string{"reenable", "fn", "disable"}, fnErr},
		{"reenable fails", actErr, nil, nil, []string{"reenable"}, actErr},
		{"disable fails", nil, actErr, nil, []string{"reenable", "fn", "disable"}, actErr},
		{"fn error wins", nil, actErr, fnErr, []string{"reenable", "fn", "disable"}, fnErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := &mockActivator{reenableErr: tt.reenableErr, disableErr: tt.disableErr}
			err := blockdev.Activated(act, func() error {
				act.calls = append(act.calls, "fn")
				return tt.fnErr
			})
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("Activated() error = %v, want %v", err, tt.wantErr)
			}
			if strings.Join(act.calls, ",") != strings.Join(tt.wantCalls, ",") {
				t.Errorf("calls = %v, want %v", act.calls, tt.wantCalls)
			}
		})
	}

	ran := false
	if err := blockdev.Activated(nil, func() error { ran = true; return nil }); err != nil || !ran {
		t.Errorf("Activated(nil) ran = %v, error = %v", ran, err)
	}
}
