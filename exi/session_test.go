package exi

import (
	"errors"
	"strings"
	"testing"
)

// recordingBus logs every bus call for assertions.
type recordingBus struct {
	calls     []string
	selectErr error
	syncErr   error
	deselErr  error
	readData  []byte
}

func (b *recordingBus) Lock(ch Channel, dev Device) error {
	b.calls = append(b.calls, "lock")
	return nil
}

func (b *recordingBus) Select(ch Channel, dev Device, speed Speed) error {
	b.calls = append(b.calls, "select:"+speed.String())
	return b.selectErr
}

func (b *recordingBus) Imm(ch Channel, buf []byte, dir Direction) error {
	b.calls = append(b.calls, "imm:"+dir.String())
	if dir == Read {
		n := copy(buf, b.readData)
		b.readData = b.readData[n:]
	}
	return nil
}

func (b *recordingBus) Sync(ch Channel) error {
	b.calls = append(b.calls, "sync")
	return b.syncErr
}

func (b *recordingBus) Deselect(ch Channel) error {
	b.calls = append(b.calls, "deselect")
	return b.deselErr
}

func (b *recordingBus) Unlock(ch Channel) error {
	b.calls = append(b.calls, "unlock")
	return nil
}

func (b *recordingBus) trace() string {
	return strings.Join(b.calls, ",")
}

func TestOpenClose(t *testing.T) {
	bus := &recordingBus{}

	s, err := Open(bus, Channel0, Device1, Speed32MHz)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.Channel() != Channel0 || s.Device() != Device1 || s.Speed() != Speed32MHz {
		t.Errorf("session = %v/%v/%v, want channel 0, device 1, 32MHz", s.Channel(), s.Device(), s.Speed())
	}
	if err := s.WriteUint32(0x80000000); err != nil {
		t.Fatalf("WriteUint32() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// second close is a no-op
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	want := "lock,select:32MHz,imm:write,sync,deselect,unlock"
	if got := bus.trace(); got != want {
		t.Errorf("trace = %q, want %q", got, want)
	}
}

func TestOpenSelectFailureReleasesLock(t *testing.T) {
	bus := &recordingBus{selectErr: errors.New("no device")}

	s, err := Open(bus, Channel0, Device1, Speed8MHz)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if s != nil {
		t.Error("expected nil session on failure")
	}
	if got, want := bus.trace(), "lock,select:8MHz,unlock"; got != want {
		t.Errorf("trace = %q, want %q", got, want)
	}
}

func TestCloseAlwaysUnlocks(t *testing.T) {
	bus := &recordingBus{deselErr: errors.New("stuck")}

	s, err := Open(bus, Channel0, Device1, Speed8MHz)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Close(); err == nil {
		t.Error("expected deselect error from Close")
	}
	if !strings.HasSuffix(bus.trace(), "deselect,unlock") {
		t.Errorf("trace = %q, want unlock after failed deselect", bus.trace())
	}
}

func TestTransactSizes(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "empty", size: 0, wantErr: true},
		{name: "byte", size: 1},
		{name: "half word", size: 2},
		{name: "word", size: 4},
		{name: "too wide", size: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := Open(&recordingBus{}, Channel0, Device1, Speed32MHz)
			defer s.Close()

			err := s.Transact(Write, make([]byte, tt.size))
			if tt.wantErr {
				var sizeErr *TransferSizeError
				if !errors.As(err, &sizeErr) {
					t.Fatalf("error = %v, want *TransferSizeError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTransactSyncFailure(t *testing.T) {
	syncErr := errors.New("bus fault")
	s, _ := Open(&recordingBus{syncErr: syncErr}, Channel0, Device1, Speed32MHz)
	defer s.Close()

	err := s.WriteUint8(0x06)
	var txErr *TransferError
	if !errors.As(err, &txErr) {
		t.Fatalf("error = %v, want *TransferError", err)
	}
	if !errors.Is(err, syncErr) {
		t.Errorf("error should wrap the bus error, got %v", err)
	}
}

func TestTransactAfterClose(t *testing.T) {
	s, _ := Open(&recordingBus{}, Channel0, Device1, Speed32MHz)
	s.Close()

	if err := s.WriteUint8(0x06); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
}

func TestReadWriteStream(t *testing.T) {
	bus := &recordingBus{readData: []byte{0xEF, 0x40, 0x14, 0x00, 0xAA, 0xBB, 0xCC}}
	s, _ := Open(bus, Channel0, Device1, Speed32MHz)
	defer s.Close()

	id, err := s.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32() error = %v", err)
	}
	if id != 0xEF401400 {
		t.Errorf("ReadUint32() = 0x%08X, want 0xEF401400", id)
	}

	buf := make([]byte, 3)
	if err := s.Read(buf); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if buf[0] != 0xAA || buf[2] != 0xCC {
		t.Errorf("Read() = % X", buf)
	}

	bus.calls = nil
	if err := s.Write(make([]byte, 10)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	// 10 bytes -> 4 + 4 + 2
	if got, want := strings.Count(bus.trace(), "imm:write"), 3; got != want {
		t.Errorf("immediate transfers = %d, want %d", got, want)
	}
}
