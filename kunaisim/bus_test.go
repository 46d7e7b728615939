package kunaisim

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kunaigc/go-kunai/exi"
	"github.com/kunaigc/go-kunai/spinor"
)

func TestBusLockDiscipline(t *testing.T) {
	b := NewBus(NewFlash(0x14))

	if err := b.Select(exi.Channel0, exi.Device1, exi.Speed32MHz); !errors.Is(err, ErrNotLocked) {
		t.Errorf("Select without lock error = %v", err)
	}
	if err := b.Lock(exi.Channel0, exi.Device1); err != nil {
		t.Fatal(err)
	}
	if err := b.Lock(exi.Channel0, exi.Device1); !errors.Is(err, ErrLocked) {
		t.Errorf("double Lock error = %v", err)
	}
	if err := b.Imm(exi.Channel0, []byte{0}, exi.Write); !errors.Is(err, ErrNotSelected) {
		t.Errorf("Imm without select error = %v", err)
	}
	if err := b.Lock(exi.Channel1, exi.Device0); err == nil {
		t.Error("Lock on an empty slot should fail")
	}
}

func TestFlashProgramIsAndOnly(t *testing.T) {
	f := NewFlash(0x10)
	run := func(cmd ...byte) {
		f.Begin()
		f.Write(cmd)
		f.End()
	}

	run(spinor.CmdWriteEnable)
	run(spinor.CmdPageProgram, 0, 0, 0, 0xF0)
	run(spinor.CmdWriteEnable)
	run(spinor.CmdPageProgram, 0, 0, 0, 0x0F)
	if f.Bytes()[0] != 0x00 {
		t.Errorf("byte 0 = 0x%02X, want 0x00", f.Bytes()[0])
	}

	// without write enable nothing happens
	run(spinor.CmdErase4K, 0, 0, 0)
	if f.Bytes()[0] != 0x00 {
		t.Error("erase without write enable took effect")
	}

	run(spinor.CmdWriteEnable)
	run(spinor.CmdErase4K, 0, 0x0F, 0xFF)
	if f.Bytes()[0] != spinor.ErasedByte {
		t.Error("sector erase did not restore 0xFF")
	}
}

func TestFlashPageWrap(t *testing.T) {
	f := NewFlash(0x10)
	f.Begin()
	f.Write([]byte{spinor.CmdWriteEnable})
	f.End()

	f.Begin()
	f.Write([]byte{spinor.CmdPageProgram, 0x00, 0x01, 0xFE})
	f.Write([]byte{0x11, 0x22, 0x33, 0x44})
	f.End()

	mem := f.Bytes()
	want := []byte{0x33, 0x44}
	if !bytes.Equal(mem[0x100:0x102], want) {
		t.Errorf("wrapped bytes = % X, want % X", mem[0x100:0x102], want)
	}
	if mem[0x200] != spinor.ErasedByte {
		t.Error("write crossed into the next page")
	}
}

func TestFlashBusy(t *testing.T) {
	f := NewFlash(0x10)
	f.SetBusyPolls(2)

	f.Begin()
	f.Write([]byte{spinor.CmdWriteEnable})
	f.End()
	f.Begin()
	f.Write([]byte{spinor.CmdErase4K, 0, 0, 0})
	f.End()

	f.Begin()
	f.Write([]byte{spinor.CmdReadStatus1})
	status := make([]byte, 3)
	f.Read(status)
	f.End()

	if status[0]&spinor.StatusBusy == 0 || status[1]&spinor.StatusBusy == 0 || status[2]&spinor.StatusBusy != 0 {
		t.Errorf("status sequence % X", status)
	}
}
