package bus

import (
	"testing"

	"github.com/gbcore-project/gbcore/internal/input"
)

func TestBus_ROMAndRAM(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0100] = 0x42
	b := New(rom)

	if got := b.Read(0x0100); got != 0x42 {
		t.Fatalf("ROM read got %02x, want 42", got)
	}

	b.Write(0xC000, 0x99)
	if got := b.Read(0xC000); got != 0x99 {
		t.Fatalf("RAM read got %02x, want 99", got)
	}

	// Echo region always reads 0, regardless of the WRAM it mirrors on write.
	b.Write(0xE000, 0x55)
	if got := b.Read(0xE000); got != 0x00 {
		t.Fatalf("Echo read got %02x, want 00", got)
	}
	if got := b.Read(0xC000); got != 0x55 {
		t.Fatalf("Echo write did not mirror to WRAM: got %02x", got)
	}

	b.Write(0xFF80, 0xAB)
	if got := b.Read(0xFF80); got != 0xAB {
		t.Fatalf("HRAM read got %02x, want AB", got)
	}

	if got := b.Read(0xA123); got != 0x00 {
		t.Fatalf("Ext RAM got %02x, want 00 (zeroed at reset)", got)
	}
}

func TestBus_VRAM_OAM_InterruptRegs(t *testing.T) {
	b := New(make([]byte, 0x8000))

	b.Write(0x8000, 0x11)
	if got := b.Read(0x8000); got != 0x11 {
		t.Fatalf("VRAM read got %02x, want 11", got)
	}

	b.Write(0xFE00, 0x22)
	if got := b.Read(0xFE00); got != 0x22 {
		t.Fatalf("OAM read got %02x, want 22", got)
	}

	b.Write(0xFF0F, 0x3F)
	if got := b.Read(0xFF0F); got != 0xE0|0x1F {
		t.Fatalf("IF read got %02x, want %02x", got, 0xE0|0x1F)
	}

	b.Write(0xFFFF, 0x1B)
	if got := b.Read(0xFFFF); got != 0x1B {
		t.Fatalf("IE read got %02x, want 1B", got)
	}
}

func TestBus_JOYP(t *testing.T) {
	b := New(make([]byte, 0x8000))

	if got := b.Read(0xFF00); got&0x0F != 0x0F {
		t.Fatalf("JOYP default lower bits got %02x want 0x0F", got)
	}

	b.Write(0xFF00, 0x20) // select D-Pad (P14=0)
	b.SetInput(input.Snapshot{Directional: input.Right | input.Up})
	if got := b.Read(0xFF00); got&0x0F != 0x0A {
		t.Fatalf("JOYP D-Pad got %02x want 0x0A", got&0x0F)
	}

	b.Write(0xFF00, 0x10) // select Buttons (P15=0)
	b.SetInput(input.Snapshot{Action: input.A | input.Start})
	if got := b.Read(0xFF00); got&0x0F != 0x06 {
		t.Fatalf("JOYP Buttons got %02x want 0x06", got&0x0F)
	}
}

func TestBus_TimerRegisters(t *testing.T) {
	b := New(make([]byte, 0x8000))

	b.Write(0xFF04, 0x12)
	if got := b.Read(0xFF04); got != 0x00 {
		t.Fatalf("DIV write did not reset to 0: got %02x", got)
	}
	b.Write(0xFF05, 0x77)
	if got := b.Read(0xFF05); got != 0x77 {
		t.Fatalf("TIMA got %02x want 77", got)
	}
	b.Write(0xFF06, 0x88)
	if got := b.Read(0xFF06); got != 0x88 {
		t.Fatalf("TMA got %02x want 88", got)
	}
	b.Write(0xFF07, 0xFD)
	if got := b.Read(0xFF07); got != (0xF8 | (0xFD & 0x07)) {
		t.Fatalf("TAC got %02x want %02x", got, 0xF8|(0xFD&0x07))
	}
}

func TestBus_SerialDebugLog(t *testing.T) {
	b := New(make([]byte, 0x8000))

	b.Write(0xFF01, 0x41) // 'A'
	b.Write(0xFF02, 0x81)

	if got := b.SerialOutput(); len(got) != 1 || got[0] != 0x41 {
		t.Fatalf("serial output got %v want [0x41]", got)
	}
	if got := b.Read(0xFF02); got&0x80 != 0 {
		t.Fatalf("serial control bit7 not cleared: %02x", got)
	}
	if b.Read(0xFF0F)&(1<<3) == 0 {
		t.Fatalf("serial IF bit not set after transfer")
	}
}

func TestBus_DMATrigger_ConsumedOnce(t *testing.T) {
	b := New(make([]byte, 0x8000))

	b.Write(0xFF46, 0xC0)
	src, pending := b.ConsumeDMARequest()
	if !pending || src != 0xC0 {
		t.Fatalf("expected pending DMA request with src C0, got %02x pending=%v", src, pending)
	}

	_, pending = b.ConsumeDMARequest()
	if pending {
		t.Fatalf("expected DMA request to be consumed exactly once")
	}
}

func TestBus_UnmappedIOGapIsBenign(t *testing.T) {
	b := New(make([]byte, 0x8000))
	b.Write(0xFF03, 0x42)
	if got := b.Read(0xFF03); got != 0xFF {
		t.Fatalf("unmapped IO gap got %02x want FF", got)
	}
}
