package machine

import "testing"

func romWithProgram(code []byte) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x0100:], code)
	return rom
}

func TestConfigureStartupValues_MatchesPostBootSnapshot(t *testing.T) {
	m := New(Config{})
	m.InstallROM(romWithProgram(nil))
	m.ConfigureStartupValues()

	c := m.cpu
	if c.A != 0x01 || c.F != 0xB0 {
		t.Fatalf("AF got %02x%02x want 01B0", c.A, c.F)
	}
	if c.B != 0x00 || c.C != 0x13 {
		t.Fatalf("BC got %02x%02x want 0013", c.B, c.C)
	}
	if c.D != 0x00 || c.E != 0xD8 {
		t.Fatalf("DE got %02x%02x want 00D8", c.D, c.E)
	}
	if c.H != 0x01 || c.L != 0x4D {
		t.Fatalf("HL got %02x%02x want 014D", c.H, c.L)
	}
	if c.SP != 0xFFFE {
		t.Fatalf("SP got %#04x want FFFE", c.SP)
	}
	if c.PC() != 0x0100 {
		t.Fatalf("PC got %#04x want 0100", c.PC())
	}

	b := m.bus
	if v := b.Read(0xFF44); v != 0x91 {
		t.Fatalf("LY got %02x want 91", v)
	}
	if v := b.Read(0xFF40); v != 0x91 {
		t.Fatalf("LCDC got %02x want 91", v)
	}
	if v := b.Read(0xFF41); v != 0x81 {
		t.Fatalf("STAT got %02x want 81", v)
	}
	if v := b.Read(0xFF46); v != 0xFF {
		t.Fatalf("DMA got %02x want FF", v)
	}
	if v := b.Read(0xFF00); v != 0xCF {
		t.Fatalf("JOYP got %02x want CF", v)
	}
	if v := b.Read(0xFF07); v != 0xF8 {
		t.Fatalf("TAC got %02x want F8", v)
	}
	if v := b.Read(0xFF0F); v != 0xE1 {
		t.Fatalf("IF got %02x want E1", v)
	}
	if v := b.Read(0xFFFF); v != 0x00 {
		t.Fatalf("IE got %02x want 00", v)
	}

	if src, pending := b.ConsumeDMARequest(); pending {
		t.Fatalf("startup snapshot must not leave a DMA transfer pending, got src=%02x", src)
	}
}

func TestStep_ChargesDMACyclesAndRunsTransfer(t *testing.T) {
	prog := []byte{
		0x3E, 0xC0, // LD A,0xC0
		0xE0, 0x46, // LDH (FF46),A  -- triggers DMA from 0xC000
		0x00, // NOP
	}
	m := New(Config{})
	m.InstallROM(romWithProgram(prog))
	m.ConfigureStartupValues()
	m.cpu.SetPC(0x0100)

	m.bus.Write(0xC000, 0x7A)

	m.Step() // LD A,0xC0
	cycles := m.Step() // LDH (FF46),A: triggers DMA, should charge 160 extra m-cycles
	if cycles < dmaCycles {
		t.Fatalf("Step cycles got %d, want at least %d for a triggered DMA", cycles, dmaCycles)
	}
	if got := m.bus.Read(0xFE00); got != 0x7A {
		t.Fatalf("OAM[0] after DMA got %02x want 7A", got)
	}
}

func TestStep_ServicesInterruptAfterCPUInstruction(t *testing.T) {
	prog := []byte{
		0xFB, // EI
		0x00, // NOP (IME goes live after this one completes)
		0x00, // NOP (interrupt should vector here)
	}
	m := New(Config{})
	m.InstallROM(romWithProgram(prog))
	m.ConfigureStartupValues()
	m.cpu.SetPC(0x0100)

	m.bus.Write(0xFFFF, 0x01) // enable VBlank
	m.bus.Write(0xFF0F, 0x01) // VBlank pending

	m.Step() // EI
	m.Step() // NOP; IME goes live at the end of this Step, interrupt dispatch runs after it
	if m.cpu.PC() != 0x0040 {
		t.Fatalf("PC after dispatch got %#04x want VBlank vector 0x0040", m.cpu.PC())
	}
	if m.cpu.IME() {
		t.Fatalf("IME should be cleared once the interrupt is serviced")
	}
}

func TestSerialOutput_CapturesDebugByteStream(t *testing.T) {
	prog := []byte{
		0x3E, 'O', // LD A,'O'
		0xE0, 0x01, // LDH (FF01),A
		0x3E, 0x81, // LD A,0x81
		0xE0, 0x02, // LDH (FF02),A
	}
	m := New(Config{})
	m.InstallROM(romWithProgram(prog))
	m.ConfigureStartupValues()
	m.cpu.SetPC(0x0100)

	for i := 0; i < 4; i++ {
		m.Step()
	}
	if out := m.SerialOutput(); len(out) != 1 || out[0] != 'O' {
		t.Fatalf("serial output got %v want ['O']", out)
	}
}

func TestFramebuffer_IsFixedSize(t *testing.T) {
	m := New(Config{})
	m.InstallROM(romWithProgram(nil))
	m.ConfigureStartupValues()
	if got := len(m.Framebuffer()); got != 160*144*4 {
		t.Fatalf("framebuffer length got %d want %d", got, 160*144*4)
	}
}
