package interrupt

import "testing"

type fakeCPU struct {
	ime, halted  bool
	pc           uint16
	pushed       []uint16
}

func (c *fakeCPU) IME() bool        { return c.ime }
func (c *fakeCPU) SetIME(v bool)    { c.ime = v }
func (c *fakeCPU) Halted() bool     { return c.halted }
func (c *fakeCPU) SetHalted(v bool) { c.halted = v }
func (c *fakeCPU) PC() uint16       { return c.pc }
func (c *fakeCPU) SetPC(v uint16)   { c.pc = v }
func (c *fakeCPU) PushPC()          { c.pushed = append(c.pushed, c.pc) }

type fakeBus struct {
	ie, iff byte
}

func (b *fakeBus) IE() byte      { return b.ie }
func (b *fakeBus) IF() byte      { return b.iff }
func (b *fakeBus) SetIF(v byte)  { b.iff = v }

func TestDispatch_NoneEnabledOrPending(t *testing.T) {
	cpu := &fakeCPU{ime: true}
	bus := &fakeBus{}
	if cost := Dispatch(cpu, bus); cost != 0 {
		t.Fatalf("cost got %d want 0", cost)
	}
	if cpu.pc != 0 {
		t.Fatalf("PC should not move")
	}
}

func TestDispatch_WakesHaltedCPUEvenWithIMEClear(t *testing.T) {
	cpu := &fakeCPU{ime: false, halted: true}
	bus := &fakeBus{ie: 0x01, iff: 0x01}
	Dispatch(cpu, bus)
	if cpu.halted {
		t.Fatalf("HALT should clear on any pending enabled interrupt")
	}
	if bus.iff != 0x01 {
		t.Fatalf("IF should be untouched when IME is clear")
	}
}

func TestDispatch_ServicesHighestPriorityFirst(t *testing.T) {
	cpu := &fakeCPU{ime: true, pc: 0x1234}
	bus := &fakeBus{ie: 0x07, iff: 0x06} // LCD (bit1) and Timer (bit2) pending, VBlank not
	cost := Dispatch(cpu, bus)

	if cost != 5 {
		t.Fatalf("cost got %d want 5", cost)
	}
	if cpu.ime {
		t.Fatalf("IME should be cleared after dispatch")
	}
	if cpu.pc != 0x48 {
		t.Fatalf("PC got %#04x want LCD vector 0x48", cpu.pc)
	}
	if bus.iff != 0x04 {
		t.Fatalf("IF got %#02x want bit1 cleared, bit2 still pending", bus.iff)
	}
	if len(cpu.pushed) != 1 || cpu.pushed[0] != 0x1234 {
		t.Fatalf("expected return PC 0x1234 pushed, got %v", cpu.pushed)
	}
}

func TestDispatch_IMEClearServicesNothing(t *testing.T) {
	cpu := &fakeCPU{ime: false, pc: 0x9999}
	bus := &fakeBus{ie: 0x01, iff: 0x01}
	cost := Dispatch(cpu, bus)
	if cost != 0 {
		t.Fatalf("cost got %d want 0 when IME clear", cost)
	}
	if cpu.pc != 0x9999 {
		t.Fatalf("PC should not vector when IME clear")
	}
	if bus.iff != 0x01 {
		t.Fatalf("IF bit should remain pending when IME clear")
	}
}
