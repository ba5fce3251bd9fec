// Package interrupt implements the prioritized interrupt dispatch step
// that the orchestrator runs once per Machine.Step, after the CPU
// instruction and any DMA transfer, and before the PPU and timer
// advance. It is deliberately
// free-standing rather than inlined into the CPU: the CPU's own Step
// only ever executes or halts on an opcode, it never decides whether an
// interrupt is serviced.
package interrupt

// CPU is the subset of CPU state the dispatcher needs to push a return
// address and vector into a handler.
type CPU interface {
	IME() bool
	SetIME(bool)
	Halted() bool
	SetHalted(bool)
	PC() uint16
	SetPC(uint16)
	PushPC()
}

// Bus is the subset of bus state the dispatcher needs: the two flag
// registers that gate which interrupts are enabled and pending.
type Bus interface {
	IE() byte
	IF() byte
	SetIF(byte)
}

// source describes one of the five interrupt lines in priority order,
// highest priority first.
type source struct {
	bit    int
	vector uint16
}

var sources = [5]source{
	{bit: 0, vector: 0x40}, // VBlank
	{bit: 1, vector: 0x48}, // LCD STAT
	{bit: 2, vector: 0x50}, // Timer
	{bit: 3, vector: 0x58}, // Serial
	{bit: 4, vector: 0x60}, // Joypad
}

// Dispatch checks IE & IF for a pending, enabled interrupt in priority
// order. Any pending interrupt wakes the CPU from HALT, regardless of
// IME. If IME is set, the highest-priority pending interrupt is
// serviced: its IF bit is cleared, IME is cleared, the current PC is
// pushed to the stack, and PC is vectored to the handler address.
// Dispatch returns the number of m-cycles the dispatch itself consumed
// (5 if an interrupt was serviced, 0 otherwise).
func Dispatch(cpu CPU, bus Bus) int {
	pending := bus.IE() & bus.IF()
	if pending == 0 {
		return 0
	}

	cpu.SetHalted(false)

	if !cpu.IME() {
		return 0
	}

	for _, s := range sources {
		mask := byte(1 << uint(s.bit))
		if pending&mask == 0 {
			continue
		}

		cpu.SetIME(false)
		bus.SetIF(bus.IF() &^ mask)
		cpu.PushPC()
		cpu.SetPC(s.vector)
		return 5
	}

	return 0
}
