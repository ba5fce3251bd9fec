// Package machine implements the orchestrator: the single-threaded loop
// that owns the CPU, bus, PPU, timer, DMA, and interrupt dispatch and
// advances them in lockstep. Nothing in this package runs concurrently
// with anything else in the core; the host is expected to call Step
// repeatedly from one goroutine and only read Framebuffer/SerialOutput
// between calls.
package machine

import (
	"github.com/gbcore-project/gbcore/internal/bus"
	"github.com/gbcore-project/gbcore/internal/cpu"
	"github.com/gbcore-project/gbcore/internal/dma"
	"github.com/gbcore-project/gbcore/internal/input"
	"github.com/gbcore-project/gbcore/internal/interrupt"
	"github.com/gbcore-project/gbcore/internal/timer"
)

const dmaCycles = 160 // m-cycles charged for an OAM DMA transfer

// Config carries knobs that affect how a Machine runs without changing
// what it emulates.
type Config struct {
	// Trace, when set, is reserved for a future per-instruction trace
	// hook; the orchestrator itself does not interpret it.
	Trace bool
}

// Machine is the orchestrator: it wires a CPU to a Bus and drives both
// through one Step at a time, servicing DMA and interrupts in between
// per the ordering guarantee CPU -> DMA -> interrupts -> PPU -> timer.
type Machine struct {
	cfg   Config
	bus   *bus.Bus
	cpu   *cpu.CPU
	timer timer.Timer
}

// New constructs a Machine with no cartridge installed. Call InstallROM
// before the first Step.
func New(cfg Config) *Machine {
	b := bus.New(make([]byte, 0x8000))
	return &Machine{cfg: cfg, bus: b, cpu: cpu.New(b)}
}

// InstallROM replaces the cartridge ROM image. The bus and CPU are
// rebuilt around it; any prior register or MMIO state is discarded.
func (m *Machine) InstallROM(rom []byte) {
	flat := make([]byte, 0x8000)
	copy(flat, rom)
	m.bus = bus.New(flat)
	m.cpu = cpu.New(m.bus)
	m.timer = timer.Timer{}
}

// ConfigureStartupValues applies the fixed post-boot register and MMIO
// snapshot in place of running a bootstrap ROM.
func (m *Machine) ConfigureStartupValues() {
	c := m.cpu
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.SetPC(0x0100)

	b := m.bus
	b.Write(0xFF40, 0x91) // LCDC
	b.Write(0xFF46, 0xFF) // DMA
	b.Write(0xFF00, 0xCF) // JOYP
	b.SetDivRaw(0x18)
	b.Write(0xFF07, 0xF8) // TAC
	b.Write(0xFF0F, 0xE1) // IF
	b.Write(0xFFFF, 0x00) // IE

	// LY and STAT are set directly: the CPU-facing write path resets the
	// scanline state on an LY write and masks a STAT write to bits 3-6,
	// so neither accepts an arbitrary value, which is exactly wrong for
	// seeding a snapshot.
	b.PPU().SeedBoot(0x91, 0x81)

	// The DMA write above only primes the register for read-back; it
	// must not leave a transfer pending for the first real Step.
	b.ConsumeDMARequest()
}

// Step advances the machine by one CPU instruction worth of time,
// running DMA, interrupt dispatch, PPU, and timer in the order the
// concurrency model guarantees: CPU instruction effects, DMA copy (if
// any), interrupt vectoring, PPU advance, timer advance. It returns the
// total m-cycles consumed by the step, as a convenience for callers
// that pace against the real clock.
func (m *Machine) Step() int {
	delta := m.cpu.Step()

	if src, pending := m.bus.ConsumeDMARequest(); pending {
		dma.Transfer(m.bus, src)
		delta += dmaCycles
	}

	delta += interrupt.Dispatch(m.cpu, m.bus)

	m.bus.PPU().Tick(delta * 4) // m-cycles to PPU dot/T-cycles
	m.timer.Step(m.bus, delta)

	return delta
}

// Framebuffer returns the current 160x144 RGBA8 visible framebuffer,
// row-major with a top-left origin. The slice is owned by the PPU and
// is only safe to read between Step calls.
func (m *Machine) Framebuffer() []byte { return m.bus.PPU().Framebuffer() }

// SetInput replaces the joypad snapshot the bus reads 0xFF00 against.
// Safe to call only between Step calls.
func (m *Machine) SetInput(s input.Snapshot) { m.bus.SetInput(s) }

// SerialOutput returns the accumulated debug serial byte log written
// through the 0xFF01/0xFF02 protocol.
func (m *Machine) SerialOutput() []byte { return m.bus.SerialOutput() }

// Bus exposes the underlying bus, for tools (trace runners, debuggers)
// that need raw memory access beyond the core's external interface.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// CPU exposes the underlying CPU, for the same reason.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }
