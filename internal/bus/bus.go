// Package bus wires the full CPU-visible 16-bit address space to the
// cartridge, work RAM, high RAM, PPU, and the MMIO registers that
// belong to the bus itself (joypad, timer raw storage, serial, DMA
// trigger, interrupt flags). It owns no scheduling logic of its own:
// the timer, DMA, and interrupt packages are driven by the
// orchestrator and only reach into the bus through the narrow
// interfaces they each declare.
package bus

import (
	"fmt"

	"github.com/gbcore-project/gbcore/internal/cart"
	"github.com/gbcore-project/gbcore/internal/input"
	"github.com/gbcore-project/gbcore/internal/ppu"
)

// Bus holds every piece of DMG address space that isn't owned by the
// PPU or the cartridge directly.
type Bus struct {
	cart *cart.FlatROM
	ppu  *ppu.PPU

	wram [0x2000]byte // 0xC000-0xDFFF; echoed at 0xE000-0xFDFF
	hram [0x7F]byte   // 0xFF80-0xFFFE

	ie    byte // 0xFFFF
	ifReg byte // 0xFF0F, lower 5 bits significant

	input      input.Snapshot
	joypSelect byte // bits 5:4 as last written to 0xFF00
	joypLower4 byte // last computed active-low nibble, for joypad IRQ edge detection

	div  byte // FF04
	tima byte // FF05
	tma  byte // FF06
	tac  byte // FF07, lower 3 bits significant

	sb byte // FF01
	sc byte // FF02
	sw *serialLog

	dma        byte // FF46, last value written
	dmaPending bool // set on write to FF46, consumed once by the orchestrator

	bootROM     []byte
	bootEnabled bool
}

// New constructs a Bus around a flat 32 KiB ROM cartridge.
func New(rom []byte) *Bus {
	b := &Bus{cart: cart.New(rom), sw: &serialLog{}}
	b.ppu = ppu.New(func(bit int) { b.RequestInterrupt(bit) })
	return b
}

// PPU returns the PPU collaborator, for the orchestrator and host to
// read the framebuffer and debug layers from.
func (b *Bus) PPU() *ppu.PPU { return b.ppu }

// SetInput replaces the joypad snapshot the bus reads 0xFF00 against.
// Safe to call only between Machine.Step calls.
func (b *Bus) SetInput(s input.Snapshot) {
	b.input = s
	b.updateJoypadIRQ()
}

// SetBootROM loads a DMG boot ROM to overlay 0x0000-0x00FF until a
// non-zero write to 0xFF50 disables it. An emulator driven purely by
// ConfigureStartupValues never needs this.
func (b *Bus) SetBootROM(data []byte) {
	b.bootROM = nil
	b.bootEnabled = false
	if len(data) >= 0x100 {
		b.bootROM = append([]byte(nil), data[:0x100]...)
		b.bootEnabled = true
	}
}

// SerialOutput returns the accumulated debug serial byte log.
func (b *Bus) SerialOutput() []byte { return b.sw.bytes }

// Read dispatches a CPU-facing read across the full address space. Any
// address not covered by one of the mapped regions is a programmer bug:
// the switch is exhaustive over 0x0000-0xFFFF, so reaching the panic
// means a region was added without updating this dispatch.
func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootEnabled && addr < 0x0100 {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.ppu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		// A read from the echo region always yields 0, regardless of
		// the work-RAM contents it mirrors for writes.
		return 0
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return b.ppu.CPURead(addr)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		return 0 // unusable region
	case addr == 0xFF00:
		return b.readJoyp()
	case addr == 0xFF01:
		return b.sb
	case addr == 0xFF02:
		return 0x7E | (b.sc & 0x81)
	case addr == 0xFF04:
		return b.div
	case addr == 0xFF05:
		return b.tima
	case addr == 0xFF06:
		return b.tma
	case addr == 0xFF07:
		return 0xF8 | (b.tac & 0x07)
	case addr == 0xFF0F:
		return 0xE0 | (b.ifReg & 0x1F)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr == 0xFF46:
		return b.dma
	case addr == 0xFF50:
		return 0xFF
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return 0xFF // audio registers and wave RAM: not modeled
	case addr >= 0xFF4C && addr <= 0xFF7F:
		return 0xFF // GBC-only registers: not modeled
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return b.ie
	case addr == 0xFF03, addr >= 0xFF08 && addr <= 0xFF0E:
		return 0xFF // unmapped IO gap
	}
	panic(fmt.Sprintf("bus: unreachable read address %#04x", addr))
}

// Write dispatches a CPU-facing write across the full address space,
// applying the side effects each MMIO register documents (DIV reset,
// serial transfer, DMA trigger, and so on).
func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xDFFF:
		b.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		b.wram[addr-0x2000-0xC000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		// unusable region, writes ignored
	case addr == 0xFF00:
		b.joypSelect = value & 0x30
		b.updateJoypadIRQ()
	case addr == 0xFF01:
		b.sb = value
	case addr == 0xFF02:
		b.sc = value & 0x81
		if b.sc&0x80 != 0 {
			b.sw.bytes = append(b.sw.bytes, b.sb)
			b.RequestInterrupt(3)
			b.sc &^= 0x80
		}
	case addr == 0xFF04:
		b.div = 0 // any write resets DIV regardless of value, per spec invariant
	case addr == 0xFF05:
		b.tima = value
	case addr == 0xFF06:
		b.tma = value
	case addr == 0xFF07:
		b.tac = value & 0x07
	case addr == 0xFF0F:
		b.ifReg = value & 0x1F
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF46:
		b.dma = value
		b.dmaPending = true
	case addr == 0xFF50:
		if value != 0x00 {
			b.bootEnabled = false
		}
	case addr >= 0xFF10 && addr <= 0xFF3F:
		// audio registers: accepted and discarded
	case addr >= 0xFF4C && addr <= 0xFF7F:
		// GBC-only registers: accepted and discarded
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr == 0xFFFF:
		b.ie = value
	case addr == 0xFF03, addr >= 0xFF08 && addr <= 0xFF0E:
		// unmapped IO gap: accepted and discarded
	default:
		panic(fmt.Sprintf("bus: unreachable write address %#04x", addr))
	}
}

func (b *Bus) readJoyp() byte {
	selectDpad := b.joypSelect&0x10 == 0
	selectAction := b.joypSelect&0x20 == 0
	return 0xC0 | (b.joypSelect & 0x30) | b.input.Nibble(selectDpad, selectAction)
}

func (b *Bus) updateJoypadIRQ() {
	selectDpad := b.joypSelect&0x10 == 0
	selectAction := b.joypSelect&0x20 == 0
	newLower := b.input.Nibble(selectDpad, selectAction)
	falling := b.joypLower4 &^ newLower
	if falling != 0 {
		b.RequestInterrupt(4)
	}
	b.joypLower4 = newLower
}

// RequestInterrupt sets the given IF bit (0:VBlank, 1:LCD, 2:Timer,
// 3:Serial, 4:Joypad). Collaborators reach this through their own
// narrow interfaces rather than a generic MMIO write.
func (b *Bus) RequestInterrupt(bit int) {
	b.ifReg |= 1 << uint(bit)
}

// --- internal/timer.Bus ---

func (b *Bus) DivRaw() byte     { return b.div }
func (b *Bus) SetDivRaw(v byte) { b.div = v }
func (b *Bus) TIMA() byte       { return b.tima }
func (b *Bus) SetTIMA(v byte)   { b.tima = v }
func (b *Bus) TMA() byte        { return b.tma }
func (b *Bus) TAC() byte        { return b.tac }

// --- internal/interrupt.Bus ---

func (b *Bus) IE() byte     { return b.ie }
func (b *Bus) IF() byte     { return b.ifReg }
func (b *Bus) SetIF(v byte) { b.ifReg = v }

// --- internal/dma.Bus ---

// WriteOAM writes directly into OAM, bypassing the CPU mode-2/3
// lockout DMA is exempt from.
func (b *Bus) WriteOAM(index int, value byte) { b.ppu.WriteOAM(index, value) }

// ConsumeDMARequest reports whether 0xFF46 was written since the last
// call, clearing the pending flag. The orchestrator uses this to decide
// whether to run the DMA transfer and charge its 160 m-cycles.
func (b *Bus) ConsumeDMARequest() (src byte, pending bool) {
	if !b.dmaPending {
		return 0, false
	}
	b.dmaPending = false
	return b.dma, true
}

type serialLog struct {
	bytes []byte
}
