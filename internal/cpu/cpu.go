// Package cpu implements the SM83 fetch-decode-execute core: the full
// unprefixed and CB-prefixed opcode tables, the four-flag ALU, and the
// HALT/IME bookkeeping. It does not service interrupts itself; the
// orchestrator calls internal/interrupt.Dispatch around each Step, and
// the CPU exposes exactly the surface that package's CPU interface
// needs (IME, Halted, PC, PushPC).
package cpu

import (
	"github.com/gbcore-project/gbcore/internal/bus"
)

// CPU holds the SM83 register file and the bus it executes against.
type CPU struct {
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	pc uint16

	ime       bool
	halted    bool
	eiPending bool // EI executed last instruction; IME goes live after this one

	bus *bus.Bus
}

// New creates a CPU wired to b, with SP/PC at their reset values. Use
// the orchestrator's ConfigureStartupValues to reach the DMG post-boot
// snapshot rather than a boot ROM.
func New(b *bus.Bus) *CPU {
	return &CPU{bus: b, SP: 0xFFFE, pc: 0x0000}
}

// Bus exposes the underlying bus for tests and tools.
func (c *CPU) Bus() *bus.Bus { return c.bus }

// --- internal/interrupt.CPU ---

func (c *CPU) IME() bool        { return c.ime }
func (c *CPU) SetIME(v bool)    { c.ime = v }
func (c *CPU) Halted() bool     { return c.halted }
func (c *CPU) SetHalted(v bool) { c.halted = v }
func (c *CPU) PC() uint16       { return c.pc }
func (c *CPU) SetPC(pc uint16)  { c.pc = pc }
func (c *CPU) PushPC()          { c.push16(c.pc) }

// Flags helpers
const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

func (c *CPU) setZNHC(z, n, h, carry bool) {
	var f byte
	if z {
		f |= flagZ
	}
	if n {
		f |= flagN
	}
	if h {
		f |= flagH
	}
	if carry {
		f |= flagC
	}
	c.F = f
}

func (c *CPU) add8(a, b byte) (res byte, z, n, h, cy bool) {
	r := uint16(a) + uint16(b)
	res = byte(r)
	z = res == 0
	n = false
	h = ((a & 0x0F) + (b & 0x0F)) > 0x0F
	cy = r > 0xFF
	return
}

// adc8 adds b then the carry-in, both after the operand, matching
// spec's ADC/SBC carry-order decision.
func (c *CPU) adc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := uint16(a) + uint16(b) + uint16(ci)
	res = byte(r)
	z = res == 0
	n = false
	h = ((a & 0x0F) + (b & 0x0F) + ci) > 0x0F
	cy = r > 0xFF
	return
}

func (c *CPU) sub8(a, b byte) (res byte, z, n, h, cy bool) {
	r := int16(a) - int16(b)
	res = byte(r)
	z = res == 0
	n = true
	h = (a & 0x0F) < (b & 0x0F)
	cy = int16(a) < int16(b)
	return
}

func (c *CPU) sbc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := int16(a) - int16(b) - int16(ci)
	res = byte(r)
	z = res == 0
	n = true
	h = (a & 0x0F) < ((b & 0x0F) + ci)
	cy = int16(a) < int16(b)+int16(ci)
	return
}

func (c *CPU) and8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a & b
	z = res == 0
	n = false
	h = true
	cy = false
	return
}

func (c *CPU) xor8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a ^ b
	z = res == 0
	n = false
	h = false
	cy = false
	return
}

func (c *CPU) or8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a | b
	z = res == 0
	n = false
	h = false
	cy = false
	return
}

func (c *CPU) cp8(a, b byte) (z, n, h, cy bool) {
	_, z, n, h, cy = c.sub8(a, b)
	return
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.pc)
	c.pc++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | (hi << 8)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | (hi << 8)
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v&0x00FF))
	c.write8(addr+1, byte(v>>8))
}

func (c *CPU) getAF() uint16  { return uint16(c.A)<<8 | uint16(c.F&0xF0) }
func (c *CPU) setAF(v uint16) { c.A = byte(v >> 8); c.F = byte(v) & 0xF0 }
func (c *CPU) getBC() uint16  { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) setBC(v uint16) { c.B = byte(v >> 8); c.C = byte(v) }
func (c *CPU) getDE() uint16  { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) setDE(v uint16) { c.D = byte(v >> 8); c.E = byte(v) }
func (c *CPU) getHL() uint16  { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) setHL(v uint16) { c.H = byte(v >> 8); c.L = byte(v) }

func (c *CPU) push16(v uint16) {
	c.SP -= 2
	c.write16(c.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}

// regGet/regSet map the 3-bit (HL)-capable register index used by both
// the LD r,r' grid and the CB-prefixed page: 0-5 are B,C,D,E,H,L; 6 is
// (HL); 7 is A.
func (c *CPU) regGet(idx byte) byte {
	switch idx {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.read8(c.getHL())
	default:
		return c.A
	}
}

func (c *CPU) regSet(idx byte, v byte) {
	switch idx {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.write8(c.getHL(), v)
	default:
		c.A = v
	}
}

// Step executes exactly one instruction (or one HALT-sleep tick) and
// returns the m-cycle count it consumed. Interrupt servicing is not
// performed here; the orchestrator calls internal/interrupt.Dispatch
// around Step per its own scheduling.
func (c *CPU) Step() (cycles int) {
	applyEI := c.eiPending
	c.eiPending = false
	defer func() {
		if applyEI {
			c.ime = true
		}
	}()

	if c.halted {
		return 1
	}

	op := c.fetch8()
	return c.execute(op) / 4
}

// execute runs the fetched opcode and returns its cost in T-cycles (the
// SM83's native clock unit); Step converts to m-cycles since every other
// component in the engine is calibrated in m-cycles.
func (c *CPU) execute(op byte) int {
	switch op {
	case 0x00: // NOP
		return 4

	// LD r, d8
	case 0x06:
		c.B = c.fetch8()
		return 8
	case 0x0E:
		c.C = c.fetch8()
		return 8
	case 0x16:
		c.D = c.fetch8()
		return 8
	case 0x1E:
		c.E = c.fetch8()
		return 8
	case 0x26:
		c.H = c.fetch8()
		return 8
	case 0x2E:
		c.L = c.fetch8()
		return 8
	case 0x3E:
		c.A = c.fetch8()
		return 8

	// LD r,r' and LD (HL),r / LD r,(HL), the full 0x40-0x7F grid
	// except 0x76 (HALT, handled below).
	case 0x40, 0x41, 0x42, 0x43, 0x44, 0x45, 0x46, 0x47,
		0x48, 0x49, 0x4A, 0x4B, 0x4C, 0x4D, 0x4E, 0x4F,
		0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57,
		0x58, 0x59, 0x5A, 0x5B, 0x5C, 0x5D, 0x5E, 0x5F,
		0x60, 0x61, 0x62, 0x63, 0x64, 0x65, 0x66, 0x67,
		0x68, 0x69, 0x6A, 0x6B, 0x6C, 0x6D, 0x6E, 0x6F,
		0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x77,
		0x78, 0x79, 0x7A, 0x7B, 0x7C, 0x7D, 0x7E, 0x7F:
		d := (op >> 3) & 7
		s := op & 7
		c.regSet(d, c.regGet(s))
		if d == 6 || s == 6 {
			return 8
		}
		return 4

	// 16-bit loads
	case 0x01: // LD BC,d16
		c.setBC(c.fetch16())
		return 12
	case 0x11: // LD DE,d16
		c.setDE(c.fetch16())
		return 12
	case 0x21: // LD HL,d16
		c.setHL(c.fetch16())
		return 12
	case 0x31: // LD SP,d16
		c.SP = c.fetch16()
		return 12
	case 0x08: // LD (a16),SP
		addr := c.fetch16()
		c.write16(addr, c.SP)
		return 20

	// LD (HL), d8
	case 0x36:
		v := c.fetch8()
		c.write8(c.getHL(), v)
		return 12

	// LD (BC),A / (DE),A and A,(BC)/(DE)
	case 0x02:
		c.write8(c.getBC(), c.A)
		return 8
	case 0x12:
		c.write8(c.getDE(), c.A)
		return 8
	case 0x0A:
		c.A = c.read8(c.getBC())
		return 8
	case 0x1A:
		c.A = c.read8(c.getDE())
		return 8

	// LDI/LDD via HL
	case 0x22: // LD (HL+),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl + 1)
		return 8
	case 0x2A: // LD A,(HL+)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl + 1)
		return 8
	case 0x32: // LD (HL-),A
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl - 1)
		return 8
	case 0x3A: // LD A,(HL-)
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl - 1)
		return 8

	// LDH (FF00+n),A and A,(FF00+n)
	case 0xE0:
		n := uint16(c.fetch8())
		c.write8(0xFF00+n, c.A)
		return 12
	case 0xF0:
		n := uint16(c.fetch8())
		c.A = c.read8(0xFF00 + n)
		return 12
	case 0xE2: // LD (FF00+C),A
		c.write8(0xFF00+uint16(c.C), c.A)
		return 8
	case 0xF2: // LD A,(FF00+C)
		c.A = c.read8(0xFF00 + uint16(c.C))
		return 8

	// Rotates and flag ops
	case 0x07: // RLCA
		cval := (c.A >> 7) & 1
		c.A = (c.A << 1) | cval
		c.setZNHC(false, false, false, cval == 1)
		return 4
	case 0x0F: // RRCA
		cval := c.A & 1
		c.A = (c.A >> 1) | (cval << 7)
		c.setZNHC(false, false, false, cval == 1)
		return 4
	case 0x17: // RLA
		cval := (c.A >> 7) & 1
		carry := byte(0)
		if (c.F & flagC) != 0 {
			carry = 1
		}
		c.A = (c.A << 1) | carry
		c.setZNHC(false, false, false, cval == 1)
		return 4
	case 0x1F: // RRA
		cval := c.A & 1
		carry := byte(0)
		if (c.F & flagC) != 0 {
			carry = 1
		}
		c.A = (c.A >> 1) | (carry << 7)
		c.setZNHC(false, false, false, cval == 1)
		return 4
	case 0x27: // DAA
		a := c.A
		cf := (c.F & flagC) != 0
		if (c.F & flagN) == 0 { // after addition
			if cf || a > 0x99 {
				a += 0x60
				cf = true
			}
			if (c.F&flagH) != 0 || (a&0x0F) > 9 {
				a += 0x06
			}
		} else { // after subtraction
			if cf {
				a -= 0x60
			}
			if (c.F & flagH) != 0 {
				a -= 0x06
			}
		}
		c.A = a
		c.setZNHC(c.A == 0, (c.F&flagN) != 0, false, cf)
		return 4
	case 0x2F: // CPL
		c.A = ^c.A
		c.F = (c.F & (flagZ | flagC)) | flagN | flagH
		return 4
	case 0x37: // SCF
		c.F = (c.F & flagZ) | flagC
		return 4
	case 0x3F: // CCF
		if (c.F & flagC) != 0 {
			c.F &^= flagC
		} else {
			c.F |= flagC
		}
		c.F &^= flagN | flagH
		c.F &= flagZ | flagC
		return 4

	case 0x04: // INC B
		old := c.B
		c.B++
		c.setZNHC(c.B == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x0C: // INC C
		old := c.C
		c.C++
		c.setZNHC(c.C == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x14: // INC D
		old := c.D
		c.D++
		c.setZNHC(c.D == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x1C: // INC E
		old := c.E
		c.E++
		c.setZNHC(c.E == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x24: // INC H
		old := c.H
		c.H++
		c.setZNHC(c.H == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x2C: // INC L
		old := c.L
		c.L++
		c.setZNHC(c.L == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x3C: // INC A
		old := c.A
		c.A++
		c.setZNHC(c.A == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 4
	case 0x34: // INC (HL)
		addr := c.getHL()
		old := c.read8(addr)
		v := old + 1
		c.write8(addr, v)
		c.setZNHC(v == 0, false, (old&0x0F) == 0x0F, (c.F&flagC) != 0)
		return 12

	case 0x05: // DEC B
		old := c.B
		c.B--
		c.setZNHC(c.B == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x0D: // DEC C
		old := c.C
		c.C--
		c.setZNHC(c.C == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x15: // DEC D
		old := c.D
		c.D--
		c.setZNHC(c.D == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x1D: // DEC E
		old := c.E
		c.E--
		c.setZNHC(c.E == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x25: // DEC H
		old := c.H
		c.H--
		c.setZNHC(c.H == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x2D: // DEC L
		old := c.L
		c.L--
		c.setZNHC(c.L == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x3D: // DEC A
		old := c.A
		c.A--
		c.setZNHC(c.A == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 4
	case 0x35: // DEC (HL)
		addr := c.getHL()
		old := c.read8(addr)
		v := old - 1
		c.write8(addr, v)
		c.setZNHC(v == 0, true, (old&0x0F) == 0x00, (c.F&flagC) != 0)
		return 12

	// ADD/ADC/SUB/SBC/AND/XOR/OR/CP with registers
	case 0x80, 0x81, 0x82, 0x83, 0x84, 0x85, 0x87:
		r, z, n, h, cy := c.add8(c.A, c.regGet(op&7))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0x88, 0x89, 0x8A, 0x8B, 0x8C, 0x8D, 0x8F:
		r, z, n, h, cy := c.adc8(c.A, c.regGet(op&7), (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0x90, 0x91, 0x92, 0x93, 0x94, 0x95, 0x97:
		r, z, n, h, cy := c.sub8(c.A, c.regGet(op&7))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0x98, 0x99, 0x9A, 0x9B, 0x9C, 0x9D, 0x9F:
		r, z, n, h, cy := c.sbc8(c.A, c.regGet(op&7), (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA7:
		r, z, n, h, cy := c.and8(c.A, c.regGet(op&7))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0xA8, 0xA9, 0xAA, 0xAB, 0xAC, 0xAD, 0xAF:
		r, z, n, h, cy := c.xor8(c.A, c.regGet(op&7))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5, 0xB7:
		r, z, n, h, cy := c.or8(c.A, c.regGet(op&7))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 4
	case 0xB8, 0xB9, 0xBA, 0xBB, 0xBC, 0xBD, 0xBF:
		z, n, h, cy := c.cp8(c.A, c.regGet(op&7))
		c.setZNHC(z, n, h, cy)
		return 4

	// ALU with (HL)
	case 0x86:
		r, z, n, h, cy := c.add8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0x8E:
		r, z, n, h, cy := c.adc8(c.A, c.read8(c.getHL()), (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0x96:
		r, z, n, h, cy := c.sub8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0x9E:
		r, z, n, h, cy := c.sbc8(c.A, c.read8(c.getHL()), (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xA6:
		r, z, n, h, cy := c.and8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xAE:
		r, z, n, h, cy := c.xor8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xB6:
		r, z, n, h, cy := c.or8(c.A, c.read8(c.getHL()))
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xBE:
		z, n, h, cy := c.cp8(c.A, c.read8(c.getHL()))
		c.setZNHC(z, n, h, cy)
		return 8

	// ALU immediate
	case 0xC6:
		r, z, n, h, cy := c.add8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xCE:
		r, z, n, h, cy := c.adc8(c.A, c.fetch8(), (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xD6:
		r, z, n, h, cy := c.sub8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xDE:
		r, z, n, h, cy := c.sbc8(c.A, c.fetch8(), (c.F&flagC) != 0)
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xE6:
		r, z, n, h, cy := c.and8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xEE:
		r, z, n, h, cy := c.xor8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xF6:
		r, z, n, h, cy := c.or8(c.A, c.fetch8())
		c.A = r
		c.setZNHC(z, n, h, cy)
		return 8
	case 0xFE:
		z, n, h, cy := c.cp8(c.A, c.fetch8())
		c.setZNHC(z, n, h, cy)
		return 8

	case 0xEA: // LD (a16),A
		addr := c.fetch16()
		c.write8(addr, c.A)
		return 16
	case 0xFA: // LD A,(a16)
		addr := c.fetch16()
		c.A = c.read8(addr)
		return 16

	case 0xC3: // JP a16
		c.pc = c.fetch16()
		return 16
	case 0xE9: // JP (HL)
		c.pc = c.getHL()
		return 4
	case 0x18: // JR r8
		off := int8(c.fetch8())
		c.pc = uint16(int32(c.pc) + int32(off))
		return 12

	// JR cc,r8
	case 0x20: // JR NZ
		off := int8(c.fetch8())
		if (c.F & flagZ) == 0 {
			c.pc = uint16(int32(c.pc) + int32(off))
			return 12
		}
		return 8
	case 0x28: // JR Z
		off := int8(c.fetch8())
		if (c.F & flagZ) != 0 {
			c.pc = uint16(int32(c.pc) + int32(off))
			return 12
		}
		return 8
	case 0x30: // JR NC
		off := int8(c.fetch8())
		if (c.F & flagC) == 0 {
			c.pc = uint16(int32(c.pc) + int32(off))
			return 12
		}
		return 8
	case 0x38: // JR C
		off := int8(c.fetch8())
		if (c.F & flagC) != 0 {
			c.pc = uint16(int32(c.pc) + int32(off))
			return 12
		}
		return 8

	// CALL/RET
	case 0xCD: // CALL a16
		addr := c.fetch16()
		c.push16(c.pc)
		c.pc = addr
		return 24
	case 0xC9: // RET
		c.pc = c.pop16()
		return 16
	case 0xD9: // RETI
		c.pc = c.pop16()
		c.ime = true
		return 16

	// RST t
	case 0xC7:
		c.push16(c.pc)
		c.pc = 0x00
		return 16
	case 0xCF:
		c.push16(c.pc)
		c.pc = 0x08
		return 16
	case 0xD7:
		c.push16(c.pc)
		c.pc = 0x10
		return 16
	case 0xDF:
		c.push16(c.pc)
		c.pc = 0x18
		return 16
	case 0xE7:
		c.push16(c.pc)
		c.pc = 0x20
		return 16
	case 0xEF:
		c.push16(c.pc)
		c.pc = 0x28
		return 16
	case 0xF7:
		c.push16(c.pc)
		c.pc = 0x30
		return 16
	case 0xFF:
		c.push16(c.pc)
		c.pc = 0x38
		return 16

	// CALL cc
	case 0xC4: // NZ
		addr := c.fetch16()
		if (c.F & flagZ) == 0 {
			c.push16(c.pc)
			c.pc = addr
			return 24
		}
		return 12
	case 0xCC: // Z
		addr := c.fetch16()
		if (c.F & flagZ) != 0 {
			c.push16(c.pc)
			c.pc = addr
			return 24
		}
		return 12
	case 0xD4: // NC
		addr := c.fetch16()
		if (c.F & flagC) == 0 {
			c.push16(c.pc)
			c.pc = addr
			return 24
		}
		return 12
	case 0xDC: // C
		addr := c.fetch16()
		if (c.F & flagC) != 0 {
			c.push16(c.pc)
			c.pc = addr
			return 24
		}
		return 12

	// RET cc
	case 0xC0:
		if (c.F & flagZ) == 0 {
			c.pc = c.pop16()
			return 20
		}
		return 8
	case 0xC8:
		if (c.F & flagZ) != 0 {
			c.pc = c.pop16()
			return 20
		}
		return 8
	case 0xD0:
		if (c.F & flagC) == 0 {
			c.pc = c.pop16()
			return 20
		}
		return 8
	case 0xD8:
		if (c.F & flagC) != 0 {
			c.pc = c.pop16()
			return 20
		}
		return 8

	// JP cc,a16
	case 0xC2:
		addr := c.fetch16()
		if (c.F & flagZ) == 0 {
			c.pc = addr
			return 16
		}
		return 12
	case 0xCA:
		addr := c.fetch16()
		if (c.F & flagZ) != 0 {
			c.pc = addr
			return 16
		}
		return 12
	case 0xD2:
		addr := c.fetch16()
		if (c.F & flagC) == 0 {
			c.pc = addr
			return 16
		}
		return 12
	case 0xDA:
		addr := c.fetch16()
		if (c.F & flagC) != 0 {
			c.pc = addr
			return 16
		}
		return 12

	// 16-bit INC/DEC and ADD HL,rr
	case 0x03:
		c.setBC(c.getBC() + 1)
		return 8
	case 0x13:
		c.setDE(c.getDE() + 1)
		return 8
	case 0x23:
		c.setHL(c.getHL() + 1)
		return 8
	case 0x33:
		c.SP++
		return 8
	case 0x0B:
		c.setBC(c.getBC() - 1)
		return 8
	case 0x1B:
		c.setDE(c.getDE() - 1)
		return 8
	case 0x2B:
		c.setHL(c.getHL() - 1)
		return 8
	case 0x3B:
		c.SP--
		return 8
	case 0x09: // ADD HL,BC
		hl, bc := c.getHL(), c.getBC()
		r := uint32(hl) + uint32(bc)
		h := ((hl & 0x0FFF) + (bc & 0x0FFF)) > 0x0FFF
		c.setHL(uint16(r))
		c.setZNHC((c.F&flagZ) != 0, false, h, r > 0xFFFF)
		return 8
	case 0x19: // ADD HL,DE
		hl, de := c.getHL(), c.getDE()
		r := uint32(hl) + uint32(de)
		h := ((hl & 0x0FFF) + (de & 0x0FFF)) > 0x0FFF
		c.setHL(uint16(r))
		c.setZNHC((c.F&flagZ) != 0, false, h, r > 0xFFFF)
		return 8
	case 0x29: // ADD HL,HL
		hl := c.getHL()
		r := uint32(hl) + uint32(hl)
		h := ((hl & 0x0FFF) + (hl & 0x0FFF)) > 0x0FFF
		c.setHL(uint16(r))
		c.setZNHC((c.F&flagZ) != 0, false, h, r > 0xFFFF)
		return 8
	case 0x39: // ADD HL,SP
		hl, sp := c.getHL(), c.SP
		r := uint32(hl) + uint32(sp)
		h := ((hl & 0x0FFF) + (sp & 0x0FFF)) > 0x0FFF
		c.setHL(uint16(r))
		c.setZNHC((c.F&flagZ) != 0, false, h, r > 0xFFFF)
		return 8

	// Stack/SP ops. Both use the 8-bit add carry/half-carry of the low
	// byte of SP with the signed immediate, and always clear Z and N.
	case 0xF8: // LD HL,SP+r8
		off := int8(c.fetch8())
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.setHL(uint16(int32(int16(c.SP)) + int32(off)))
		c.setZNHC(false, false, h, cy)
		return 12
	case 0xF9: // LD SP,HL
		c.SP = c.getHL()
		return 8
	case 0xE8: // ADD SP,r8
		off := int8(c.fetch8())
		low := byte(c.SP & 0xFF)
		_, _, _, h, cy := c.add8(low, byte(off))
		c.SP = uint16(int32(int16(c.SP)) + int32(off))
		c.setZNHC(false, false, h, cy)
		return 16

	// EI/DI
	case 0xF3: // DI
		c.ime = false
		c.eiPending = false
		return 4
	case 0xFB: // EI, takes effect after the following instruction
		c.eiPending = true
		return 4

	// CB-prefixed page: rotate/shift/swap, BIT, RES, SET.
	case 0xCB:
		cb := c.fetch8()
		reg := cb & 7
		group := (cb >> 6) & 3
		bit := (cb >> 3) & 7

		cbCycles := 8
		if reg == 6 {
			cbCycles = 16
		}

		switch group {
		case 0: // rotate/shift/swap
			v := c.regGet(reg)
			var cflag byte
			switch bit {
			case 0: // RLC
				cflag = (v >> 7) & 1
				v = (v << 1) | cflag
			case 1: // RRC
				cflag = v & 1
				v = (v >> 1) | (cflag << 7)
			case 2: // RL
				cflag = (v >> 7) & 1
				cin := byte(0)
				if (c.F & flagC) != 0 {
					cin = 1
				}
				v = (v << 1) | cin
			case 3: // RR
				cflag = v & 1
				cin := byte(0)
				if (c.F & flagC) != 0 {
					cin = 1
				}
				v = (v >> 1) | (cin << 7)
			case 4: // SLA
				cflag = (v >> 7) & 1
				v <<= 1
			case 5: // SRA
				cflag = v & 1
				v = (v >> 1) | (v & 0x80)
			case 6: // SWAP
				v = (v << 4) | (v >> 4)
				cflag = 0
			case 7: // SRL
				cflag = v & 1
				v >>= 1
			}
			c.regSet(reg, v)
			if bit == 6 { // SWAP clears carry unconditionally
				c.setZNHC(v == 0, false, false, false)
			} else {
				c.setZNHC(v == 0, false, false, cflag == 1)
			}
			if reg == 6 {
				return 16
			}
			return 8
		case 1: // BIT bit, r: Z from tested bit, N=0, H=1, C unchanged
			v := c.regGet(reg)
			z := (v>>bit)&1 == 0
			c.F = (c.F & flagC) | flagH
			if z {
				c.F |= flagZ
			}
			if reg == 6 {
				return 12
			}
			return 8
		case 2: // RES bit, r
			v := c.regGet(reg)
			c.regSet(reg, v&^(1<<bit))
			return cbCycles
		default: // SET bit, r
			v := c.regGet(reg)
			c.regSet(reg, v|(1<<bit))
			return cbCycles
		}

	// PUSH/POP
	case 0xF5: // PUSH AF
		c.push16(c.getAF())
		return 16
	case 0xC5: // PUSH BC
		c.push16(c.getBC())
		return 16
	case 0xD5: // PUSH DE
		c.push16(c.getDE())
		return 16
	case 0xE5: // PUSH HL
		c.push16(c.getHL())
		return 16
	case 0xF1: // POP AF
		c.setAF(c.pop16())
		return 12
	case 0xC1: // POP BC
		c.setBC(c.pop16())
		return 12
	case 0xD1: // POP DE
		c.setDE(c.pop16())
		return 12
	case 0xE1: // POP HL
		c.setHL(c.pop16())
		return 12

	case 0x76: // HALT
		c.halted = true
		return 4

	case 0x10: // STOP
		c.fetch8() // STOP is followed by a padding byte on real hardware
		return 4

	default:
		return 4
	}
}
