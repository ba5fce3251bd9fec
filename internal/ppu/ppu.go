// Package ppu implements the pixel-processing unit: the scanline state
// machine, the background/window/sprite rasterizer, and the four debug
// layers (tile viewer, two background tile maps, sprite viewer) kept
// alongside the 160x144 visible framebuffer.
package ppu

// InterruptRequester raises one of the five IF bits (0:VBlank, 1:LCD,
// 2:Timer, 3:Serial, 4:Joypad). The PPU only ever raises VBlank (0) and
// LCD STAT (1).
type InterruptRequester func(bit int)

const (
	screenWidth  = 160
	screenHeight = 144
)

var dmgPalette = [4][4]byte{
	{0xFF, 0xFF, 0xFF, 0xFF}, // white
	{0xAA, 0xAA, 0xAA, 0xFF}, // light gray
	{0x55, 0x55, 0x55, 0xFF}, // dark gray
	{0x00, 0x00, 0x00, 0xFF}, // black
}

// PPU models VRAM/OAM, LCDC/STAT/scroll/palette registers, the running
// dot counter within the current scanline, the visible framebuffer, and
// four off-screen debug layers.
type PPU struct {
	vram [0x2000]byte // 0x8000-0x9FFF
	oam  [0xA0]byte   // 0xFE00-0xFE9F

	lcdc byte // FF40
	stat byte // FF41
	scy  byte // FF42
	scx  byte // FF43
	ly   byte // FF44
	lyc  byte // FF45
	bgp  byte // FF47
	obp0 byte // FF48
	obp1 byte // FF49
	wy   byte // FF4A
	wx   byte // FF4B

	windowLine int // internal window line counter, advances only on rows the window actually drew

	dot int // clock cycles within the current 456-cycle scanline

	framebuffer [screenWidth * screenHeight * 4]byte

	debugDirty    bool
	tileViewer    [384 * 8 * 8 * 4]byte // 384 tiles laid out 16 wide, 8x8 RGBA each
	bgMap1        [256 * 256 * 4]byte   // tile map at 0x9800
	bgMap2        [256 * 256 * 4]byte   // tile map at 0x9C00
	spriteViewer  [40 * 8 * 16 * 4]byte // 40 sprite slots, 8x16 RGBA each (tall-sprite capable)

	req InterruptRequester
}

func New(req InterruptRequester) *PPU { return &PPU{req: req, debugDirty: true} }

// CPURead returns bytes for VRAM, OAM, and PPU IO registers. Any other
// address reads as 0xFF.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (p.stat & 0x03) == 3 {
			return 0xFF
		}
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// CPUWrite handles CPU-facing writes to VRAM, OAM, and PPU IO registers.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (p.stat & 0x03) == 3 {
			return
		}
		p.vram[addr-0x8000] = value
		p.debugDirty = true
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return
		}
		p.oam[addr-0xFE00] = value
		p.debugDirty = true
	case addr == 0xFF40:
		prev := p.lcdc
		p.lcdc = value
		p.debugDirty = true
		if (p.lcdc&0x80) == 0 && (prev&0x80) != 0 {
			p.ly = 0
			p.dot = 0
			p.windowLine = 0
			p.setMode(0)
			p.updateLYC()
		} else if (p.lcdc&0x80) != 0 && (prev&0x80) == 0 {
			p.ly = 0
			p.dot = 0
			p.windowLine = 0
			p.setMode(2)
			p.updateLYC()
		}
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		p.ly = 0
		p.dot = 0
		p.updateLYC()
		if (p.lcdc & 0x80) != 0 {
			p.setMode(2)
		}
	case addr == 0xFF45:
		p.lyc = value
		p.updateLYC()
	case addr == 0xFF47:
		p.bgp = value
		p.debugDirty = true
	case addr == 0xFF48:
		p.obp0 = value
		p.debugDirty = true
	case addr == 0xFF49:
		p.obp1 = value
		p.debugDirty = true
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	}
}

// WriteOAM writes directly into OAM, bypassing the mode-2/3 CPU
// lockout. Used by the DMA transfer, which hardware allows to run
// regardless of PPU mode.
func (p *PPU) WriteOAM(index int, value byte) {
	p.oam[index] = value
	p.debugDirty = true
}

// Tick advances the PPU by cycles clock cycles (not m-cycles).
func (p *PPU) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	for i := 0; i < cycles; i++ {
		if (p.lcdc & 0x80) == 0 {
			p.ly = 0
			p.setMode(0)
			p.updateLYC()
			continue
		}

		p.dot++

		if p.ly < screenHeight {
			switch p.dot {
			case 80:
				p.setMode(3)
				p.renderScanline()
			case 252:
				p.setMode(0)
			}
		}

		if p.dot >= 456 {
			p.dot = 0
			p.ly++
			if p.ly == screenHeight {
				p.setMode(1)
				if p.req != nil {
					p.req(0)
				}
				if (p.stat & (1 << 4)) != 0 {
					if p.req != nil {
						p.req(1)
					}
				}
				p.windowLine = 0
			} else if p.ly > 153 {
				p.ly = 0
				p.windowLine = 0
				p.setMode(2)
			} else if p.ly > screenHeight {
				// still in VBlank
			} else {
				p.setMode(2)
			}
			p.updateLYC()
		}
	}
}

func (p *PPU) setMode(mode byte) {
	prev := p.stat & 0x03
	p.stat = (p.stat &^ 0x03) | (mode & 0x03)
	if prev == mode {
		return
	}
	switch mode {
	case 0: // HBlank
		if (p.stat & (1 << 3)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	case 2: // OAM scan
		if (p.stat & (1 << 5)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	}
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
		if (p.stat & (1 << 6)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	} else {
		p.stat &^= 1 << 2
	}
}

// Framebuffer returns the current 160x144 RGBA8 visible framebuffer,
// row-major, top-left origin. The returned slice aliases internal
// state and must not be retained past the next Tick.
func (p *PPU) Framebuffer() []byte { return p.framebuffer[:] }

func (p *PPU) BGP() byte  { return p.bgp }
func (p *PPU) OBP0() byte { return p.obp0 }
func (p *PPU) OBP1() byte { return p.obp1 }
func (p *PPU) LCDC() byte { return p.lcdc }
func (p *PPU) SCY() byte  { return p.scy }
func (p *PPU) SCX() byte  { return p.scx }
func (p *PPU) WY() byte   { return p.wy }
func (p *PPU) WX() byte   { return p.wx }
func (p *PPU) LY() byte   { return p.ly }

// SeedBoot writes LY and STAT directly, bypassing the CPU-facing write
// side effects (scanline reset, write-mask). Only the post-boot
// snapshot uses this; every other write to these registers goes
// through CPUWrite.
func (p *PPU) SeedBoot(ly, stat byte) {
	p.ly = ly
	p.stat = stat
}
