package ppu

// renderBackgroundLine renders 160 background pixels for scanline ly,
// fetching one tile row at a time and sliding a pixelQueue across the
// visible window. mapBase selects the tilemap (0x9800/0x9C00);
// unsigned8000 selects 0x8000 unsigned vs. 0x8800 signed tile data
// addressing; scx/scy are the scroll registers. Returns 160 raw
// (pre-palette) color indices.
func renderBackgroundLine(mem tileMemory, mapBase uint16, unsigned8000 bool, scx, scy, ly byte) [160]byte {
	var out [160]byte

	bgY := uint16(ly) + uint16(scy)
	row := byte(bgY & 7)
	mapRow := (bgY >> 3) & 31

	startX := uint16(scx)
	tileCol := (startX >> 3) & 31
	discard := int(startX & 7)

	var q pixelQueue
	rf := newRowFetcher(mem, &q)
	rf.Configure(unsigned8000, mapBase+mapRow*32+tileCol, row)
	rf.Fetch()
	for i := 0; i < discard; i++ {
		q.Pop()
	}

	for x := 0; x < 160; x++ {
		if q.Len() == 0 {
			tileCol = (tileCol + 1) & 31
			rf.Configure(unsigned8000, mapBase+mapRow*32+tileCol, row)
			rf.Fetch()
		}
		px, _ := q.Pop()
		out[x] = px
	}
	return out
}

// renderWindowLine renders the window layer for one scanline the same
// way renderBackgroundLine does, but starting at screen column wxStart
// (WX-7) and using winLine, the window's own internal line counter, in
// place of LY/SCY. Columns before wxStart are left at color index 0 so
// the caller can blend them with the background row.
func renderWindowLine(mem tileMemory, mapBase uint16, unsigned8000 bool, wxStart int, winLine byte) [160]byte {
	var out [160]byte
	if wxStart >= 160 {
		return out
	}
	if wxStart < 0 {
		wxStart = 0
	}

	mapRow := (uint16(winLine) >> 3) & 31
	row := winLine & 7
	tileCol := uint16(0)

	var q pixelQueue
	rf := newRowFetcher(mem, &q)
	rf.Configure(unsigned8000, mapBase+mapRow*32+tileCol, row)
	rf.Fetch()
	for x := wxStart; x < 160; x++ {
		if q.Len() == 0 {
			tileCol = (tileCol + 1) & 31
			rf.Configure(unsigned8000, mapBase+mapRow*32+tileCol, row)
			rf.Fetch()
		}
		px, _ := q.Pop()
		out[x] = px
	}
	return out
}

// Read implements tileMemory for the PPU itself: raw, CPU-lockout-free
// access used during rasterization (the PPU reads VRAM while mode 3
// would otherwise have the CPU locked out of it).
func (p *PPU) Read(addr uint16) byte {
	return p.vram[addr-0x8000]
}

// renderScanline rasterizes background, window, and sprites for the
// current LY into the visible framebuffer. Invoked once, on entry to
// mode 3, matching the scanline table's "on entry" rendering step.
func (p *PPU) renderScanline() {
	ly := p.ly

	bgMapBase := uint16(0x9800)
	if p.lcdc&0x08 != 0 {
		bgMapBase = 0x9C00
	}
	tileData8000 := p.lcdc&0x10 != 0

	var bg [160]byte
	if p.lcdc&0x01 != 0 {
		bg = renderBackgroundLine(p, bgMapBase, tileData8000, p.scx, p.scy, ly)
	}

	drewWindow := false
	if p.lcdc&0x20 != 0 && p.lcdc&0x01 != 0 && ly >= p.wy && p.wx <= 166 {
		winMapBase := uint16(0x9800)
		if p.lcdc&0x40 != 0 {
			winMapBase = 0x9C00
		}
		wxStart := int(p.wx) - 7
		win := renderWindowLine(p, winMapBase, tileData8000, wxStart, byte(p.windowLine))
		for x := wxStart; x < 160; x++ {
			if x < 0 {
				continue
			}
			bg[x] = win[x]
		}
		drewWindow = true
	}

	var bgColorID [160]byte
	for x := 0; x < 160; x++ {
		bgColorID[x] = bg[x]
		color := paletteLookup(p.bgp, bg[x])
		writePixel(p.framebuffer[:], x, int(ly), dmgPalette[color])
	}

	if p.lcdc&0x02 != 0 {
		p.renderSprites(ly, bgColorID)
	}

	if drewWindow {
		p.windowLine++
	}
}

type spriteEntry struct {
	y, x, tile, flags byte
}

// renderSprites draws visible sprites for scanline ly on top of the
// already-rasterized background/window row. bgColorID holds the
// background color-ID (0-3, pre-palette) for each of the 160 columns,
// needed for the background-priority rule.
func (p *PPU) renderSprites(ly byte, bgColorID [160]byte) {
	tall := p.lcdc&0x04 != 0
	height := byte(8)
	if tall {
		height = 16
	}

	var visible []spriteEntry
	for i := 0; i < 40 && len(visible) < 10; i++ {
		base := i * 4
		sy := p.oam[base]
		sx := p.oam[base+1]
		tile := p.oam[base+2]
		flags := p.oam[base+3]

		y := int(sy) - 16
		if int(ly) < y || int(ly) >= y+int(height) {
			continue
		}
		visible = append(visible, spriteEntry{y: sy, x: sx, tile: tile, flags: flags})
	}

	// Draw in reverse scan order so the lowest OAM index, which wins on
	// overlap, is painted last.
	for i := len(visible) - 1; i >= 0; i-- {
		s := visible[i]
		x := int(s.x) - 8
		y := int(s.y) - 16
		row := int(ly) - y
		if s.flags&0x40 != 0 { // Y flip
			row = int(height) - 1 - row
		}

		tile := s.tile
		if tall {
			tile &^= 0x01
		}
		tileRow := row
		if tall && row >= 8 {
			tile++
			tileRow -= 8
		}

		base := 0x8000 + uint16(tile)*16 + uint16(tileRow)*2
		lo := p.Read(base)
		hi := p.Read(base + 1)

		palette := p.obp0
		if s.flags&0x10 != 0 {
			palette = p.obp1
		}
		bgPriority := s.flags&0x80 != 0
		xFlip := s.flags&0x20 != 0

		for px := 0; px < 8; px++ {
			col := x + px
			if col < 0 || col >= 160 {
				continue
			}
			bit := 7 - byte(px)
			if xFlip {
				bit = byte(px)
			}
			ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
			if ci == 0 {
				continue // transparent, always skipped
			}
			if bgPriority && bgColorID[col] != 0 {
				continue // background wins when priority set and BG is non-zero
			}
			color := paletteLookup(palette, ci)
			writePixel(p.framebuffer[:], col, int(ly), dmgPalette[color])
		}
	}
}

func paletteLookup(palette, colorID byte) byte {
	return (palette >> (colorID * 2)) & 0x03
}

func writePixel(fb []byte, x, y int, rgba [4]byte) {
	i := (y*screenWidth + x) * 4
	fb[i+0] = rgba[0]
	fb[i+1] = rgba[1]
	fb[i+2] = rgba[2]
	fb[i+3] = rgba[3]
}
