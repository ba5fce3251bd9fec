package ppu

// RefreshDebugLayers rebuilds the four off-screen debug layers (tile
// viewer, the two background tile maps, sprite viewer) from current
// VRAM/OAM contents. It is not called on every scanline: these layers
// exist for tooling and are only as fresh as the last call to this
// method.
func (p *PPU) RefreshDebugLayers() {
	if !p.debugDirty {
		return
	}
	p.debugDirty = false

	p.refreshTileViewer()
	p.refreshBGMap(0x9800, p.bgMap1[:])
	p.refreshBGMap(0x9C00, p.bgMap2[:])
	p.refreshSpriteViewer()
}

// TileViewer returns the 384 VRAM tiles laid out 16 tiles wide, each
// 8x8 RGBA, using the 0x8000 unsigned addressing mode.
func (p *PPU) TileViewer() []byte { return p.tileViewer[:] }

// BackgroundMap returns one of the two 256x256 RGBA tile-map layers
// (n=0 for 0x9800, n=1 for 0x9C00), resolved against the current
// LCDC bit-4 tile-data addressing mode.
func (p *PPU) BackgroundMap(n int) []byte {
	if n == 0 {
		return p.bgMap1[:]
	}
	return p.bgMap2[:]
}

// SpriteViewer returns all 40 OAM entries rendered into 8x16 RGBA
// slots, five slots per row (a 40x128 layer). Unused rows stay
// transparent black for 8-pixel-tall sprites.
func (p *PPU) SpriteViewer() []byte { return p.spriteViewer[:] }

const tileViewerWidth = 16 // tiles per row

func (p *PPU) refreshTileViewer() {
	for i := range p.tileViewer {
		p.tileViewer[i] = 0
	}
	for tile := 0; tile < 384; tile++ {
		tileX := (tile % tileViewerWidth) * 8
		tileY := (tile / tileViewerWidth) * 8
		base := uint16(0x8000 + tile*16)
		for row := 0; row < 8; row++ {
			lo := p.vram[base+uint16(row)*2-0x8000]
			hi := p.vram[base+uint16(row)*2+1-0x8000]
			for col := 0; col < 8; col++ {
				bit := 7 - byte(col)
				ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
				color := paletteLookup(p.bgp, ci)
				px := tileX + col
				py := tileY + row
				i := (py*tileViewerWidth*8 + px) * 4
				copy(p.tileViewer[i:i+4], dmgPalette[color][:])
			}
		}
	}
}

func (p *PPU) refreshBGMap(mapBase uint16, dst []byte) {
	tileData8000 := p.lcdc&0x10 != 0
	for mapY := 0; mapY < 32; mapY++ {
		for mapX := 0; mapX < 32; mapX++ {
			tileNum := p.vram[mapBase+uint16(mapY)*32+uint16(mapX)-0x8000]
			var tileBase uint16
			if tileData8000 {
				tileBase = 0x8000 + uint16(tileNum)*16
			} else {
				tileBase = uint16(int(0x9000) + int(int8(tileNum))*16)
			}
			for row := 0; row < 8; row++ {
				lo := p.vram[tileBase+uint16(row)*2-0x8000]
				hi := p.vram[tileBase+uint16(row)*2+1-0x8000]
				for col := 0; col < 8; col++ {
					bit := 7 - byte(col)
					ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
					color := paletteLookup(p.bgp, ci)
					px := mapX*8 + col
					py := mapY*8 + row
					i := (py*256 + px) * 4
					copy(dst[i:i+4], dmgPalette[color][:])
				}
			}
		}
	}
}

func (p *PPU) refreshSpriteViewer() {
	for i := range p.spriteViewer {
		p.spriteViewer[i] = 0
	}
	for slot := 0; slot < 40; slot++ {
		base := slot * 4
		tile := p.oam[base+2]
		flags := p.oam[base+3]
		palette := p.obp0
		if flags&0x10 != 0 {
			palette = p.obp1
		}
		tileBase := uint16(0x8000) + uint16(tile)*16
		originX := (slot % 5) * 8
		originY := (slot / 5) * 16
		height := 8
		if p.lcdc&0x04 != 0 {
			height = 16
		}
		for row := 0; row < height; row++ {
			if int(tile)*16+row*2+1 >= len(p.vram) {
				break
			}
			lo := p.vram[tileBase+uint16(row)*2-0x8000]
			hi := p.vram[tileBase+uint16(row)*2+1-0x8000]
			for col := 0; col < 8; col++ {
				bit := 7 - byte(col)
				ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
				color := paletteLookup(palette, ci)
				px := originX + col
				py := originY + row
				i := (py*(5*8) + px) * 4
				if i+4 <= len(p.spriteViewer) {
					copy(p.spriteViewer[i:i+4], dmgPalette[color][:])
				}
			}
		}
	}
}
