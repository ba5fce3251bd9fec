package ppu

import "testing"

func setupSolidTile(p *PPU, tileNum byte, lo, hi byte) {
	base := uint16(0x8000) + uint16(tileNum)*16
	for row := 0; row < 8; row++ {
		p.vram[base+uint16(row)*2-0x8000] = lo
		p.vram[base+uint16(row)*2+1-0x8000] = hi
	}
}

func TestRenderScanline_WritesBackgroundPixels(t *testing.T) {
	p := New(nil)
	// Tile 0 all color-ID 3 (lo=hi=0xFF).
	setupSolidTile(p, 0, 0xFF, 0xFF)
	p.vram[0x9800-0x8000] = 0 // map entry 0 -> tile 0
	p.CPUWrite(0xFF47, 0xE4)  // identity BG palette
	p.CPUWrite(0xFF40, 0x91)  // LCD on, BG on, tile data 0x8000

	p.renderScanline()

	want := dmgPalette[3]
	got := p.framebuffer[0:4]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pixel 0 byte %d got %#02x want %#02x", i, got[i], want[i])
		}
	}
}

func TestRenderSprites_TransparentPixelSkipped(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF40, 0x91|0x02) // LCD+BG+sprites on
	p.CPUWrite(0xFF48, 0xE4)      // OBP0 identity

	// color-ID 0 everywhere (transparent): lo=hi=0 -> should never draw.
	setupSolidTile(p, 0, 0x00, 0x00)
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 8, 0, 0 // sprite at screen (0,0)

	before := make([]byte, 4)
	copy(before, p.framebuffer[0:4])

	var bgColorID [160]byte
	p.renderSprites(0, bgColorID)

	after := p.framebuffer[0:4]
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("transparent sprite pixel modified framebuffer at byte %d", i)
		}
	}
}

func TestRenderSprites_PriorityBehindNonZeroBackground(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF40, 0x91|0x02)
	p.CPUWrite(0xFF48, 0xE4)

	setupSolidTile(p, 0, 0xFF, 0x00) // color-ID 1 throughout
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 8, 0, 0x80 // priority bit set

	var bgColorID [160]byte
	bgColorID[0] = 1 // non-zero background: sprite should be hidden
	writePixel(p.framebuffer[:], 0, 0, dmgPalette[2])

	p.renderSprites(0, bgColorID)

	got := p.framebuffer[0:4]
	want := dmgPalette[2]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected background to remain visible under priority sprite, byte %d got %#02x want %#02x", i, got[i], want[i])
		}
	}
}

func TestRenderSprites_PriorityOverZeroBackgroundStillDraws(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF40, 0x91|0x02)
	p.CPUWrite(0xFF48, 0xE4)

	setupSolidTile(p, 0, 0xFF, 0x00) // color-ID 1
	p.oam[0], p.oam[1], p.oam[2], p.oam[3] = 16, 8, 0, 0x80 // priority bit set

	var bgColorID [160]byte // background color-ID 0 everywhere

	p.renderSprites(0, bgColorID)

	got := p.framebuffer[0:4]
	want := dmgPalette[1]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sprite over zero background byte %d got %#02x want %#02x", i, got[i], want[i])
		}
	}
}

func TestRefreshDebugLayers_PopulatesTileViewer(t *testing.T) {
	p := New(nil)
	setupSolidTile(p, 0, 0xFF, 0xFF)
	p.CPUWrite(0xFF47, 0xE4)
	p.RefreshDebugLayers()

	want := dmgPalette[3]
	got := p.TileViewer()[0:4]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tile viewer byte %d got %#02x want %#02x", i, got[i], want[i])
		}
	}
}
