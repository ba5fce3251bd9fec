package cart

import "testing"

func TestFlatROM_ReadWrite(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0150] = 0xAB
	c := New(rom)

	if got := c.Read(0x0150); got != 0xAB {
		t.Fatalf("ROM read got %#02x want AB", got)
	}

	// Writes below 0x8000 land in the ROM array (no MBC to intercept them).
	c.Write(0x0010, 0x42)
	if got := c.Read(0x0010); got != 0x42 {
		t.Fatalf("ROM write-through got %#02x want 42", got)
	}
}

func TestFlatROM_ExternalRAM(t *testing.T) {
	c := New(make([]byte, 0x8000))

	if got := c.Read(0xA000); got != 0x00 {
		t.Fatalf("external RAM initial read got %#02x want 00", got)
	}
	c.Write(0xA123, 0x77)
	if got := c.Read(0xA123); got != 0x77 {
		t.Fatalf("external RAM read got %#02x want 77", got)
	}
	// Out of range external RAM address is ignored / reads high.
	if got := c.Read(0xC000); got != 0xFF {
		t.Fatalf("out-of-range read got %#02x want FF", got)
	}
}

func TestFlatROM_ShortImagePadded(t *testing.T) {
	c := New([]byte{0x11, 0x22})
	if got := c.Read(0x0000); got != 0x11 {
		t.Fatalf("short ROM byte 0 got %#02x want 11", got)
	}
	if got := c.Read(0x0002); got != 0x00 {
		t.Fatalf("short ROM padded byte got %#02x want 00", got)
	}
}
