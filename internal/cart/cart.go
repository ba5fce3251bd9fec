// Package cart models the cartridge side of the memory map: a flat,
// unbanked 32 KiB ROM plus 8 KiB of external RAM. Bank switching (MBC1/
// MBC3/MBC5 and friends) is out of scope; this package only ever sees
// the ROM as one contiguous image.
package cart

const (
	romSize = 0x8000 // 0x0000-0x7FFF
	ramSize = 0x2000 // 0xA000-0xBFFF
)

// FlatROM is the cartridge side of the bus: the fixed 32 KiB ROM window
// and 8 KiB of external RAM, with no bank-select registers.
type FlatROM struct {
	rom [romSize]byte
	ram [ramSize]byte
}

// New wraps rom (copied, truncated or zero-padded to 32 KiB) as a
// cartridge with zeroed external RAM.
func New(rom []byte) *FlatROM {
	c := &FlatROM{}
	copy(c.rom[:], rom)
	return c
}

// Read returns a byte from ROM (0x0000-0x7FFF) or external RAM
// (0xA000-0xBFFF). Any other address is a bus-layer bug.
func (c *FlatROM) Read(addr uint16) byte {
	switch {
	case addr < romSize:
		return c.rom[addr]
	case addr >= 0xA000 && addr < 0xA000+ramSize:
		return c.ram[addr-0xA000]
	default:
		return 0xFF
	}
}

// Write accepts writes into the ROM array itself (there is no MBC to
// intercept them) and into external RAM. This is what lets the bus use
// an ordinary Write to install a ROM image at boot, per the memory
// model's "install ROM" convenience; it also means guest writes below
// 0x8000 are visible on the next Read, whereas real no-MBC hardware
// silently ignores them.
func (c *FlatROM) Write(addr uint16, value byte) {
	switch {
	case addr < romSize:
		c.rom[addr] = value
	case addr >= 0xA000 && addr < 0xA000+ramSize:
		c.ram[addr-0xA000] = value
	}
}
