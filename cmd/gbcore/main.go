// Command gbcore is the CLI entry point: it loads a ROM, applies the
// post-boot snapshot, and either runs headlessly (dumping a framebuffer
// checksum and/or PNG) or opens the windowed host.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gbcore-project/gbcore/internal/cart"
	"github.com/gbcore-project/gbcore/internal/host"
	"github.com/gbcore-project/gbcore/internal/machine"
)

type cliFlags struct {
	romPath string
	boot    string
	scale   int
	title   string
	trace   bool

	headless bool
	frames   int
	pngOut   string
	expect   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.romPath, "rom", "", "path to ROM (.gb)")
	flag.StringVar(&f.boot, "bootrom", "", "optional DMG boot ROM")
	flag.IntVar(&f.scale, "scale", 3, "window scale")
	flag.StringVar(&f.title, "title", "gbcore", "window title")
	flag.BoolVar(&f.trace, "trace", false, "unused placeholder for a future CPU trace log")

	flag.BoolVar(&f.headless, "headless", false, "run without a window")
	flag.IntVar(&f.frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.pngOut, "outpng", "", "write the last framebuffer to a PNG at this path")
	flag.StringVar(&f.expect, "expect", "", "assert the final framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

func mustRead(path string) []byte {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	return b
}

func runHeadless(m *machine.Machine, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}
	start := time.Now()
	for i := 0; i < frames; i++ {
		acc := 0
		for acc < 70224/4 {
			acc += m.Step()
		}
	}
	dur := time.Since(start)

	fb := m.Framebuffer()
	crc := crc32.ChecksumIEEE(fb)
	fps := float64(frames) / dur.Seconds()
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		frames, dur.Truncate(time.Millisecond), fps, crc)

	if pngPath != "" {
		if err := saveFramePNG(fb, 160, 144, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}

	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func saveFramePNG(pix []byte, w, h int, path string) error {
	img := &image.RGBA{
		Pix:    append([]byte(nil), pix...),
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func main() {
	f := parseFlags()
	rom := mustRead(f.romPath)
	boot := mustRead(f.boot)

	if len(rom) >= 0x150 {
		if h, err := cart.ParseHeader(rom); err == nil {
			log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
		}
	}

	m := machine.New(machine.Config{Trace: f.trace})
	m.InstallROM(rom)
	if len(boot) >= 0x100 {
		m.Bus().SetBootROM(boot)
		m.CPU().SetPC(0x0000)
	} else {
		m.ConfigureStartupValues()
	}

	if f.headless {
		if err := runHeadless(m, f.frames, f.pngOut, f.expect); err != nil {
			log.Fatal(err)
		}
		return
	}

	app := host.NewApp(host.Config{Title: f.title, Scale: f.scale}, m)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
