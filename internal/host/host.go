// Package host implements the ebiten-backed window: texture upload
// from the core's framebuffer and keyboard polling into an
// input.Snapshot. It is the only piece of this repository that knows
// about window creation, GPU texture upload, or an event loop; the
// core itself never imports ebiten.
package host

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gbcore-project/gbcore/internal/input"
	"github.com/gbcore-project/gbcore/internal/machine"
)

// cyclesPerFrame is one 70224 T-cycle DMG frame expressed in m-cycles.
const cyclesPerFrame = 70224 / 4

// App is an ebiten.Game that drives a Machine at the real DMG frame
// rate and presents its framebuffer in a window.
type App struct {
	cfg Config
	m   *machine.Machine
	tex *ebiten.Image

	paused bool
	fast   bool

	lastTime time.Time
	frameAcc float64

	toastMsg   string
	toastUntil time.Time
}

// NewApp wraps an already-configured Machine in a window.
func NewApp(cfg Config, m *machine.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)
	return &App{cfg: cfg, m: m, lastTime: time.Now()}
}

// Run hands control to ebiten's event loop until the window closes.
func (a *App) Run() error { return ebiten.RunGame(a) }

// stepFrame advances the machine by one 70224 T-cycle frame.
func (a *App) stepFrame() {
	acc := 0
	for acc < cyclesPerFrame {
		acc += a.m.Step()
	}
}

func (a *App) pollInput() input.Snapshot {
	var s input.Snapshot
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		s.Directional |= input.Right
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		s.Directional |= input.Left
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		s.Directional |= input.Up
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		s.Directional |= input.Down
	}
	if ebiten.IsKeyPressed(ebiten.KeyZ) {
		s.Action |= input.A
	}
	if ebiten.IsKeyPressed(ebiten.KeyX) {
		s.Action |= input.B
	}
	if ebiten.IsKeyPressed(ebiten.KeyEnter) {
		s.Action |= input.Start
	}
	if ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		s.Action |= input.Select
	}
	return s
}

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

// Update implements ebiten.Game: it polls input, handles the small set
// of host-level hotkeys, and paces emulation to the real DMG frame
// rate using a fractional-frame accumulator decoupled from ebiten's
// own ~60Hz tick.
func (a *App) Update() error {
	if !a.paused {
		a.m.SetInput(a.pollInput())
	} else {
		a.m.SetInput(input.Snapshot{})
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)
	if inpututil.IsKeyJustPressed(ebiten.KeyN) && a.paused {
		a.stepFrame()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if err := a.saveScreenshot(); err != nil {
			a.toast("screenshot failed: " + err.Error())
		} else {
			a.toast("screenshot saved")
		}
	}

	if a.paused {
		return nil
	}

	now := time.Now()
	dt := now.Sub(a.lastTime).Seconds()
	if dt < 0 {
		dt = 0
	}
	a.lastTime = now

	const dmgFPS = 4194304.0 / 70224.0 // ~59.7275
	speed := 1.0
	if a.fast {
		speed = 4.0
	}
	a.frameAcc += dt * dmgFPS * speed

	steps := 0
	for a.frameAcc >= 1.0 && steps < 10 { // cap to avoid a spiral of death after a stall
		a.stepFrame()
		a.frameAcc -= 1.0
		steps++
	}
	return nil
}

// Draw implements ebiten.Game: it uploads the core's framebuffer as a
// texture and blits it to the screen.
func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	a.tex.WritePixels(a.m.Framebuffer())
	screen.DrawImage(a.tex, nil)

	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.toastMsg, 4, 4)
	}
	if a.paused {
		ebitenutil.DebugPrintAt(screen, "paused", 4, 4)
	}
}

// Layout implements ebiten.Game: the internal resolution is fixed at
// the DMG's native 160x144, independent of the window's scale.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 160, 144 }

func (a *App) saveScreenshot() error {
	fb := a.m.Framebuffer()
	img := &image.RGBA{
		Pix:    append([]byte(nil), fb...),
		Stride: 4 * 160,
		Rect:   image.Rect(0, 0, 160, 144),
	}
	ts := time.Now().Format("20060102_150405")
	f, err := os.Create(fmt.Sprintf("screenshot_%s.png", ts))
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
