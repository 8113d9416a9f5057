package ui

import (
	"fmt"

	"github.com/chromacore/dmgcore/internal/emu"
	"github.com/hajimehoshi/ebiten/v2"
)

// App drives one GameBoy inside an ebiten window: every Update samples
// the keyboard into the joypad and runs one frame's worth of M-cycles;
// every Draw blits the core's framebuffer onto the screen.
type App struct {
	cfg Config
	gb  *emu.GameBoy
	tex *ebiten.Image
}

// NewApp wires cfg's window settings onto gb and returns a ready-to-run App.
func NewApp(cfg Config, gb *emu.GameBoy) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)
	return &App{cfg: cfg, gb: gb, tex: ebiten.NewImage(160, 144)}
}

// Run starts the ebiten event loop; it blocks until the window is closed.
func (a *App) Run() error {
	return ebiten.RunGame(a)
}

var keymap = []struct {
	key  ebiten.Key
	set  func(*emu.Buttons)
}{
	{ebiten.KeyZ, func(b *emu.Buttons) { b.A = true }},
	{ebiten.KeyX, func(b *emu.Buttons) { b.B = true }},
	{ebiten.KeyBackspace, func(b *emu.Buttons) { b.Select = true }},
	{ebiten.KeyEnter, func(b *emu.Buttons) { b.Start = true }},
	{ebiten.KeyArrowUp, func(b *emu.Buttons) { b.Up = true }},
	{ebiten.KeyArrowDown, func(b *emu.Buttons) { b.Down = true }},
	{ebiten.KeyArrowLeft, func(b *emu.Buttons) { b.Left = true }},
	{ebiten.KeyArrowRight, func(b *emu.Buttons) { b.Right = true }},
}

func (a *App) pollButtons() emu.Buttons {
	var b emu.Buttons
	for _, k := range keymap {
		if ebiten.IsKeyPressed(k.key) {
			k.set(&b)
		}
	}
	return b
}

// Update samples input and advances the machine by exactly one frame.
func (a *App) Update() error {
	a.gb.SetJoypadState(a.pollButtons())
	a.gb.RunFrame()
	return nil
}

// Draw blits the core's current framebuffer, scaled to the window.
func (a *App) Draw(screen *ebiten.Image) {
	a.tex.WritePixels(a.gb.Framebuffer())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(a.cfg.Scale), float64(a.cfg.Scale))
	screen.DrawImage(a.tex, op)
}

// Layout reports the window's logical drawing size.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return 160 * a.cfg.Scale, 144 * a.cfg.Scale
}

// Title returns a display string combining the window title and the
// loaded cartridge's name, for use in window-title updates.
func (a *App) Title() string {
	if h := a.gb.Header(); h != nil && h.Title != "" {
		return fmt.Sprintf("%s - %s", a.cfg.Title, h.Title)
	}
	return a.cfg.Title
}
