// Command gbemu runs a cartridge either in a windowed ebiten frontend or
// headlessly, writing a PNG of the final frame and/or asserting its CRC32.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chromacore/dmgcore/internal/debug"
	"github.com/chromacore/dmgcore/internal/emu"
	"github.com/chromacore/dmgcore/internal/ui"
)

type cliFlags struct {
	romPath  string
	bootPath string
	scale    int
	title    string
	trace    bool
	saveRAM  bool
	cgb      bool
	strict   bool

	headless  bool
	frames    int
	pngOut    string
	expect    string
	breakAddr string

	configPath string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.romPath, "rom", "", "path to ROM (.gb/.gbc)")
	flag.StringVar(&f.bootPath, "bootrom", "", "optional boot ROM")
	flag.IntVar(&f.scale, "scale", 3, "window scale")
	flag.StringVar(&f.title, "title", "dmgcore", "window title")
	flag.BoolVar(&f.trace, "trace", false, "CPU trace log")
	flag.BoolVar(&f.saveRAM, "save", true, "persist battery RAM to ROM.sav")
	flag.BoolVar(&f.cgb, "cgb", false, "power on as Game Boy Color")
	flag.BoolVar(&f.strict, "strict-conflicts", false, "enforce VRAM/OAM CPU access conflicts")

	flag.BoolVar(&f.headless, "headless", false, "run without a window")
	flag.IntVar(&f.frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.pngOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.StringVar(&f.breakAddr, "break", "", "headless: single-step and stop at this PC (hex, e.g. 0x0150) instead of running frames")

	flag.StringVar(&f.configPath, "config", defaultConfigPath(), "path to TOML settings file")
	flag.Parse()
	return f
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "dmgcore.toml"
	}
	return filepath.Join(dir, "dmgcore", "config.toml")
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

func runHeadless(gb *emu.GameBoy, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}
	start := time.Now()
	for i := 0; i < frames; i++ {
		gb.RunFrame()
	}
	dur := time.Since(start)

	fb := gb.Framebuffer()
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

// runUntilBreak single-steps gb through an attached debug.Observer until its
// one armed breakpoint fires or maxSteps is exhausted, then reports the hit
// count and total instructions observed.
func runUntilBreak(gb *emu.GameBoy, breakAddr uint16, maxSteps int) {
	obs := debug.NewObserver()
	obs.SetBreakpoint(breakAddr)
	gb.SetObserver(obs)
	defer gb.SetObserver(nil)

	for i := 0; i < maxSteps; i++ {
		if obs.ShouldBreak(gb.PC()) {
			bp := obs.Breakpoints()[0]
			log.Printf("breakpoint hit: PC=%#04x after %d instructions (hit #%d)",
				bp.Addr, obs.InstructionCount(), bp.HitCount)
			return
		}
		gb.Step()
	}
	log.Printf("breakpoint %#04x not reached within %d instructions (ran %d)",
		breakAddr, maxSteps, obs.InstructionCount())
}

func saveFramePNG(pix []byte, w, h int, path string) error {
	img := &image.RGBA{Pix: append([]byte(nil), pix...), Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func main() {
	f := parseFlags()
	cfg, err := ui.LoadConfig(f.configPath)
	if err != nil {
		log.Printf("load config %s: %v (using defaults)", f.configPath, err)
	}
	if f.title != "dmgcore" {
		cfg.Title = f.title
	}
	if f.scale != 3 {
		cfg.Scale = f.scale
	}
	cfg.Trace = cfg.Trace || f.trace

	if f.romPath == "" {
		log.Fatal("-rom is required")
	}
	rom := mustRead(f.romPath)
	boot := mustRead(f.bootPath)

	model := emu.DMG
	if f.cgb {
		model = emu.CGB
	}
	gb := emu.New(emu.Config{
		Model:                 model,
		Trace:                 cfg.Trace,
		StrictMemoryConflicts: f.strict,
		BootROM:               boot,
		AutoPalette:           cfg.AutoPalette,
	})
	if cfg.Trace {
		gb.SetTraceWriter(os.Stderr)
	}
	if err := gb.LoadROM(rom); err != nil {
		log.Fatalf("load rom: %v", err)
	}
	if h := gb.Header(); h != nil {
		log.Printf("ROM: %q type=%#02x banks=%d ram=%dB", h.Title, h.CartType, h.ROMBanks, h.RAMSizeBytes)
	}

	savPath := strings.TrimSuffix(f.romPath, filepath.Ext(f.romPath)) + ".sav"
	if f.saveRAM {
		if data, err := os.ReadFile(savPath); err == nil {
			gb.LoadBattery(data)
			log.Printf("loaded save RAM: %s (%d bytes)", savPath, len(data))
		}
	}

	if f.headless {
		if f.breakAddr != "" {
			addr, err := strconv.ParseUint(strings.TrimPrefix(f.breakAddr, "0x"), 16, 16)
			if err != nil {
				log.Fatalf("invalid -break address %q: %v", f.breakAddr, err)
			}
			runUntilBreak(gb, uint16(addr), f.frames*int(emu.CyclesPerFrameDMG))
		} else if err := runHeadless(gb, f.frames, f.pngOut, f.expect); err != nil {
			log.Fatal(err)
		}
	} else {
		app := ui.NewApp(cfg, gb)
		if err := app.Run(); err != nil {
			log.Fatal(err)
		}
		if err := ui.SaveConfig(f.configPath, cfg); err != nil {
			log.Printf("save config: %v", err)
		}
	}

	if f.saveRAM {
		if data := gb.SaveBattery(); data != nil {
			if err := os.WriteFile(savPath, data, 0o644); err != nil {
				log.Printf("write %s: %v", savPath, err)
			} else {
				log.Printf("wrote %s", savPath)
			}
		}
	}
}
