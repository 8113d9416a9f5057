package emu

import (
	"testing"

	"github.com/chromacore/dmgcore/internal/debug"
)

// buildROM returns a minimal 32KB ROM-only image with the given header
// checksum byte; NewCartridge/ParseHeader don't validate the logo or the
// checksum, so both can stay arbitrary for everything but the checksum.
func buildROM(title string, checksum byte) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x0134:0x0144], title)
	rom[0x0147] = 0x00 // ROM ONLY
	rom[0x0148] = 0x00 // 32KB, 2 banks
	rom[0x0149] = 0x00 // no RAM
	rom[0x014D] = checksum
	return rom
}

func TestLoadROMDMGChecksumZeroReset(t *testing.T) {
	g := New(Config{Model: DMG})
	if err := g.LoadROM(buildROM("TEST", 0x00)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	s := g.cpu.SaveState()
	if s.A != 0x01 || s.F != 0xB0 || s.PC != 0x0100 {
		t.Fatalf("got A=%02X F=%02X PC=%04X, want A=01 F=B0 PC=0100", s.A, s.F, s.PC)
	}
}

func TestLoadROMDMGChecksumNonzeroReset(t *testing.T) {
	g := New(Config{Model: DMG})
	if err := g.LoadROM(buildROM("TEST", 0x01)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	s := g.cpu.SaveState()
	if s.F != 0x80 {
		t.Fatalf("got F=%02X, want 80 (Z only)", s.F)
	}
}

func TestLoadROMCGBReset(t *testing.T) {
	g := New(Config{Model: CGB})
	if err := g.LoadROM(buildROM("TEST", 0x00)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	s := g.cpu.SaveState()
	if s.A != 0x11 || s.D != 0xFF || s.E != 0x56 {
		t.Fatalf("got A=%02X D=%02X E=%02X, want A=11 D=FF E=56", s.A, s.D, s.E)
	}
}

func TestStepAdvancesCycleCount(t *testing.T) {
	g := New(Config{Model: DMG})
	if err := g.LoadROM(buildROM("TEST", 0x00)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	n := g.Step()
	if n <= 0 {
		t.Fatalf("Step returned %d M-cycles, want > 0", n)
	}
	if g.TotalCycles() != uint64(n) {
		t.Fatalf("TotalCycles = %d, want %d", g.TotalCycles(), n)
	}
}

func TestRunFrameProducesFramebuffer(t *testing.T) {
	g := New(Config{Model: DMG})
	if err := g.LoadROM(buildROM("TEST", 0x00)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	g.RunFrame()
	fb := g.Framebuffer()
	if len(fb) != 160*144*4 {
		t.Fatalf("framebuffer length = %d, want %d", len(fb), 160*144*4)
	}
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	g := New(Config{Model: DMG})
	if err := g.LoadROM(buildROM("TEST", 0x00)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	g.RunCycles(1000)
	data, err := g.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	g2 := New(Config{Model: DMG})
	if err := g2.LoadROM(buildROM("TEST", 0x00)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	if err := g2.LoadState(data); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if g2.TotalCycles() != g.TotalCycles() {
		t.Fatalf("cycles after restore = %d, want %d", g2.TotalCycles(), g.TotalCycles())
	}
	if g2.cpu.SaveState() != g.cpu.SaveState() {
		t.Fatalf("CPU state mismatch after restore")
	}
}

func TestRunCyclesIsAdditive(t *testing.T) {
	g1 := New(Config{Model: DMG})
	if err := g1.LoadROM(buildROM("TEST", 0x00)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	g1.RunCycles(50)
	g1.RunCycles(70)

	g2 := New(Config{Model: DMG})
	if err := g2.LoadROM(buildROM("TEST", 0x00)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	g2.RunCycles(120)

	if g1.TotalCycles() != g2.TotalCycles() {
		t.Fatalf("run_cycles(50)+run_cycles(70) reached %d cycles, run_cycles(120) reached %d",
			g1.TotalCycles(), g2.TotalCycles())
	}
	if g1.cpu.SaveState() != g2.cpu.SaveState() {
		t.Fatalf("CPU state diverged between split and combined RunCycles calls")
	}
}

func TestSoftResetMatchesFreshConstruction(t *testing.T) {
	g := New(Config{Model: DMG})
	if err := g.LoadROM(buildROM("TEST", 0x00)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	g.RunCycles(500)
	g.SoftReset()

	fresh := New(Config{Model: DMG})
	if err := fresh.LoadROM(buildROM("TEST", 0x00)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}

	if g.cpu.SaveState() != fresh.cpu.SaveState() {
		t.Fatalf("SoftReset CPU state diverged from a fresh GameBoy with the same cartridge")
	}
	if g.TotalCycles() != fresh.TotalCycles() {
		t.Fatalf("SoftReset cycle counter = %d, want 0 (fresh = %d)", g.TotalCycles(), fresh.TotalCycles())
	}
}

func TestObserverTicksEveryStep(t *testing.T) {
	g := New(Config{Model: DMG})
	if err := g.LoadROM(buildROM("TEST", 0x00)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	obs := debug.NewObserver()
	g.SetObserver(obs)

	for i := 0; i < 5; i++ {
		g.Step()
	}
	if obs.InstructionCount() != 5 {
		t.Fatalf("InstructionCount = %d, want 5", obs.InstructionCount())
	}
}

func TestAutoPaletteAssignsKnownTitleWithoutError(t *testing.T) {
	g := New(Config{Model: DMG, AutoPalette: true})
	if err := g.LoadROM(buildROM("TETRIS", 0x00)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	g.RunFrame()
	if len(g.Framebuffer()) != 160*144*4 {
		t.Fatalf("unexpected framebuffer size after auto-palette assignment")
	}
}
