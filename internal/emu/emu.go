// Package emu assembles the cycle-driven core (internal/cpu, internal/bus,
// internal/ppu and their sub-systems) into a single GameBoy façade: load a
// ROM, step it, read back the framebuffer, save and restore its state.
package emu

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/chromacore/dmgcore/internal/bus"
	"github.com/chromacore/dmgcore/internal/cart"
	"github.com/chromacore/dmgcore/internal/cpu"
	"github.com/chromacore/dmgcore/internal/debug"
	"github.com/chromacore/dmgcore/internal/ppu"
)

// Model selects which hardware defaults GameBoy.SoftReset applies.
type Model int

const (
	DMG Model = iota
	CGB
)

// CyclesPerFrame is the per-model M-cycle target a full frame advances by;
// RunFrame loops Step until at least this many cycles have elapsed,
// carrying over any overshoot into the next call.
const (
	CyclesPerFrameDMG = 17556
	CyclesPerFrameCGB = 35112
)

// Buttons is the joypad state for a single input sample.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

func (b Buttons) mask() byte {
	var m byte
	set := func(pressed bool, bit byte) {
		if pressed {
			m |= bit
		}
	}
	set(b.Right, 1<<0)
	set(b.Left, 1<<1)
	set(b.Up, 1<<2)
	set(b.Down, 1<<3)
	set(b.A, 1<<4)
	set(b.B, 1<<5)
	set(b.Select, 1<<6)
	set(b.Start, 1<<7)
	return m
}

// GameBoy is the top-level emulated machine: one cartridge, one CPU, one
// bus, stepped strictly by M-cycle.
type GameBoy struct {
	cfg Config

	cpu *cpu.CPU
	bus *bus.Bus

	header  *cart.Header
	romData []byte

	serialWriter io.Writer

	cycles      uint64
	frameCarry  int
	traceWriter io.Writer
	observer    *debug.Observer
}

// New constructs a GameBoy with no cartridge loaded; call LoadROM before
// stepping it.
func New(cfg Config) *GameBoy {
	return &GameBoy{cfg: cfg}
}

// LoadROM parses rom, constructs the matching MBC, wires a fresh bus and
// CPU around it, and performs the model-appropriate power-on reset.
func (g *GameBoy) LoadROM(rom []byte) error {
	c, err := cart.NewCartridge(rom)
	if err != nil {
		return fmt.Errorf("emu: load rom: %w", err)
	}
	h, err := cart.ParseHeader(rom)
	if err != nil {
		return fmt.Errorf("emu: load rom: %w", err)
	}
	g.header = h
	g.romData = rom

	g.attachBus(c)
	g.cycles = 0
	g.frameCarry = 0
	g.powerOn()
	return nil
}

// attachBus builds a fresh bus (VRAM/OAM/WRAM/HRAM all zero-valued, DMA/timer
// idle, IC cleared) and CPU wired to cartridge c, replacing whatever was
// previously wired. It does not touch g.cycles/g.frameCarry or apply the
// power-on register state; callers do that afterwards.
func (g *GameBoy) attachBus(c cart.Cartridge) {
	model := ppu.DMG
	if g.cfg.Model == CGB {
		model = ppu.CGB
	}
	b := bus.New(model, c)
	b.SetStrictMemoryConflicts(g.cfg.StrictMemoryConflicts)
	if len(g.cfg.BootROM) > 0 {
		b.SetBootROM(g.cfg.BootROM)
	}
	if g.cfg.AutoPalette && g.header != nil {
		b.PPU.SetPalette(autoPaletteFor(g.header))
	}
	if g.serialWriter != nil {
		b.SetSerialWriter(g.serialWriter)
	}
	g.bus = b
	g.cpu = cpu.New(b, b.IC)
}

// LoadROMFromFile reads path and calls LoadROM.
func (g *GameBoy) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("emu: read rom: %w", err)
	}
	return g.LoadROM(data)
}

// SoftReset reinitialises the CPU, DMA, interrupt controller, WRAM/HRAM,
// timer and PPU to their power-on state for the current model and header
// checksum, zeroing the cartridge's external RAM, and resets the total
// cycle counter to zero. The underlying ROM banks (and the loaded boot ROM,
// if any) are preserved. Running zero cycles after SoftReset leaves the
// emulator byte-identical to a fresh GameBoy constructed with the same
// Config and loaded with the same ROM image.
func (g *GameBoy) SoftReset() {
	if g.bus == nil {
		return
	}
	c, err := cart.NewCartridge(g.romData)
	if err != nil {
		// romData already passed NewCartridge once in LoadROM; this can only
		// fail if that invariant is violated by a caller bypassing LoadROM.
		return
	}
	g.attachBus(c)
	g.cycles = 0
	g.frameCarry = 0
	g.powerOn()
}

// powerOn applies the model/header-appropriate post-boot register state
// (or, with a boot ROM installed, starts the CPU executing it from 0x0000).
func (g *GameBoy) powerOn() {
	if len(g.cfg.BootROM) > 0 {
		g.cpu.ResetAt(0x0000)
		return
	}
	g.cpu.ResetAt(0x0100)
	switch {
	case g.cfg.Model == CGB:
		g.cpu.A, g.cpu.F = 0x11, 0x80
		g.cpu.B, g.cpu.C = 0x00, 0x00
		g.cpu.D, g.cpu.E = 0xFF, 0x56
		g.cpu.H, g.cpu.L = 0x00, 0x0D
	case g.header != nil && g.header.HeaderChecksum == 0:
		g.cpu.A, g.cpu.F = 0x01, 0xB0
		g.cpu.B, g.cpu.C = 0x00, 0x13
		g.cpu.D, g.cpu.E = 0x00, 0xD8
		g.cpu.H, g.cpu.L = 0x01, 0x4D
	default:
		g.cpu.A, g.cpu.F = 0x01, 0x80
		g.cpu.B, g.cpu.C = 0x00, 0x13
		g.cpu.D, g.cpu.E = 0x00, 0xD8
		g.cpu.H, g.cpu.L = 0x01, 0x4D
	}
}

// Step executes exactly one CPU instruction (or one idle M-cycle while
// halted), ticking the rest of the machine along with it, and
// returns the number of M-cycles it consumed.
func (g *GameBoy) Step() int {
	before := g.bus.TickCount()
	if g.cfg.Trace && g.traceWriter != nil {
		g.writeTraceLine()
	}
	if g.observer != nil {
		g.observer.Tick(g.cpu.PC, g.TraceLine())
	}
	g.cpu.Step()
	delta := g.bus.TickCount() - before
	g.cycles += uint64(delta)
	return delta
}

// RunCycles advances the machine until at least n M-cycles have elapsed,
// returning the actual number consumed (it overshoots by at most one
// instruction's length, never stopping mid-instruction).
func (g *GameBoy) RunCycles(n int) int {
	total := 0
	for total < n {
		total += g.Step()
	}
	return total
}

// RunFrame advances the machine by one frame's worth of M-cycles for the
// current model, carrying any overshoot into the next call so sustained
// play stays frame-accurate on average.
func (g *GameBoy) RunFrame() {
	target := CyclesPerFrameDMG
	if g.cfg.Model == CGB {
		target = CyclesPerFrameCGB
	}
	need := target - g.frameCarry
	done := g.RunCycles(need)
	g.frameCarry = done - need
}

// Framebuffer returns the most recently completed frame as RGBA8888,
// row-major, 160x144.
func (g *GameBoy) Framebuffer() []byte { return g.bus.PPU.Framebuffer() }

// TotalCycles returns the number of M-cycles executed since the last
// LoadROM or SoftReset.
func (g *GameBoy) TotalCycles() uint64 { return g.cycles }

// SetJoypadState updates which buttons are currently held.
func (g *GameBoy) SetJoypadState(b Buttons) { g.bus.SetJoypadState(b.mask()) }

// SetSerialWriter directs bytes written over the link port to w. The writer
// survives a SoftReset (it is reapplied to the rebuilt bus).
func (g *GameBoy) SetSerialWriter(w io.Writer) {
	g.serialWriter = w
	g.bus.SetSerialWriter(w)
}

// SetTraceWriter directs per-instruction trace lines to w when Config.Trace
// is set.
func (g *GameBoy) SetTraceWriter(w io.Writer) { g.traceWriter = w }

// SetObserver attaches a breakpoint/instruction-count observer that Step
// ticks once per instruction boundary, PC-first so breakpoints fire before
// the instruction at that address executes. A nil observer detaches it.
func (g *GameBoy) SetObserver(o *debug.Observer) { g.observer = o }

// Observer returns the currently attached observer, or nil.
func (g *GameBoy) Observer() *debug.Observer { return g.observer }

// Header returns the parsed cartridge header of the loaded ROM.
func (g *GameBoy) Header() *cart.Header { return g.header }

// PC returns the CPU's current program counter.
func (g *GameBoy) PC() uint16 { return g.cpu.PC }

// SetPC overrides the CPU's program counter, for harnesses that need to
// start execution somewhere other than the post-reset entry point.
func (g *GameBoy) SetPC(pc uint16) { g.cpu.PC = pc }

// TraceLine renders the same per-instruction snapshot format SetTraceWriter
// streams, for callers that want to collect or inspect trace lines
// themselves rather than redirect them to a writer.
func (g *GameBoy) TraceLine() string {
	mnem, _ := cpu.Disassemble(tracePeeker{g.bus}, g.cpu.PC)
	snap := g.cpu.SaveState()
	return fmt.Sprintf(
		"PC=%04X OP=%02X cyc=%d A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X IME=%t IF=%02X IE=%02X  %s",
		snap.PC, g.bus.Peek(snap.PC), g.cycles,
		snap.A, snap.F, snap.B, snap.C, snap.D, snap.E, snap.H, snap.L, snap.SP,
		snap.IME, g.bus.IC.ReadIF(), g.bus.IC.ReadIE(), mnem)
}

// SaveState serializes the CPU and bus/peripheral state to a gob blob.
func (g *GameBoy) SaveState() ([]byte, error) {
	busData, err := g.bus.SaveState()
	if err != nil {
		return nil, err
	}
	s := snapshot{CPU: g.cpu.SaveState(), Bus: busData, Cycles: g.cycles, FrameCarry: g.frameCarry}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&s); err != nil {
		return nil, fmt.Errorf("emu: encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadState restores a blob written by SaveState onto the currently
// loaded cartridge.
func (g *GameBoy) LoadState(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("emu: decode state: %w", err)
	}
	if err := g.bus.LoadState(s.Bus); err != nil {
		return err
	}
	g.cpu.LoadState(s.CPU)
	g.cycles, g.frameCarry = s.Cycles, s.FrameCarry
	return nil
}

type snapshot struct {
	CPU        cpu.State
	Bus        []byte
	Cycles     uint64
	FrameCarry int
}

// SaveBattery returns the cartridge's external RAM for battery-backed
// cartridges, or nil if the loaded cartridge has none.
func (g *GameBoy) SaveBattery() []byte {
	if bb, ok := g.bus.Cart().(cart.BatteryBacked); ok {
		return bb.SaveRAM()
	}
	return nil
}

// LoadBattery restores external RAM saved by SaveBattery.
func (g *GameBoy) LoadBattery(data []byte) {
	if bb, ok := g.bus.Cart().(cart.BatteryBacked); ok {
		bb.LoadRAM(data)
	}
}

func (g *GameBoy) writeTraceLine() {
	fmt.Fprintln(g.traceWriter, g.TraceLine())
}

// tracePeeker adapts Bus to cpu.Peeker for disassembly, reading memory
// without the side effects a live Read/Write would trigger.
type tracePeeker struct{ b *bus.Bus }

func (p tracePeeker) Peek(addr uint16) byte { return p.b.Peek(addr) }
