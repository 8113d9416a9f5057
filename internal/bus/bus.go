// Package bus implements the cycle-driven memory map: every CPU access
// ticks the timer, then the PPU, then OAM DMA, before the transaction
// itself is resolved, matching the single M-cycle contract internal/cpu
// expects of its Bus interface.
package bus

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/chromacore/dmgcore/internal/cart"
	"github.com/chromacore/dmgcore/internal/dma"
	"github.com/chromacore/dmgcore/internal/ic"
	"github.com/chromacore/dmgcore/internal/joypad"
	"github.com/chromacore/dmgcore/internal/ppu"
	"github.com/chromacore/dmgcore/internal/timer"
)

// Model mirrors ppu.Model so callers don't need to import internal/ppu
// just to construct a Bus.
type Model = ppu.Model

const (
	DMG = ppu.DMG
	CGB = ppu.CGB
)

// Bus wires the cartridge, work/high RAM, PPU, timer, DMA, joypad and
// interrupt controller behind the SM83's 16-bit address space.
type Bus struct {
	model Model

	cart cart.Cartridge
	wram [0x2000]byte
	hram [0x7F]byte

	PPU *ppu.PPU
	IC  *ic.Controller
	Tmr *timer.Timer
	Joy *joypad.Joypad
	DMA *dma.DMA

	sb, sc byte
	serialWriter io.Writer

	bootROM     []byte
	bootEnabled bool

	tickCount int
}

// SetJoypadState replaces the held-button bitset (joypad.Right, .A, etc.)
// for the next JOYP read, raising the Joypad interrupt on a newly-pressed
// button within the currently selected half.
func (b *Bus) SetJoypadState(mask byte) { b.Joy.SetPressed(mask) }

// New constructs a Bus around a parsed cartridge, ready to run once the
// CPU has been reset onto it.
func New(model Model, c cart.Cartridge) *Bus {
	icc := ic.New()
	b := &Bus{
		model: model,
		cart:  c,
		PPU:   ppu.New(model, icc),
		IC:    icc,
		Tmr:   timer.New(icc),
		Joy:   joypad.New(icc),
		DMA:   dma.New(),
	}
	return b
}

// SetSerialWriter directs completed SB bytes (SC bit7 internal-clock
// transfers complete immediately) to w; nil discards them.
func (b *Bus) SetSerialWriter(w io.Writer) { b.serialWriter = w }

// SetBootROM installs a boot ROM overlay for addresses 0x0000-0x00FF;
// writing any non-zero value to 0xFF50 unmounts it permanently. The CGB
// boot ROM's second region (0x0200-0x08FF) is not mapped — only its
// first 256 bytes are overlaid, matching the DMG boot sequence the CPU
// power-on defaults already assume.
func (b *Bus) SetBootROM(rom []byte) {
	b.bootROM = rom
	b.bootEnabled = len(rom) > 0
}

func (b *Bus) SetStrictMemoryConflicts(on bool) { b.PPU.SetStrictMemoryConflicts(on) }

// --- cycle-driven access ---

// tick advances the timer, then the PPU by one M-cycle's worth of dots,
// then DMA by one byte, in that order; called once per Read/Write/Tick.
func (b *Bus) tick() {
	b.tickCount++
	b.Tmr.Tick()
	dots := 4
	if b.model == CGB {
		dots = 2
	}
	b.PPU.Tick(dots)
	b.DMA.Tick(dmaReader{b}, dmaWriter{b})
}

// TickCount returns the number of M-cycles ticked since construction; used
// by internal/emu to measure how many cycles a CPU step consumed.
func (b *Bus) TickCount() int { return b.tickCount }

// Peek reads a byte without ticking and without the DMA lockout outside
// HRAM, for out-of-band use like disassembly. VRAM/OAM still read 0xFF
// where strict PPU conflicts or an active DMA block them.
func (b *Bus) Peek(addr uint16) byte { return b.read(addr) }

// Tick advances the machine by one M-cycle with no address transaction,
// for the CPU's internal-only cycles.
func (b *Bus) Tick() { b.tick() }

// Read performs one M-cycle's worth of side effects, then resolves addr.
// While OAM DMA is active, the CPU only sees HRAM; every other address
// reads back 0xFF, matching real hardware rather than the OAM-only block
// a simpler core would apply.
func (b *Bus) Read(addr uint16) byte {
	b.tick()
	if b.DMA.BlocksCPUOutsideHRAM(addr) {
		return 0xFF
	}
	return b.read(addr)
}

// Write performs one M-cycle's worth of side effects, then resolves addr.
// See Read for the DMA CPU-lockout this enforces.
func (b *Bus) Write(addr uint16, v byte) {
	b.tick()
	if b.DMA.BlocksCPUOutsideHRAM(addr) {
		return
	}
	b.write(addr, v)
}

// --- raw memory transactions, no further ticking ---

func (b *Bus) read(addr uint16) byte {
	switch {
	case b.bootEnabled && addr < 0x0100:
		return b.bootROM[addr]
	case addr < 0x8000:
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.PPU.ReadVRAM(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return b.wram[addr-0x2000-0xC000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.DMA.BlocksCPUOAM() {
			return 0xFF
		}
		return b.PPU.ReadOAM(addr)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return b.IC.ReadIE()
	default:
		return b.readIO(addr)
	}
}

func (b *Bus) write(addr uint16, v byte) {
	switch {
	case b.bootEnabled && addr < 0x0100:
		return // boot ROM is read-only CPU address space
	case addr < 0x8000:
		b.cart.Write(addr, v)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.PPU.WriteVRAM(addr, v)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, v)
	case addr >= 0xC000 && addr <= 0xDFFF:
		b.wram[addr-0xC000] = v
	case addr >= 0xE000 && addr <= 0xFDFF:
		b.wram[addr-0x2000-0xC000] = v
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.DMA.BlocksCPUOAM() {
			return
		}
		b.PPU.WriteOAM(addr, v)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = v
	case addr == 0xFFFF:
		b.IC.WriteIE(v)
	default:
		b.writeIO(addr, v)
	}
}

func (b *Bus) readIO(addr uint16) byte {
	switch {
	case addr == 0xFF00:
		return b.Joy.Read()
	case addr == 0xFF01:
		return b.sb
	case addr == 0xFF02:
		return 0x7E | (b.sc & 0x81)
	case addr == 0xFF04:
		return b.Tmr.ReadDIV()
	case addr == 0xFF05:
		return b.Tmr.ReadTIMA()
	case addr == 0xFF06:
		return b.Tmr.ReadTMA()
	case addr == 0xFF07:
		return b.Tmr.ReadTAC()
	case addr == 0xFF0F:
		return b.IC.ReadIF()
	case addr == 0xFF46:
		return b.DMA.Source()
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		return b.PPU.ReadReg(addr)
	case addr == 0xFF50:
		return 0xFF
	// Audio/APU registers (0xFF10-0xFF3F) are out of scope; read as open bus.
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return 0xFF
	default:
		return 0xFF
	}
}

func (b *Bus) writeIO(addr uint16, v byte) {
	switch {
	case addr == 0xFF00:
		b.Joy.Write(v)
	case addr == 0xFF01:
		b.sb = v
	case addr == 0xFF02:
		b.sc = v & 0x81
		if b.sc&0x80 != 0 {
			if b.serialWriter != nil {
				_, _ = b.serialWriter.Write([]byte{b.sb})
			}
			b.IC.Request(ic.Serial)
			b.sc &^= 0x80
		}
	case addr == 0xFF04:
		b.Tmr.WriteDIV()
	case addr == 0xFF05:
		b.Tmr.WriteTIMA(v)
	case addr == 0xFF06:
		b.Tmr.WriteTMA(v)
	case addr == 0xFF07:
		b.Tmr.WriteTAC(v)
	case addr == 0xFF0F:
		b.IC.WriteIF(v)
	case addr == 0xFF46:
		b.DMA.Start(v)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		b.PPU.WriteReg(addr, v)
	case addr == 0xFF50:
		if v != 0x00 {
			b.bootEnabled = false
		}
	case addr >= 0xFF10 && addr <= 0xFF3F:
		// Audio/APU out of scope; writes are accepted and dropped.
	default:
		// Unmapped IO: ignored.
	}
}

// dmaReader/dmaWriter adapt Bus to the dma package's narrow interfaces.
// DMA source reads must not re-enter tick() — they happen inside the
// bus's own per-M-cycle tick — so they go through the raw read path.
type dmaReader struct{ b *Bus }

func (r dmaReader) Read(addr uint16) byte { return r.b.read(addr) }

type dmaWriter struct{ b *Bus }

func (w dmaWriter) WriteOAM(index int, v byte) { w.b.PPU.WriteOAMRaw(index, v) }

// --- save states ---

type cartState struct {
	Data []byte
	RAM  []byte
}

type State struct {
	WRAM [0x2000]byte
	HRAM [0x7F]byte

	PPU ppu.State
	IC  ic.State
	Tmr timer.State
	Joy joypad.State
	DMA dma.State

	SB, SC      byte
	BootEnabled bool

	Cart cartState
}

// SaveState serializes the full machine (cartridge banking registers and
// battery RAM included, when the cartridge supports it) to a gob blob.
func (b *Bus) SaveState() ([]byte, error) {
	s := State{
		WRAM: b.wram, HRAM: b.hram,
		PPU: b.PPU.SaveState(), IC: b.IC.SaveState(), Tmr: b.Tmr.SaveState(),
		Joy: b.Joy.SaveState(), DMA: b.DMA.SaveState(),
		SB: b.sb, SC: b.sc, BootEnabled: b.bootEnabled,
	}
	s.Cart.Data = b.cart.SaveState()
	if bb, ok := b.cart.(cart.BatteryBacked); ok {
		s.Cart.RAM = bb.SaveRAM()
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&s); err != nil {
		return nil, fmt.Errorf("bus: encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadState restores a blob written by SaveState onto the current
// cartridge; the cartridge must already be loaded and of the same type.
func (b *Bus) LoadState(data []byte) error {
	var s State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("bus: decode state: %w", err)
	}
	b.wram, b.hram = s.WRAM, s.HRAM
	b.PPU.LoadState(s.PPU)
	b.IC.LoadState(s.IC)
	b.Tmr.LoadState(s.Tmr)
	b.Joy.LoadState(s.Joy)
	b.DMA.LoadState(s.DMA)
	b.sb, b.sc, b.bootEnabled = s.SB, s.SC, s.BootEnabled
	if len(s.Cart.Data) > 0 {
		b.cart.LoadState(s.Cart.Data)
	}
	if bb, ok := b.cart.(cart.BatteryBacked); ok && s.Cart.RAM != nil {
		bb.LoadRAM(s.Cart.RAM)
	}
	return nil
}

// Cart exposes the loaded cartridge, e.g. for battery-RAM persistence
// independent of a full save state.
func (b *Bus) Cart() cart.Cartridge { return b.cart }
