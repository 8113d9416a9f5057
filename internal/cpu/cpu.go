// Package cpu implements the SM83 instruction core: registers, flags, the
// full base and CB-prefixed opcode tables, interrupt dispatch, and the
// HALT/EI timing quirks a cycle-accurate core must reproduce.
package cpu

import "github.com/chromacore/dmgcore/internal/ic"

// Flag bits, packed into the top nibble of F; the bottom nibble is always zero.
const (
	FlagZ byte = 1 << 7
	FlagN byte = 1 << 6
	FlagH byte = 1 << 5
	FlagC byte = 1 << 4
)

// Bus is the memory/cycle interface the CPU drives. Read and Write must
// synchronously advance the rest of the machine by one M-cycle (timer,
// PPU, DMA) before returning, in that order; Tick advances the machine by
// one M-cycle with no address transaction, for the CPU's internal cycles.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
	Tick()
}

// Interrupts is the subset of ic.Controller the CPU needs to poll and
// acknowledge pending interrupts without ticking the bus to do it.
type Interrupts interface {
	HasPending() bool
	Take() (ic.Interrupt, bool)
}

// CPU holds the SM83 register file and drives one bus-ticking Step per call.
type CPU struct {
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16
	IR byte // most recently fetched opcode, exposed for tracing/disassembly

	IME      bool
	imeDelay bool // EI: IME is set as the *next* instruction begins, after its interrupt check
	halted   bool
	haltBug  bool // HALT+IME=0+pending: next fetch doesn't advance PC
	stopped  bool

	bus Bus
	ic  Interrupts
}

func New(bus Bus, interrupts Interrupts) *CPU {
	return &CPU{bus: bus, ic: interrupts}
}

// ResetDMG sets the post-boot-ROM register state for an original DMG with
// a header checksum of zero. Other models/checksums use different values;
// see internal/emu for the full table.
func (c *CPU) ResetDMG() {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP, c.PC = 0xFFFE, 0x0100
	c.IME, c.imeDelay, c.halted, c.haltBug, c.stopped = false, false, false, false, false
}

// ResetAt powers the CPU on with PC set to pc (0x0000 to run a boot ROM).
func (c *CPU) ResetAt(pc uint16) {
	c.PC = pc
	c.SP = 0xFFFE
	c.IME, c.imeDelay, c.halted, c.haltBug, c.stopped = false, false, false, false, false
}

func (c *CPU) Halted() bool  { return c.halted }
func (c *CPU) Stopped() bool { return c.stopped }

func (c *CPU) getAF() uint16  { return uint16(c.A)<<8 | uint16(c.F) }
func (c *CPU) setAF(v uint16) { c.A = byte(v >> 8); c.F = byte(v) & 0xF0 }
func (c *CPU) getBC() uint16  { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) setBC(v uint16) { c.B = byte(v >> 8); c.C = byte(v) }
func (c *CPU) getDE() uint16  { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) setDE(v uint16) { c.D = byte(v >> 8); c.E = byte(v) }
func (c *CPU) getHL() uint16  { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) setHL(v uint16) { c.H = byte(v >> 8); c.L = byte(v) }

func (c *CPU) flag(mask byte) bool { return c.F&mask != 0 }
func (c *CPU) setFlags(z, n, h, cy bool) {
	var f byte
	if z {
		f |= FlagZ
	}
	if n {
		f |= FlagN
	}
	if h {
		f |= FlagH
	}
	if cy {
		f |= FlagC
	}
	c.F = f
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) read16(addr uint16) uint16 {
	lo := c.bus.Read(addr)
	hi := c.bus.Read(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.bus.Write(addr, byte(v))
	c.bus.Write(addr+1, byte(v>>8))
}

// fetch8 reads the byte at PC. The HALT bug suppresses exactly one PC
// increment, which re-reads the following opcode byte as an operand.
func (c *CPU) fetch8() byte {
	v := c.bus.Read(c.PC)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.PC++
	}
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push16(v uint16) {
	c.SP--
	c.bus.Write(c.SP, byte(v>>8))
	c.SP--
	c.bus.Write(c.SP, byte(v))
}

func (c *CPU) pop16() uint16 {
	lo := c.bus.Read(c.SP)
	c.SP++
	hi := c.bus.Read(c.SP)
	c.SP++
	return uint16(hi)<<8 | uint16(lo)
}

// Step executes exactly one instruction (or one HALT-idle M-cycle, or one
// interrupt dispatch), ticking the bus for every cycle it consumes.
func (c *CPU) Step() {
	if c.ic.HasPending() {
		c.halted = false
		c.stopped = false
		if c.IME {
			c.dispatchInterrupt()
			return
		}
	}
	if c.halted {
		c.bus.Tick()
		return
	}
	if c.imeDelay {
		c.IME = true
		c.imeDelay = false
	}

	opcode := c.fetch8()
	c.IR = opcode
	if opcode == 0xCB {
		cb := c.fetch8()
		c.executeCB(cb)
		return
	}
	c.execute(opcode)
}

// dispatchInterrupt costs 5 M-cycles: two internal, two pushing PC, one
// loading the vector into PC.
func (c *CPU) dispatchInterrupt() {
	intr, ok := c.ic.Take()
	if !ok {
		return
	}
	c.bus.Tick()
	c.bus.Tick()
	c.push16(c.PC)
	c.IME = false
	c.bus.Tick()
	c.PC = intr.Vector()
}

// requestEI arms the delayed IME enable; IME becomes true once the
// instruction following EI has passed its interrupt check, so no interrupt
// is dispatched before that instruction has executed.
func (c *CPU) requestEI() { c.imeDelay = true }

type State struct {
	A, F, B, C, D, E, H, L byte
	SP, PC                 uint16
	IME, ImeDelay, Halted, HaltBug, Stopped bool
}

func (c *CPU) SaveState() State {
	return State{
		c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L,
		c.SP, c.PC,
		c.IME, c.imeDelay, c.halted, c.haltBug, c.stopped,
	}
}

func (c *CPU) LoadState(s State) {
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = s.A, s.F, s.B, s.C, s.D, s.E, s.H, s.L
	c.SP, c.PC = s.SP, s.PC
	c.IME, c.imeDelay, c.halted, c.haltBug, c.stopped = s.IME, s.ImeDelay, s.Halted, s.HaltBug, s.Stopped
}
