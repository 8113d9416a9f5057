// Package ppu implements the dot-driven pixel-FIFO PPU: OAM scan, the
// background/window fetcher, sprite merging, and STAT/LYC interrupt edges.
package ppu

import "github.com/chromacore/dmgcore/internal/ic"

type Model int

const (
	DMG Model = iota
	CGB
)

const (
	modeHBlank = 0
	modeVBlank = 1
	modeOAM    = 2
	modeDraw   = 3
)

type spriteEntry struct {
	y, x, tile, attr byte
	oamIndex         byte
}

// fetchState steps through the background/window fetcher's pipeline:
// each of the first three states takes 2 dots, then Push retries every
// dot until the FIFO has room for a new tile row.
type fetchState int

const (
	fetchTileID fetchState = iota
	fetchDataLow
	fetchDataHigh
	fetchPush
)

type PPU struct {
	vram [0x2000]byte
	oam  [0xA0]byte

	lcdc, stat, scy, scx, ly, lyc byte
	bgp, obp0, obp1               byte
	wy, wx                        byte

	dot   int // 0..455 within the current line
	model Model
	ic    *ic.Controller

	strictConflicts bool

	statLine bool // previous STAT-interrupt OR'd line state, for edge detection

	// window state
	windowEnabledLatch bool // set once per frame when LY==WY while LCDC bit5 is on
	windowLine         int  // internal window line counter, increments after each line the window was drawn on
	windowActiveOnLine  bool

	// mode-3 working state
	sprites    []spriteEntry
	fetchX     int // tile-column fetcher is working on, resets each scanline
	lx         int // next pixel column to push to the framebuffer, 0..159
	discard    int // SCX%8 pixels still to discard at line start
	state      fetchState
	stateTicks int
	fetchingWindow bool
	tileID, lo, hi byte
	bgFIFO, sprFIFO fifo
	spriteFetch    *spriteEntry

	framebuffer [160 * 144 * 4]byte // RGBA8888, row-major
	palette     [4][3]byte
}

func New(model Model, controller *ic.Controller) *PPU {
	return &PPU{model: model, ic: controller, lcdc: 0x91, bgp: 0xFC, stat: 0x85, palette: defaultPalette}
}

func (p *PPU) lcdOn() bool { return p.lcdc&0x80 != 0 }
func (p *PPU) mode() byte  { return p.stat & 0x03 }

func (p *PPU) setMode(m byte) {
	p.stat = (p.stat &^ 0x03) | m
}

// Framebuffer returns the most recently completed frame as tightly packed
// RGBA8888, row-major, 160x144.
func (p *PPU) Framebuffer() []byte { return p.framebuffer[:] }

// --- CPU-facing register and memory access ---

func (p *PPU) ReadVRAM(addr uint16) byte {
	if p.strictConflicts && p.lcdOn() && p.mode() == modeDraw {
		return 0xFF
	}
	return p.vram[addr-0x8000]
}

func (p *PPU) WriteVRAM(addr uint16, v byte) {
	if p.strictConflicts && p.lcdOn() && p.mode() == modeDraw {
		return
	}
	p.vram[addr-0x8000] = v
}

func (p *PPU) ReadOAM(addr uint16) byte {
	if p.strictConflicts && p.lcdOn() && (p.mode() == modeOAM || p.mode() == modeDraw) {
		return 0xFF
	}
	return p.oam[addr-0xFE00]
}

func (p *PPU) WriteOAM(addr uint16, v byte) {
	if p.strictConflicts && p.lcdOn() && (p.mode() == modeOAM || p.mode() == modeDraw) {
		return
	}
	p.oam[addr-0xFE00] = v
}

// WriteOAMRaw is used by DMA, which is not subject to the CPU access conflict checks.
func (p *PPU) WriteOAMRaw(index int, v byte) { p.oam[index] = v }

func (p *PPU) SetStrictMemoryConflicts(on bool) { p.strictConflicts = on }

func (p *PPU) ReadReg(addr uint16) byte {
	switch addr {
	case 0xFF40:
		return p.lcdc
	case 0xFF41:
		return 0x80 | p.stat
	case 0xFF42:
		return p.scy
	case 0xFF43:
		return p.scx
	case 0xFF44:
		return p.ly
	case 0xFF45:
		return p.lyc
	case 0xFF47:
		return p.bgp
	case 0xFF48:
		return p.obp0
	case 0xFF49:
		return p.obp1
	case 0xFF4A:
		return p.wy
	case 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

func (p *PPU) WriteReg(addr uint16, v byte) {
	switch addr {
	case 0xFF40:
		prev := p.lcdc
		p.lcdc = v
		if prev&0x80 != 0 && v&0x80 == 0 {
			p.disableLCD()
		} else if prev&0x80 == 0 && v&0x80 != 0 {
			p.enableLCD()
		}
	case 0xFF41:
		p.stat = (p.stat & 0x07) | (v & 0x78)
	case 0xFF42:
		p.scy = v
	case 0xFF43:
		p.scx = v
	case 0xFF44:
		// LY is read-only on real hardware; writes are ignored.
	case 0xFF45:
		p.lyc = v
		p.updateLYC()
	case 0xFF47:
		p.bgp = v
	case 0xFF48:
		p.obp0 = v
	case 0xFF49:
		p.obp1 = v
	case 0xFF4A:
		p.wy = v
	case 0xFF4B:
		p.wx = v
	}
}

// disableLCD forces LY/dot/mode to their off-state; re-enabling restarts
// the frame at LY=0 in OAM scan, clearing the window's per-frame state.
func (p *PPU) disableLCD() {
	p.ly = 0
	p.dot = 0
	p.setMode(modeHBlank)
	p.updateLYC()
	p.windowEnabledLatch = false
	p.windowLine = 0
}

func (p *PPU) enableLCD() {
	p.ly = 0
	p.dot = 0
	p.startLine()
}

// --- timing ---

// Tick advances the PPU by n dots (T-cycles), called by the bus once per
// M-cycle with n = 4 on DMG or 2 in CGB double-speed mode.
func (p *PPU) Tick(n int) {
	if !p.lcdOn() {
		return
	}
	for i := 0; i < n; i++ {
		p.tickDot()
	}
}

func (p *PPU) tickDot() {
	p.dot++
	if p.lcdc&0x20 != 0 && p.ly == p.wy {
		p.windowEnabledLatch = true
	}

	switch p.mode() {
	case modeOAM:
		if p.dot == 1 {
			p.scanOAM()
		}
		if p.dot >= 80 {
			p.startDrawing()
		}
	case modeDraw:
		p.stepFetcher()
		if p.lx >= 160 {
			if p.windowActiveOnLine {
				p.windowLine++
			}
			p.setMode(modeHBlank)
			p.refreshSTATLine()
		}
	case modeHBlank, modeVBlank:
		// idle until line boundary
	}

	if p.dot >= 456 {
		p.dot = 0
		p.advanceLine()
	}
}

func (p *PPU) advanceLine() {
	p.ly++
	if p.ly == 144 {
		p.setMode(modeVBlank)
		p.ic.Request(ic.VBlank)
	} else if p.ly > 153 {
		p.ly = 0
		p.windowEnabledLatch = false
		p.windowLine = 0
	}
	p.updateLYC()
	if p.ly < 144 {
		p.startLine()
	}
	p.refreshSTATLine()
}

func (p *PPU) startLine() {
	p.setMode(modeOAM)
	p.sprites = p.sprites[:0]
	p.windowActiveOnLine = false
	if p.ly == p.wy && p.lcdc&0x20 != 0 {
		p.windowEnabledLatch = true
	}
}

func (p *PPU) startDrawing() {
	p.setMode(modeDraw)
	p.lx = 0
	p.fetchX = 0
	p.discard = int(p.scx) & 7
	p.state = fetchTileID
	p.stateTicks = 0
	p.fetchingWindow = false
	p.bgFIFO.Clear()
	p.sprFIFO.Clear()
	p.spriteFetch = nil
	p.refreshSTATLine()
}

// --- STAT/LYC interrupt edges ---

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
	} else {
		p.stat &^= 1 << 2
	}
}

// refreshSTATLine recomputes the OR of STAT's enabled sources and raises
// the LCD interrupt only on a 0->1 transition of that combined line.
func (p *PPU) refreshSTATLine() {
	line := false
	if p.stat&(1<<6) != 0 && p.stat&(1<<2) != 0 {
		line = true
	}
	switch p.mode() {
	case modeHBlank:
		if p.stat&(1<<3) != 0 {
			line = true
		}
	case modeVBlank:
		if p.stat&(1<<4) != 0 {
			line = true
		}
	case modeOAM:
		if p.stat&(1<<5) != 0 {
			line = true
		}
	}
	if line && !p.statLine {
		p.ic.Request(ic.LCD)
	}
	p.statLine = line
}

// --- OAM scan ---

func (p *PPU) scanOAM() {
	height := 8
	if p.lcdc&0x04 != 0 {
		height = 16
	}
	for i := 0; i < 40 && len(p.sprites) < 10; i++ {
		base := i * 4
		y := p.oam[base]
		if p.oam[base+1] == 0 {
			continue
		}
		row := int(p.ly) - (int(y) - 16)
		if row < 0 || row >= height {
			continue
		}
		p.sprites = append(p.sprites, spriteEntry{
			y: y, x: p.oam[base+1], tile: p.oam[base+2], attr: p.oam[base+3], oamIndex: byte(i),
		})
	}
}
