package ppu

type State struct {
	VRAM [0x2000]byte
	OAM  [0xA0]byte

	LCDC, STAT, SCY, SCX, LY, LYC byte
	BGP, OBP0, OBP1               byte
	WY, WX                        byte
	Dot                           int

	WindowEnabledLatch bool
	WindowLine         int
}

func (p *PPU) SaveState() State {
	s := State{
		LCDC: p.lcdc, STAT: p.stat, SCY: p.scy, SCX: p.scx, LY: p.ly, LYC: p.lyc,
		BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1, WY: p.wy, WX: p.wx, Dot: p.dot,
		WindowEnabledLatch: p.windowEnabledLatch, WindowLine: p.windowLine,
	}
	s.VRAM = p.vram
	s.OAM = p.oam
	return s
}

func (p *PPU) LoadState(s State) {
	p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc = s.LCDC, s.STAT, s.SCY, s.SCX, s.LY, s.LYC
	p.bgp, p.obp0, p.obp1, p.wy, p.wx = s.BGP, s.OBP0, s.OBP1, s.WY, s.WX
	p.dot = s.Dot
	p.windowEnabledLatch, p.windowLine = s.WindowEnabledLatch, s.WindowLine
	p.vram = s.VRAM
	p.oam = s.OAM
	if p.lcdOn() && p.mode() == modeDraw {
		p.startDrawing()
	}
}
