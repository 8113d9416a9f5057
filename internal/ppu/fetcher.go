package ppu

// stepFetcher advances the mode-3 pixel pipeline by one dot: the window
// trigger check, sprite fetch-and-merge, the background/window fetcher, and
// the FIFO-to-framebuffer push, in that order.
func (p *PPU) stepFetcher() {
	p.tryTriggerWindow()

	if sprite := p.spriteAtFetchX(); sprite != nil && p.spriteFetch == nil {
		p.spriteFetch = sprite
		p.fetchSprite(*sprite)
	}

	p.stateTicks++
	switch p.state {
	case fetchTileID:
		if p.stateTicks == 2 {
			p.tileID = p.readTileID()
			p.state, p.stateTicks = fetchDataLow, 0
		}
	case fetchDataLow:
		if p.stateTicks == 2 {
			p.lo = p.readTileDataByte(p.tileID, false)
			p.state, p.stateTicks = fetchDataHigh, 0
		}
	case fetchDataHigh:
		if p.stateTicks == 2 {
			p.hi = p.readTileDataByte(p.tileID, true)
			p.state, p.stateTicks = fetchPush, 0
		}
	case fetchPush:
		if p.pushRow() {
			p.fetchX++
			p.state, p.stateTicks = fetchTileID, 0
		}
	}

	p.tryPopPixel()
}

func (p *PPU) tryTriggerWindow() {
	if p.fetchingWindow || !p.windowEnabledLatch || p.lcdc&0x20 == 0 {
		return
	}
	if int(p.wx)-7 > p.lx {
		return
	}
	p.fetchingWindow = true
	p.windowActiveOnLine = true
	p.fetchX = 0
	p.bgFIFO.Clear()
	p.state, p.stateTicks = fetchTileID, 0
}

func (p *PPU) readTileID() byte {
	var mapBase uint16
	var col, row uint16
	if p.fetchingWindow {
		if p.lcdc&0x40 != 0 {
			mapBase = 0x9C00
		} else {
			mapBase = 0x9800
		}
		col = uint16(p.fetchX) & 31
		row = (uint16(p.windowLine) >> 3) & 31
	} else {
		if p.lcdc&0x08 != 0 {
			mapBase = 0x9C00
		} else {
			mapBase = 0x9800
		}
		bgY := uint16(p.ly) + uint16(p.scy)
		col = ((uint16(p.scx) >> 3) + uint16(p.fetchX)) & 31
		row = (bgY >> 3) & 31
	}
	return p.vram[mapBase+row*32+col-0x8000]
}

func (p *PPU) fineY() byte {
	if p.fetchingWindow {
		return byte(p.windowLine) & 7
	}
	return byte((uint16(p.ly) + uint16(p.scy)) & 7)
}

func (p *PPU) readTileDataByte(tileID byte, high bool) byte {
	var base uint16
	if p.lcdc&0x10 != 0 {
		base = 0x8000 + uint16(tileID)*16
	} else {
		base = 0x9000 + uint16(int8(tileID))*16
	}
	addr := base + uint16(p.fineY())*2
	if high {
		addr++
	}
	return p.vram[addr-0x8000]
}

// pushRow pushes 8 decoded background/window pixels into the FIFO once it
// is empty; returns false (retry next dot) while it still holds pixels.
func (p *PPU) pushRow() bool {
	if p.bgFIFO.Len() > 0 {
		return false
	}
	for px := 0; px < 8; px++ {
		bit := 7 - byte(px)
		ci := ((p.hi>>bit)&1)<<1 | ((p.lo >> bit) & 1)
		p.bgFIFO.Push(pixel{color: ci, palette: 0})
	}
	return true
}

func (p *PPU) spriteAtFetchX() *spriteEntry {
	if p.lcdc&0x02 == 0 {
		return nil
	}
	for i := range p.sprites {
		if spriteScreenX(p.sprites[i].x) == p.lx {
			return &p.sprites[i]
		}
	}
	return nil
}

// spriteScreenX saturating-subtracts 8 from a sprite's OAM X so left-edge
// objects (X in 1..7) still trigger their fetch at LCD column 0 instead of
// being dropped by a negative, never-matching offset.
func spriteScreenX(x byte) int {
	if x >= 8 {
		return int(x) - 8
	}
	return 0
}

func (p *PPU) fetchSprite(s spriteEntry) {
	height := 8
	tile := s.tile
	if p.lcdc&0x04 != 0 {
		height = 16
		tile &^= 0x01
	}
	row := int(p.ly) - (int(s.y) - 16)
	if s.attr&0x40 != 0 { // Y flip
		row = height - 1 - row
	}
	base := 0x8000 + uint16(tile)*16 + uint16(row)*2
	lo := p.vram[base-0x8000]
	hi := p.vram[base+1-0x8000]

	// A sprite whose X is 1..7 hangs off the left edge of the screen; its
	// fetch triggers at LCD column 0 (see spriteScreenX), so its leftmost
	// 8-X columns are off-screen and must be clipped rather than merged.
	clip := 0
	if s.x < 8 {
		clip = 8 - int(s.x)
	}
	for px := clip; px < 8; px++ {
		bit := byte(px)
		if s.attr&0x20 == 0 { // no X flip: bit 7 is leftmost
			bit = 7 - byte(px)
		}
		ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
		pal := byte(0)
		if s.attr&0x10 != 0 {
			pal = 1
		}
		np := pixel{color: ci, palette: pal, bgPrio: s.attr&0x80 != 0, sprite: true}
		idx := px - clip
		if idx < p.sprFIFO.Len() {
			existing := p.sprFIFO.PeekMut(idx)
			if existing.color == 0 && ci != 0 {
				*existing = np
			}
		} else {
			p.sprFIFO.Push(np)
		}
	}
	// Remove the consumed sprite so it isn't fetched twice this scanline.
	for i := range p.sprites {
		if p.sprites[i].oamIndex == s.oamIndex && p.sprites[i].x == s.x {
			p.sprites = append(p.sprites[:i], p.sprites[i+1:]...)
			break
		}
	}
	p.spriteFetch = nil
}

func (p *PPU) tryPopPixel() {
	if p.bgFIFO.Len() == 0 {
		return
	}
	if p.discard > 0 {
		if _, ok := p.bgFIFO.Pop(); ok {
			p.discard--
		}
		if p.sprFIFO.Len() > 0 {
			p.sprFIFO.Pop()
		}
		return
	}
	bgPx, _ := p.bgFIFO.Pop()
	var sprPx pixel
	hasSprite := false
	if p.sprFIFO.Len() > 0 {
		sprPx, _ = p.sprFIFO.Pop()
		hasSprite = sprPx.color != 0
	}

	color := p.resolveColor(bgPx, sprPx, hasSprite)
	p.writePixel(p.lx, color)
	p.lx++
}

func (p *PPU) resolveColor(bg, spr pixel, hasSprite bool) byte {
	bgEnabled := p.lcdc&0x01 != 0 || p.model == CGB
	bgShade := byte(0)
	if bgEnabled {
		bgShade = applyPalette(p.bgp, bg.color)
	}
	if !hasSprite {
		return bgShade
	}
	if spr.bgPrio && bg.color != 0 && bgEnabled {
		return bgShade
	}
	pal := p.obp0
	if spr.palette == 1 {
		pal = p.obp1
	}
	return applyPalette(pal, spr.color)
}

func applyPalette(pal, colorIndex byte) byte {
	return (pal >> (colorIndex * 2)) & 0x03
}

func (p *PPU) writePixel(x int, shade byte) {
	y := int(p.ly)
	off := (y*160 + x) * 4
	r, g, b := p.shadeRGB(shade)
	p.framebuffer[off] = r
	p.framebuffer[off+1] = g
	p.framebuffer[off+2] = b
	p.framebuffer[off+3] = 0xFF
}
