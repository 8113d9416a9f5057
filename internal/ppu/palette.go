package ppu

// defaultPalette holds the classic DMG green tint for the four 2-bit
// shades (0=lightest..3=darkest). Hosts may override it via SetPalette.
var defaultPalette = [4][3]byte{
	{0x9B, 0xBC, 0x0F},
	{0x8B, 0xAC, 0x0F},
	{0x30, 0x62, 0x30},
	{0x0F, 0x38, 0x0F},
}

func (p *PPU) shadeRGB(shade byte) (r, g, b byte) {
	c := p.palette[shade&0x03]
	return c[0], c[1], c[2]
}

// SetPalette overrides the four shade colors used when rendering.
func (p *PPU) SetPalette(colors [4][3]byte) { p.palette = colors }
