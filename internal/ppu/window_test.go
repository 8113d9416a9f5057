package ppu

import "testing"

func TestWindowLatchesOnWYMatchAndIncrementsPerLine(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteReg(0xFF40, 0x91|0x20) // enable window
	p.WriteReg(0xFF4A, 0)         // WY=0: matches LY=0 immediately
	p.WriteReg(0xFF4B, 7)         // WX=7: window starts at screen X=0

	// Run the 144 visible lines; the counter is reset once LY wraps to 0.
	for line := 0; line < 144; line++ {
		p.Tick(456)
	}
	if p.windowLine == 0 {
		t.Fatalf("expected windowLine to have advanced across the frame")
	}
}

func TestWindowDoesNotLatchWhenDisabled(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteReg(0xFF40, 0x91) // window bit clear
	p.WriteReg(0xFF4A, 0)
	p.Tick(456)
	if p.windowEnabledLatch {
		t.Fatalf("window must not latch when LCDC bit 5 is clear")
	}
}

func TestSpritePixelOverridesBackgroundWhenOpaque(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteReg(0xFF40, 0x91|0x02) // enable sprites
	// BG tile 0 stays all zero (color index 0, transparent-equivalent for sprites).
	// Sprite 0 at OAM index 0: Y=16 (row 0 of sprite = screen line 0), X=8 (screen x=0).
	p.oam[0] = 16
	p.oam[1] = 8
	p.oam[2] = 1 // tile 1
	p.oam[3] = 0 // attr: palette 0, no flip, priority over BG
	for i := 0; i < 16; i++ {
		p.vram[0x10+i] = 0xFF // tile 1 fully set -> color index 3
	}
	p.WriteReg(0xFF48, 0xE4) // OBP0 identity-ish mapping

	p.runFullFrame(1)
	fb := p.Framebuffer()
	wantR, wantG, wantB := p.shadeRGB(3)
	if fb[0] != wantR || fb[1] != wantG || fb[2] != wantB {
		t.Fatalf("expected sprite color at (0,0), got %v,%v,%v want %v,%v,%v", fb[0], fb[1], fb[2], wantR, wantG, wantB)
	}
}
