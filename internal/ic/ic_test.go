package ic

import "testing"

func TestPriorityOrder(t *testing.T) {
	c := New()
	c.WriteIE(0xFF)
	c.Request(Timer)
	c.Request(VBlank)
	c.Request(Joypad)

	i, ok := c.Take()
	if !ok || i != VBlank {
		t.Fatalf("want VBlank first, got %v ok=%v", i, ok)
	}
	i, ok = c.Take()
	if !ok || i != Timer {
		t.Fatalf("want Timer second, got %v ok=%v", i, ok)
	}
	i, ok = c.Take()
	if !ok || i != Joypad {
		t.Fatalf("want Joypad third, got %v ok=%v", i, ok)
	}
	if _, ok := c.Take(); ok {
		t.Fatalf("expected no more pending interrupts")
	}
}

func TestIFUpperBitsReadAsOne(t *testing.T) {
	c := New()
	c.WriteIF(0x1F)
	if got := c.ReadIF(); got != 0xFF {
		t.Fatalf("IF read got %02X want FF", got)
	}
}

func TestHasPendingRequiresEnable(t *testing.T) {
	c := New()
	c.Request(VBlank)
	if c.HasPending() {
		t.Fatalf("pending should require IE bit set too")
	}
	c.WriteIE(1 << uint(VBlank))
	if !c.HasPending() {
		t.Fatalf("expected pending once IE enables it")
	}
}

func TestVectors(t *testing.T) {
	want := map[Interrupt]uint16{VBlank: 0x40, LCD: 0x48, Timer: 0x50, Serial: 0x58, Joypad: 0x60}
	for i, v := range want {
		if got := i.Vector(); got != v {
			t.Fatalf("%v vector got %#04x want %#04x", i, got, v)
		}
	}
}
