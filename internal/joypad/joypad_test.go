package joypad

import (
	"testing"

	"github.com/chromacore/dmgcore/internal/ic"
)

func TestDPadSelection(t *testing.T) {
	c := ic.New()
	j := New(c)
	j.Write(0x20) // select D-Pad (bit4=0)
	j.SetPressed(Right | Up)
	if got := j.Read() & 0x0F; got != 0x0A {
		t.Fatalf("got %02X want 0A (Right+Up cleared)", got)
	}
}

func TestNewPressRaisesInterrupt(t *testing.T) {
	c := ic.New()
	c.WriteIE(0xFF)
	c.WriteIF(0) // clear the VBlank request latched at power-on
	j := New(c)
	j.Write(0x10) // select buttons (bit5=0)
	j.SetPressed(0)
	if c.HasPending() {
		t.Fatalf("no press yet, should not be pending")
	}
	j.SetPressed(A)
	if !c.HasPending() {
		t.Fatalf("expected Joypad interrupt on new press")
	}
}

func TestUnselectedReadsAllOnes(t *testing.T) {
	c := ic.New()
	j := New(c)
	j.Write(0x30)
	j.SetPressed(A | Right)
	if got := j.Read() & 0x0F; got != 0x0F {
		t.Fatalf("got %02X want 0F when neither group selected", got)
	}
}
