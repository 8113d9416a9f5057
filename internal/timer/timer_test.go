package timer

import (
	"testing"

	"github.com/chromacore/dmgcore/internal/ic"
)

func TestFallingEdgeOverflowDeferredReload(t *testing.T) {
	c := ic.New()
	c.WriteIE(0xFF)
	tm := New(c)
	tm.WriteTAC(0x05) // enabled, rate 01 -> bit 3
	tm.WriteTIMA(0xFF)
	tm.WriteTMA(0x42)
	tm.WriteDIV() // clear div to a known zero baseline

	// Bit 3 falls every 4 M-cycles of +4 each (div increments by 4/tick);
	// drive enough ticks to see an overflow then reload on the following cycle.
	var reloadedAt = -1
	for i := 1; i <= 32; i++ {
		tm.Tick()
		if tm.ReadTIMA() == 0x42 {
			reloadedAt = i
			break
		}
	}
	if reloadedAt == -1 {
		t.Fatalf("TIMA never reloaded from TMA")
	}
	if !c.HasPending() {
		t.Fatalf("expected Timer interrupt requested on reload")
	}
}

func TestWriteTIMADuringDelayCancelsReload(t *testing.T) {
	c := ic.New()
	tm := New(c)
	tm.WriteTAC(0x05)
	tm.WriteTIMA(0xFF)
	tm.WriteTMA(0x99)
	// Force overflow deterministically.
	for i := 0; i < 64 && tm.reloadDelay == 0; i++ {
		tm.Tick()
	}
	if tm.reloadDelay == 0 {
		t.Skip("could not reach overflow window deterministically")
	}
	tm.WriteTIMA(0x10)
	tm.Tick()
	if tm.ReadTIMA() == 0x99 {
		t.Fatalf("write to TIMA during delay should cancel reload")
	}
}

func TestDIVWriteResets(t *testing.T) {
	c := ic.New()
	tm := New(c)
	for i := 0; i < 100; i++ {
		tm.Tick()
	}
	tm.WriteDIV()
	if tm.ReadDIV() != 0 {
		t.Fatalf("DIV write should reset high byte to 0")
	}
}
