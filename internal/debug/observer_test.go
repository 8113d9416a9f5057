package debug

import (
	"bytes"
	"testing"
)

func TestBreakpointFiresOnce(t *testing.T) {
	o := NewObserver()
	o.SetBreakpoint(0x0150)
	if o.ShouldBreak(0x0100) {
		t.Fatalf("unarmed address should not break")
	}
	if !o.ShouldBreak(0x0150) {
		t.Fatalf("armed address should break")
	}
	bps := o.Breakpoints()
	if len(bps) != 1 || bps[0].HitCount != 1 {
		t.Fatalf("expected one breakpoint with HitCount=1, got %+v", bps)
	}
}

func TestRemoveBreakpointDisarms(t *testing.T) {
	o := NewObserver()
	o.SetBreakpoint(0x0040)
	o.RemoveBreakpoint(0x0040)
	if o.ShouldBreak(0x0040) {
		t.Fatalf("removed breakpoint should not fire")
	}
}

func TestTickWritesTraceAndCounts(t *testing.T) {
	var buf bytes.Buffer
	o := NewObserver()
	o.SetTraceWriter(&buf)
	o.Tick(0x0100, "NOP")
	o.Tick(0x0101, "LD A,B")
	if o.InstructionCount() != 2 {
		t.Fatalf("InstructionCount = %d, want 2", o.InstructionCount())
	}
	if buf.Len() == 0 {
		t.Fatalf("expected trace output")
	}
}
