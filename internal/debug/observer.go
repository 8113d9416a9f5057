// Package debug implements a breakpoint/trace observer for the emulator
// core: a simplified, single-threaded counterpart of a multi-threaded
// debugger, since the core itself never runs off the caller's goroutine.
package debug

import (
	"fmt"
	"io"
)

// Breakpoint is a PC address execution should halt at.
type Breakpoint struct {
	Addr     uint16
	Enabled  bool
	HitCount int
}

// Observer tracks breakpoints and an instruction counter against a running
// GameBoy, and optionally mirrors trace lines to a writer. It carries no
// locks: the core it watches is only ever driven from one goroutine.
type Observer struct {
	breakpoints map[uint16]*Breakpoint
	instCount   uint64

	traceWriter io.Writer
}

// NewObserver returns an Observer with no breakpoints set.
func NewObserver() *Observer {
	return &Observer{breakpoints: make(map[uint16]*Breakpoint)}
}

// SetTraceWriter directs Trace output to w; nil disables tracing.
func (o *Observer) SetTraceWriter(w io.Writer) { o.traceWriter = w }

// SetBreakpoint arms a breakpoint at addr, replacing any existing one there.
func (o *Observer) SetBreakpoint(addr uint16) {
	o.breakpoints[addr] = &Breakpoint{Addr: addr, Enabled: true}
}

// RemoveBreakpoint disarms the breakpoint at addr, if any.
func (o *Observer) RemoveBreakpoint(addr uint16) {
	delete(o.breakpoints, addr)
}

// Breakpoints returns a snapshot of all armed breakpoints.
func (o *Observer) Breakpoints() []Breakpoint {
	out := make([]Breakpoint, 0, len(o.breakpoints))
	for _, bp := range o.breakpoints {
		out = append(out, *bp)
	}
	return out
}

// ShouldBreak reports whether an enabled breakpoint is armed at pc,
// incrementing its hit count when it fires.
func (o *Observer) ShouldBreak(pc uint16) bool {
	bp, ok := o.breakpoints[pc]
	if !ok || !bp.Enabled {
		return false
	}
	bp.HitCount++
	return true
}

// InstructionCount returns how many instruction boundaries Tick has seen.
func (o *Observer) InstructionCount() uint64 { return o.instCount }

// Tick records one instruction boundary and writes a trace line, if a
// trace writer is set, at pc with the supplied already-formatted context.
func (o *Observer) Tick(pc uint16, line string) {
	o.instCount++
	if o.traceWriter != nil {
		fmt.Fprintf(o.traceWriter, "%04X: %s\n", pc, line)
	}
}
