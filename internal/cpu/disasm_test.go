package cpu

import "testing"

type peekMem struct{ data [0x10000]byte }

func (p *peekMem) Peek(addr uint16) byte { return p.data[addr] }

func TestDisassembleBasic(t *testing.T) {
	mem := &peekMem{}
	mem.data[0] = 0x3E
	mem.data[1] = 0x42
	got, length := Disassemble(mem, 0)
	if got != "LD A,0x42" {
		t.Fatalf("got %q", got)
	}
	if length != 2 {
		t.Fatalf("length = %d, want 2", length)
	}
}

func TestDisassembleCBPrefixed(t *testing.T) {
	mem := &peekMem{}
	mem.data[0] = 0xCB
	mem.data[1] = 0x7C // BIT 7,H
	got, length := Disassemble(mem, 0)
	if got != "BIT 7,H" {
		t.Fatalf("got %q", got)
	}
	if length != 2 {
		t.Fatalf("length = %d, want 2", length)
	}
}

func TestDisassembleConditionalJump(t *testing.T) {
	mem := &peekMem{}
	mem.data[0] = 0xCA
	mem.data[1] = 0x00
	mem.data[2] = 0x01
	got, _ := Disassemble(mem, 0)
	if got != "JP Z,0x0100" {
		t.Fatalf("got %q", got)
	}
}
