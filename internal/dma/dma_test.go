package dma

import "testing"

type fakeMem struct{ data [0x10000]byte }

func (f *fakeMem) Read(addr uint16) byte { return f.data[addr] }

type fakeOAM struct{ oam [0xA0]byte }

func (f *fakeOAM) WriteOAM(i int, v byte) { f.oam[i] = v }

func TestCopiesOneBytePerTick(t *testing.T) {
	mem := &fakeMem{}
	for i := 0; i < 0xA0; i++ {
		mem.data[0xC000+uint16(i)] = byte(i + 1)
	}
	oam := &fakeOAM{}
	d := New()
	d.Start(0xC0)
	for i := 0; i < 0xA0; i++ {
		if !d.Active() {
			t.Fatalf("expected active during transfer, tick %d", i)
		}
		d.Tick(mem, oam)
	}
	if d.Active() {
		t.Fatalf("expected inactive after 160 bytes")
	}
	for i := 0; i < 0xA0; i++ {
		if oam.oam[i] != byte(i+1) {
			t.Fatalf("oam[%d] = %d, want %d", i, oam.oam[i], i+1)
		}
	}
}

func TestBlocksOutsideHRAM(t *testing.T) {
	d := New()
	d.Start(0x80)
	if !d.BlocksCPUOutsideHRAM(0xC000) {
		t.Fatalf("expected WRAM blocked during DMA")
	}
	if d.BlocksCPUOutsideHRAM(0xFF81) {
		t.Fatalf("HRAM must stay accessible during DMA")
	}
}
