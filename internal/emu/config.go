package emu

// Config contains the host-level settings that shape how a GameBoy runs,
// as opposed to the machine state itself. It is the counterpart of the
// UI-facing Config in internal/ui, kept separate so a headless caller
// (cmd/cpurunner, tests) never needs to pull in ebiten.
type Config struct {
	Model Model

	// Trace, when set, causes Step to format and forward one disassembly
	// line per instruction boundary to the emulator's trace writer.
	Trace bool

	// StrictMemoryConflicts enables VRAM/OAM 0xFF readback during PPU
	// modes 2/3, as discussed in the PPU's access-conflict design; off by
	// default so a host can bring up rendering before chasing conflict bugs.
	StrictMemoryConflicts bool

	// BootROM, if non-empty, is mapped over 0x0000-0x00FF until the guest
	// writes a non-zero value to 0xFF50.
	BootROM []byte

	// AutoPalette selects a DMG shade palette from the cartridge's title
	// and licensee the way real DMG-compatibility modes on a CGB do.
	AutoPalette bool
}
