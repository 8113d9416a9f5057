// Package joypad models the FF00 JOYP register: selector bits, the held
// button bitset, and new-press edge triggering of the Joypad interrupt.
package joypad

import "github.com/chromacore/dmgcore/internal/ic"

// Button bitmasks for SetPressed. Set bits mean "currently held".
const (
	Right = 1 << iota
	Left
	Up
	Down
	A
	B
	Select
	Start
)

type Joypad struct {
	selector byte // bits 5:4 as last written (0 = group selected)
	held     byte // bitset of Button* constants, 1 = pressed
	lastLow4 byte // previously computed active-low lower nibble, for edge detection

	ic *ic.Controller
}

func New(controller *ic.Controller) *Joypad {
	// lastLow4 starts at the "nothing pressed" encoding (all four bits set)
	// so the very first button press is still seen as a falling edge.
	return &Joypad{selector: 0x30, lastLow4: 0x0F, ic: controller}
}

// Read returns the FF00 byte: bits 7:6 read as 1, bits 5:4 are the selector,
// bits 3:0 are active-low per the currently selected group(s).
func (j *Joypad) Read() byte {
	return 0xC0 | (j.selector & 0x30) | j.lower4()
}

func (j *Joypad) lower4() byte {
	lo := byte(0x0F)
	if j.selector&0x10 == 0 { // P14 low selects D-Pad
		if j.held&Right != 0 {
			lo &^= 0x01
		}
		if j.held&Left != 0 {
			lo &^= 0x02
		}
		if j.held&Up != 0 {
			lo &^= 0x04
		}
		if j.held&Down != 0 {
			lo &^= 0x08
		}
	}
	if j.selector&0x20 == 0 { // P15 low selects buttons
		if j.held&A != 0 {
			lo &^= 0x01
		}
		if j.held&B != 0 {
			lo &^= 0x02
		}
		if j.held&Select != 0 {
			lo &^= 0x04
		}
		if j.held&Start != 0 {
			lo &^= 0x08
		}
	}
	return lo
}

// Write sets the selector bits (5:4 only); other bits are ignored.
func (j *Joypad) Write(v byte) {
	j.selector = (j.selector & 0xCF) | (v & 0x30)
	j.refresh()
}

// SetPressed replaces the held-button bitset and raises the Joypad interrupt
// on any newly-pressed button within the currently selected half.
func (j *Joypad) SetPressed(mask byte) {
	j.held = mask
	j.refresh()
}

func (j *Joypad) refresh() {
	newLow := j.lower4()
	// A bit going from 1 (released) to 0 (pressed) is the triggering edge.
	if j.lastLow4&^newLow != 0 {
		j.ic.Request(ic.Joypad)
	}
	j.lastLow4 = newLow
}

type State struct {
	Selector, Held, LastLow4 byte
}

func (j *Joypad) SaveState() State { return State{j.selector, j.held, j.lastLow4} }
func (j *Joypad) LoadState(s State) {
	j.selector, j.held, j.lastLow4 = s.Selector, s.Held, s.LastLow4
}
