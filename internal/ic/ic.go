// Package ic implements the interrupt controller: IE/IF registers, fixed
// priority dispatch, and the vector lookup used by the CPU.
package ic

// Interrupt identifies one of the five sources, ordered by fixed priority.
type Interrupt int

const (
	VBlank Interrupt = iota
	LCD
	Timer
	Serial
	Joypad
)

// Vector returns the fixed dispatch address for an interrupt.
func (i Interrupt) Vector() uint16 {
	return 0x40 + uint16(i)*8
}

func (i Interrupt) bit() byte { return 1 << uint(i) }

// Controller holds IE (0xFFFF) and IF (0xFF0F).
type Controller struct {
	ie byte
	f  byte // lower 5 bits used
}

// New returns a controller in its power-on state: IE=0x00, IF=0xE1 (the
// VBlank bit is already latched at boot on real hardware, plus the unused
// upper three bits, which always read back as 1 regardless of what's
// written).
func New() *Controller {
	return &Controller{ie: 0x00, f: 0x01}
}

// ReadIE returns the raw IE byte.
func (c *Controller) ReadIE() byte { return c.ie }

// WriteIE sets IE.
func (c *Controller) WriteIE(v byte) { c.ie = v }

// ReadIF returns IF with the unused upper three bits read back as 1.
func (c *Controller) ReadIF() byte { return 0xE0 | (c.f & 0x1F) }

// WriteIF sets the lower 5 bits of IF directly (used by CPU/bus writes).
func (c *Controller) WriteIF(v byte) { c.f = v & 0x1F }

// Request sets the IF bit for the given interrupt.
func (c *Controller) Request(i Interrupt) { c.f |= i.bit() }

// HasPending reports whether any enabled interrupt is currently requested.
func (c *Controller) HasPending() bool {
	return (c.ie & c.f & 0x1F) != 0
}

// Take returns the highest-priority interrupt where both IE and IF are set,
// clearing its IF bit, and true. If none is pending it returns (0, false).
func (c *Controller) Take() (Interrupt, bool) {
	pending := c.ie & c.f & 0x1F
	if pending == 0 {
		return 0, false
	}
	for i := VBlank; i <= Joypad; i++ {
		if pending&i.bit() != 0 {
			c.f &^= i.bit()
			return i, true
		}
	}
	return 0, false
}

// State is the serializable snapshot used by save states.
type State struct {
	IE, IF byte
}

func (c *Controller) SaveState() State { return State{IE: c.ie, IF: c.f} }
func (c *Controller) LoadState(s State) {
	c.ie = s.IE
	c.f = s.IF & 0x1F
}
