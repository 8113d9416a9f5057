package emu

import (
	"strings"

	"github.com/chromacore/dmgcore/internal/cart"
)

// cgbCompatSetNames/cgbCompatSets are the DMG shade palettes a CGB selects
// automatically for original (non-color) cartridges, the way real
// hardware's DMG-compatibility palette table does. Index 0 is the fallback
// for titles no heuristic matches; with AutoPalette off none of these is
// applied and the PPU keeps its own built-in palette.
var cgbCompatSetNames = []string{"Green", "Sepia", "Blue", "Red", "Pastel", "Gray"}

var cgbCompatSets = [6][4][3]byte{
	{{0xE0, 0xF8, 0xD0}, {0x88, 0xC0, 0x70}, {0x34, 0x68, 0x56}, {0x08, 0x18, 0x20}}, // Green
	{{0xFB, 0xEA, 0xCB}, {0xC7, 0x9B, 0x65}, {0x8A, 0x5A, 0x35}, {0x3A, 0x24, 0x15}}, // Sepia
	{{0xEC, 0xF8, 0xFF}, {0x7D, 0xB9, 0xE8}, {0x3E, 0x5F, 0x9E}, {0x0E, 0x1F, 0x40}}, // Blue
	{{0xFF, 0xEF, 0xE0}, {0xF0, 0x90, 0x70}, {0xA8, 0x38, 0x38}, {0x40, 0x10, 0x10}}, // Red
	{{0xFF, 0xF4, 0xE0}, {0xF0, 0xC8, 0xA0}, {0xC0, 0x90, 0xA8}, {0x50, 0x38, 0x58}}, // Pastel
	{{0xFF, 0xFF, 0xFF}, {0xAA, 0xAA, 0xAA}, {0x55, 0x55, 0x55}, {0x00, 0x00, 0x00}}, // Gray
}

// compatTitleExact maps exact, normalized titles to a preferred palette ID.
var compatTitleExact = map[string]int{
	"TETRIS":              2,
	"TETRIS DX":           2,
	"SUPER MARIO LAND":    3,
	"SUPER MARIO LAND 2":  3,
	"DR. MARIO":           4,
	"DONKEY KONG":         1,
	"THE LEGEND OF ZELDA": 0,
	"ZELDA":               0,
	"METROID II":          3,
	"KIRBY'S DREAM LAND":  4,
	"MEGA MAN":            2,
	"MEGAMAN":             2,
	"WARIO LAND":          1,
	"POKEMON YELLOW":      4,
	"POKEMON RED":         4,
	"POKEMON BLUE":        4,
	"POCKET MONSTERS":     4,
}

type containsRule struct {
	substr string
	id     int
}

var compatTitleContains = []containsRule{
	{"TETRIS", 2},
	{"MARIO", 3},
	{"ZELDA", 0},
	{"KIRBY", 4},
	{"DONKEY KONG", 1},
	{"METROID", 3},
	{"MEGA MAN", 2},
	{"MEGAMAN", 2},
	{"WARIO", 1},
	{"POKEMON", 4},
	{"POCKET MONSTERS", 4},
}

// autoPaletteFor picks a palette index for a cartridge using a curated
// title table first, falling back to a stable checksum-derived pick for
// Nintendo-published titles and the default Green set for everything else.
func autoPaletteFor(h *cart.Header) [4][3]byte {
	if h == nil {
		return cgbCompatSets[0]
	}
	t := strings.ToUpper(strings.TrimRight(h.Title, "\x00"))
	if id, ok := compatTitleExact[t]; ok {
		return cgbCompatSets[id]
	}
	for _, r := range compatTitleContains {
		if strings.Contains(t, r.substr) {
			return cgbCompatSets[r.id]
		}
	}
	nintendo := h.OldLicensee == 0x01 || (h.OldLicensee == 0x33 && strings.ToUpper(h.NewLicensee) == "01")
	if nintendo {
		return cgbCompatSets[int(h.HeaderChecksum)%len(cgbCompatSets)]
	}
	return cgbCompatSets[0]
}
