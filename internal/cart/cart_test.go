package cart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCartridge_DispatchesByType(t *testing.T) {
	rom := buildROM("ROMONLY", 0x00, 0x00, 0x00, 32*1024)
	c, err := NewCartridge(rom)
	require.NoError(t, err)
	_, ok := c.(*ROMOnly)
	require.True(t, ok, "expected *ROMOnly for cart type 0x00")

	rom = buildROM("MBC1GAME", 0x03, 0x01, 0x02, 64*1024) // MBC1+RAM+BATTERY
	c, err = NewCartridge(rom)
	require.NoError(t, err)
	m1, ok := c.(*MBC1)
	require.True(t, ok, "expected *MBC1 for cart type 0x03")
	var _ BatteryBacked = m1

	rom = buildROM("MBC5GAME", 0x1B, 0x05, 0x03, 1*1024*1024) // MBC5+RAM+BATTERY
	c, err = NewCartridge(rom)
	require.NoError(t, err)
	_, ok = c.(*MBC5)
	require.True(t, ok, "expected *MBC5 for cart type 0x1B")
}

func TestNewCartridge_UnrecognisedType(t *testing.T) {
	rom := buildROM("BAD", 0x7F, 0x00, 0x00, 32*1024)
	_, err := NewCartridge(rom)
	require.ErrorIs(t, err, ErrMissingRomCartridgeType)
}

func TestNewCartridge_TooBig(t *testing.T) {
	rom := buildROM("BIG", 0x00, 0x00, 0x00, 64*1024) // header declares 32KiB, image is 64KiB
	_, err := NewCartridge(rom)
	require.ErrorIs(t, err, ErrRomTooBig)
}
