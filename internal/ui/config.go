// Package ui implements the windowed ebiten frontend: framebuffer blit,
// keyboard-to-joypad polling, and TOML-persisted window/input settings.
package ui

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config contains window/input settings that outlive a single run.
type Config struct {
	Title string `toml:"title"`
	Scale int    `toml:"scale"`

	AutoPalette bool `toml:"auto_palette"`
	Trace       bool `toml:"trace"`

	// PerROMPalette maps a ROM path to a compat palette index. It is loaded
	// and saved with the settings, but the emulator does not read it, so
	// AutoPalette alone decides the palette.
	PerROMPalette map[string]int `toml:"per_rom_palette"`
}

// Defaults fills zero-valued fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "dmgcore"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.PerROMPalette == nil {
		c.PerROMPalette = make(map[string]int)
	}
}

// LoadConfig reads a TOML config from path, applying defaults to any
// field it doesn't set. A missing file is not an error: it yields a
// default Config as if an empty file had been read.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg.Defaults()
	return cfg, nil
}

// SaveConfig writes cfg to path as TOML, creating or truncating it.
func SaveConfig(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
