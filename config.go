package pufferfish

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pelletier/go-toml/v2"
)

// Config holds application settings. It is read once at startup; changing it
// afterwards has no effect.
type Config struct {
	Title     string `toml:"title"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	VSync     bool   `toml:"vsync"`
	Resizable bool   `toml:"resizable"`
	TPS       int    `toml:"tps"` // update ticks per second

	Atlas            AtlasConfig `toml:"atlas"`
	DefaultBlend     BlendMode   `toml:"default_blend"`
	MaxQuadsPerBatch int         `toml:"max_quads_per_batch"`
	DecodeWorkers    int         `toml:"decode_workers"`

	// Debug logs per-frame stats at debug level.
	Debug bool `toml:"debug"`

	// ScreenshotDir is where test-script screenshots are written.
	ScreenshotDir string `toml:"screenshot_dir"`
}

// DefaultConfig returns an 800x600 vsynced window titled "Pufferfish".
func DefaultConfig() Config {
	return Config{
		Title:            "Pufferfish",
		Width:            800,
		Height:           600,
		VSync:            true,
		TPS:              60,
		Atlas:            DefaultAtlasConfig(),
		DefaultBlend:     BlendNormal,
		MaxQuadsPerBatch: DefaultMaxQuadsPerBatch,
		DecodeWorkers:    DefaultDecodeWorkers,
		ScreenshotDir:    "screenshots",
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("pufferfish: window size %dx%d must be positive", c.Width, c.Height)
	}
	if c.TPS <= 0 {
		return fmt.Errorf("pufferfish: tps %d must be positive", c.TPS)
	}
	if c.MaxQuadsPerBatch <= 0 {
		return fmt.Errorf("pufferfish: max quads per batch %d must be positive", c.MaxQuadsPerBatch)
	}
	// Indices are uint32; keep the largest batch addressable.
	if c.MaxQuadsPerBatch > 1<<28 {
		return fmt.Errorf("pufferfish: max quads per batch %d is too large", c.MaxQuadsPerBatch)
	}
	if c.DecodeWorkers < 0 {
		return fmt.Errorf("pufferfish: decode workers %d is negative", c.DecodeWorkers)
	}
	if c.DefaultBlend > BlendNone {
		return fmt.Errorf("pufferfish: unknown default blend %d", c.DefaultBlend)
	}
	return c.Atlas.validate()
}

// LoadConfig parses TOML over DefaultConfig, so omitted keys keep their
// defaults. Unknown keys are an error.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("pufferfish: config: %s", strict.String())
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Config{}, fmt.Errorf("pufferfish: config line %d column %d: %w", row, col, err)
		}
		return Config{}, fmt.Errorf("pufferfish: config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads and parses a TOML config file from fsys.
func LoadConfigFile(fsys fs.FS, path string) (Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Config{}, fmt.Errorf("pufferfish: read config: %w", err)
	}
	return LoadConfig(data)
}

// Encode returns the config as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
