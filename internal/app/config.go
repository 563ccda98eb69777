// Package app provides configuration management for the NES emulator.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mp3/ccnes/internal/apu"
)

// Config holds the application configuration, persisted as JSON next to
// the save-state directory.
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Audio     AudioConfig     `json:"audio"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration.
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
	Scale      int  `json:"scale"` // NES resolution multiplier
}

// VideoConfig contains video rendering configuration.
type VideoConfig struct {
	VSync       bool    `json:"vsync"`
	AspectRatio string  `json:"aspect_ratio"` // "4:3", "16:9", "original"
	Filter      string  `json:"filter"`       // "nearest", "linear"
	Backend     string  `json:"backend"`      // "ebitengine", "headless"
	Brightness  float32 `json:"brightness"`
	Contrast    float32 `json:"contrast"`
	Saturation  float32 `json:"saturation"`
}

// AudioConfig contains audio output configuration.
type AudioConfig struct {
	Enabled    bool   `json:"enabled"`
	SampleRate int    `json:"sample_rate"`
	Resampler  string `json:"resampler"` // "linear", "hermite", "blep"
}

// EmulationConfig contains emulation-specific settings.
type EmulationConfig struct {
	SaveStateSlots int `json:"save_state_slots"`
}

// DebugConfig contains debugging options.
type DebugConfig struct {
	ShowFPS       bool `json:"show_fps"`
	EnableLogging bool `json:"enable_logging"`
}

// PathsConfig contains file and directory paths.
type PathsConfig struct {
	ROMs        string `json:"roms"`
	SaveStates  string `json:"save_states"`
	Screenshots string `json:"screenshots"`
}

// NewConfig returns a configuration populated with defaults.
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  800,
			Height: 600,
			Scale:  2,
		},
		Video: VideoConfig{
			VSync:       true,
			AspectRatio: "4:3",
			Filter:      "nearest",
			Backend:     "ebitengine",
			Brightness:  1.0,
			Contrast:    1.0,
			Saturation:  1.0,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			Resampler:  "hermite",
		},
		Emulation: EmulationConfig{
			SaveStateSlots: 10,
		},
		Paths: PathsConfig{
			ROMs:        "./roms",
			SaveStates:  "./states",
			Screenshots: "./screenshots",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// not an error: the defaults are written out to path instead.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	c.applyLimits()
	if err := c.createDirectories(); err != nil {
		return err
	}

	c.loaded = true
	return nil
}

// SaveToFile writes the configuration to a JSON file, creating the
// parent directory if needed.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// applyLimits clamps out-of-range values back to their defaults rather
// than rejecting the whole file over one bad knob.
func (c *Config) applyLimits() {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		c.Window.Width, c.Window.Height = 800, 600
	}
	if c.Window.Scale <= 0 {
		c.Window.Scale = 2
	}
	if c.Video.Brightness < 0.1 || c.Video.Brightness > 3.0 {
		c.Video.Brightness = 1.0
	}
	if c.Video.Contrast < 0.1 || c.Video.Contrast > 3.0 {
		c.Video.Contrast = 1.0
	}
	if c.Video.Saturation < 0.0 || c.Video.Saturation > 3.0 {
		c.Video.Saturation = 1.0
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 44100
	}
	if c.Emulation.SaveStateSlots <= 0 {
		c.Emulation.SaveStateSlots = 10
	}
}

func (c *Config) createDirectories() error {
	for _, dir := range []string{c.Paths.ROMs, c.Paths.SaveStates, c.Paths.Screenshots} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// ResamplerQuality maps the config's resampler name onto the APU's
// quality selector, defaulting to Hermite for unrecognized values.
func (c *Config) ResamplerQuality() apu.ResamplerQuality {
	switch c.Audio.Resampler {
	case "linear":
		return apu.ResamplerLow
	case "blep":
		return apu.ResamplerHigh
	default:
		return apu.ResamplerMedium
	}
}

// WindowResolution returns the window size derived from the NES's
// native 256x240 output and the configured scale factor.
func (c *Config) WindowResolution() (int, int) {
	return 256 * c.Window.Scale, 240 * c.Window.Scale
}

// IsLoaded reports whether the configuration came from a file rather
// than defaults.
func (c *Config) IsLoaded() bool { return c.loaded }

// GetConfigPath returns the path the configuration was loaded from.
func (c *Config) GetConfigPath() string { return c.configPath }

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return "./config/ccnes.json"
}
