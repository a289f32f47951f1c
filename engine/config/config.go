// Package config loads the demo configuration from TOML or YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPath is the environment variable that overrides the config file path.
const EnvPath = "VANGUARD_CONFIG"

// DefaultPath is the config file path used when neither a flag nor EnvPath is set.
const DefaultPath = "config/vanguard.toml"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Window    WindowConfig    `toml:"window" yaml:"window"`
	Engine    EngineConfig    `toml:"engine" yaml:"engine"`
	Animation AnimationConfig `toml:"animation" yaml:"animation"`
	Clips     []ClipConfig    `toml:"clips" yaml:"clips"`
	Loader    LoaderConfig    `toml:"loader" yaml:"loader"`
	Panel     PanelConfig     `toml:"panel" yaml:"panel"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
}

type WindowConfig struct {
	Title     string `toml:"title" yaml:"title"`
	Width     int    `toml:"width" yaml:"width"`
	Height    int    `toml:"height" yaml:"height"`
	Resizable bool   `toml:"resizable" yaml:"resizable"`
}

type EngineConfig struct {
	FrameLimit      int           `toml:"frame_limit" yaml:"frame_limit"` // frames per second, 0 = uncapped
	Profiling       bool          `toml:"profiling" yaml:"profiling"`
	ProfileInterval time.Duration `toml:"profile_interval" yaml:"profile_interval"`
}

type AnimationConfig struct {
	FadeDuration float32 `toml:"fade_duration" yaml:"fade_duration"` // seconds
	Autoplay     bool    `toml:"autoplay" yaml:"autoplay"`
	TimeScale    float32 `toml:"time_scale" yaml:"time_scale"`
}

// ClipConfig is one chain entry. The first entry is the base model.
type ClipConfig struct {
	Name            string     `toml:"name" yaml:"name"`
	Locator         string     `toml:"locator" yaml:"locator"`
	StripFirstTrack bool       `toml:"strip_first_track" yaml:"strip_first_track"`
	Color           [3]float32 `toml:"color" yaml:"color"` // stage tint while this clip plays
}

type LoaderConfig struct {
	Workers     int           `toml:"workers" yaml:"workers"`
	QueueSize   int           `toml:"queue_size" yaml:"queue_size"`
	HTTPTimeout time.Duration `toml:"http_timeout" yaml:"http_timeout"`
}

type PanelConfig struct {
	Enabled     bool   `toml:"enabled" yaml:"enabled"`
	BindAddress string `toml:"bind_address" yaml:"bind_address"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

// Load reads the file at path over the defaults. Files ending in .yaml or .yml are decoded as
// YAML, everything else as TOML. The result is validated.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - *Config: the loaded configuration
//   - error: error if the file cannot be read, parsed or validated
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Format is a config file encoding.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// Parse decodes data over the defaults and validates the result.
//
// Parameters:
//   - data: the encoded config
//   - format: the encoding of data
//
// Returns:
//   - *Config: the decoded configuration
//   - error: error if decoding or validation fails
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Defaults()

	// A config that lists clips replaces the default chain rather than merging into it.
	cfg.Clips = nil

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.Clips) == 0 {
		cfg.Clips = Defaults().Clips
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the built-in configuration: the vanguard model with its samba, bellydance and
// goofy running clips.
func Defaults() *Config {
	return &Config{
		Window: WindowConfig{
			Title:     "oxy-vanguard",
			Width:     1280,
			Height:    720,
			Resizable: true,
		},
		Engine: EngineConfig{
			FrameLimit:      60,
			ProfileInterval: 5 * time.Second,
		},
		Animation: AnimationConfig{
			FadeDuration: 1,
			TimeScale:    1,
		},
		Clips: []ClipConfig{
			{Name: "default", Locator: "models/vanguard.glb", Color: [3]float32{0.2, 0.2, 0.25}},
			{Name: "samba", Locator: "models/vanguard@samba.glb", Color: [3]float32{0.8, 0.3, 0.2}},
			{Name: "bellydance", Locator: "models/vanguard@bellydance.glb", Color: [3]float32{0.6, 0.2, 0.7}},
			{Name: "goofyrunning", Locator: "models/vanguard@goofyrunning.glb", StripFirstTrack: true, Color: [3]float32{0.2, 0.6, 0.3}},
		},
		Loader: LoaderConfig{
			Workers:     2,
			QueueSize:   16,
			HTTPTimeout: 30 * time.Second,
		},
		Panel: PanelConfig{
			Enabled:     true,
			BindAddress: "127.0.0.1:8088",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the clip chain and numeric settings.
//
// Returns:
//   - error: an error wrapping ErrInvalid describing the first problem found
func (c *Config) Validate() error {
	if len(c.Clips) == 0 {
		return fmt.Errorf("%w: no clips", ErrInvalid)
	}

	seen := make(map[string]bool, len(c.Clips))
	for i, clip := range c.Clips {
		if strings.TrimSpace(clip.Name) == "" {
			return fmt.Errorf("%w: clip %d has no name", ErrInvalid, i)
		}
		if strings.TrimSpace(clip.Locator) == "" {
			return fmt.Errorf("%w: clip %q has no locator", ErrInvalid, clip.Name)
		}
		if seen[clip.Name] {
			return fmt.Errorf("%w: duplicate clip %q", ErrInvalid, clip.Name)
		}
		seen[clip.Name] = true
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Animation.FadeDuration < 0 {
		return fmt.Errorf("%w: negative fade duration", ErrInvalid)
	}
	if c.Animation.TimeScale <= 0 {
		return fmt.Errorf("%w: time scale must be positive", ErrInvalid)
	}
	if c.Engine.FrameLimit < 0 {
		return fmt.Errorf("%w: negative frame limit", ErrInvalid)
	}
	if c.Panel.Enabled && c.Panel.BindAddress == "" {
		return fmt.Errorf("%w: panel enabled without bind address", ErrInvalid)
	}
	return nil
}

// formatOf picks the decoder from the file extension.
func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}
