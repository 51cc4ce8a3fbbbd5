package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/solischarge/core/window"
)

// ErrInvalidConfig is returned when the scheduler configuration is unusable.
var ErrInvalidConfig = errors.New("invalid scheduler configuration")

// Config defines the scheduling parameters.
type Config struct {
	// SlotCount selects the firmware layout, 3 (legacy) or 6 (extended).
	SlotCount int `json:"slot_count" yaml:"slot_count"`
	// CoreStart and CoreEnd are the default core window bounds as "HH:MM".
	CoreStart string `json:"core_start" yaml:"core_start"`
	CoreEnd   string `json:"core_end" yaml:"core_end"`
	// MergeTolerance is the largest gap between two merged dispatches.
	MergeTolerance string `json:"merge_tolerance" yaml:"merge_tolerance"`
	// AbutTolerance is the largest gap between a dispatch and the core
	// window for the dispatch to be absorbed.
	AbutTolerance string `json:"abut_tolerance" yaml:"abut_tolerance"`
	// Device optionally selects the target inverter.
	Device string `json:"device" yaml:"device"`
}

// SetDefaults fills the optional fields. The slot count has no default.
func (c *Config) SetDefaults() {
	if c.CoreStart == "" {
		c.CoreStart = window.DefaultCoreStart
	}
	if c.CoreEnd == "" {
		c.CoreEnd = window.DefaultCoreEnd
	}
	if c.MergeTolerance == "" {
		c.MergeTolerance = window.DefaultMergeTolerance.String()
	}
	if c.AbutTolerance == "" {
		c.AbutTolerance = "0s"
	}
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	_, err := c.parse()
	return err
}

type settings struct {
	layout   window.Layout
	bounds   window.Bounds
	mergeTol time.Duration
	abutTol  time.Duration
}

func (c Config) parse() (settings, error) {
	var s settings
	switch {
	case c.SlotCount == 0:
		return s, fmt.Errorf("%w: slot_count is required", ErrInvalidConfig)
	case c.SlotCount < 0:
		return s, fmt.Errorf("%w: slot_count must be positive, got %d", ErrInvalidConfig, c.SlotCount)
	}
	layout, err := window.ParseLayout(c.SlotCount)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	s.layout = layout

	start, end := c.CoreStart, c.CoreEnd
	if start == "" {
		start = window.DefaultCoreStart
	}
	if end == "" {
		end = window.DefaultCoreEnd
	}
	if s.bounds, err = window.ParseBounds(start, end); err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if s.mergeTol, err = parseTolerance("merge_tolerance", c.MergeTolerance, window.DefaultMergeTolerance); err != nil {
		return s, err
	}
	if s.abutTol, err = parseTolerance("abut_tolerance", c.AbutTolerance, 0); err != nil {
		return s, err
	}
	return s, nil
}

func parseTolerance(name, v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
	}
	return d, nil
}

// LoadConfig loads a Config from a JSON or YAML file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var cfg Config
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return Config{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	return cfg, err
}

// DecodeConfig reads from r to decode a Config.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		dec := json.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	return cfg, nil
}
