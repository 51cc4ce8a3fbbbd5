package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// Transport types.
const (
	TransportSolis = "solis"
	TransportMQTT  = "mqtt"
)

// Source types.
const (
	SourceMQTT = "mqtt"
	SourceFile = "file"
)

// DefaultPlannerCron replans every half hour so the core window follows the
// slot grid.
const DefaultPlannerCron = "*/30 * * * *"

// TransportConfig selects how schedules reach the inverter.
type TransportConfig struct {
	Type string `json:"type"`
}

// SetDefaults applies sane defaults.
func (c *TransportConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = TransportSolis
	}
}

// Validate checks the transport type.
func (c TransportConfig) Validate() error {
	if c.Type != TransportSolis && c.Type != TransportMQTT {
		return fmt.Errorf("unknown transport %s", c.Type)
	}
	return nil
}

// SourceConfig selects where dispatch updates come from.
type SourceConfig struct {
	Type string `json:"type"`
	// Path is the dispatch file for the file source.
	Path string `json:"path"`
	// DebounceMS coalesces file events.
	DebounceMS int `json:"debounce_ms"`
}

// SetDefaults applies sane defaults.
func (c *SourceConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = SourceMQTT
	}
	if c.DebounceMS <= 0 {
		c.DebounceMS = 200
	}
}

// Validate checks mandatory fields.
func (c SourceConfig) Validate() error {
	switch c.Type {
	case SourceMQTT:
	case SourceFile:
		if c.Path == "" {
			return fmt.Errorf("source.path is required for the file source")
		}
	default:
		return fmt.Errorf("unknown source %s", c.Type)
	}
	return nil
}

// Debounce returns the file event debounce.
func (c SourceConfig) Debounce() time.Duration { return time.Duration(c.DebounceMS) * time.Millisecond }

// PlannerConfig controls periodic replanning from the last dispatch state.
type PlannerConfig struct {
	// Cron is a standard five-field expression. "-" disables replanning.
	Cron string `json:"cron"`
	// Timezone is the IANA zone the cron expression is evaluated in.
	Timezone string `json:"timezone"`
}

// SetDefaults applies sane defaults.
func (c *PlannerConfig) SetDefaults() {
	if c.Cron == "" {
		c.Cron = DefaultPlannerCron
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
}

// Enabled reports whether periodic replanning is on.
func (c PlannerConfig) Enabled() bool { return c.Cron != "-" }

// Location resolves the configured timezone.
func (c PlannerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate checks the cron expression and timezone.
func (c PlannerConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("planner timezone: %w", err)
	}
	if !c.Enabled() {
		return nil
	}
	if _, err := cron.ParseStandard(c.Cron); err != nil {
		return fmt.Errorf("planner cron: %w", err)
	}
	return nil
}

// HistoryConfig defines where published schedules are stored.
type HistoryConfig struct {
	// Path is the sqlite database file. Empty disables history.
	Path string `json:"path"`
}

// Enabled reports whether history is on.
func (c HistoryConfig) Enabled() bool { return c.Path != "" }

// Validate checks that the database directory looks usable.
func (c HistoryConfig) Validate() error {
	if c.Path == "" {
		return nil
	}
	if filepath.Base(c.Path) == "." || filepath.Base(c.Path) == string(filepath.Separator) {
		return fmt.Errorf("history.path must name a file")
	}
	return nil
}
