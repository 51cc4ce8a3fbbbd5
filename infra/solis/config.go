package solis

import (
	"fmt"
	"time"
)

const (
	// DefaultBaseURL is the public SolisCloud API endpoint.
	DefaultBaseURL = "https://www.soliscloud.com:13333"
	// DefaultLegacyCID addresses the combined three-slot charge setting.
	DefaultLegacyCID = "103"
)

// DefaultSlotCIDs are the per-slot setting ids used for the six-slot
// firmware. Installations with other ids override them in configuration.
var DefaultSlotCIDs = []string{"5946", "5947", "5948", "5949", "5950", "5951"}

// Config holds the SolisCloud credentials and client tuning.
type Config struct {
	BaseURL         string   `json:"base_url"`
	KeyID           string   `json:"key_id"`
	Secret          string   `json:"secret"`
	Username        string   `json:"username"`
	Password        string   `json:"password"`
	StationID       string   `json:"station_id"`
	InverterID      string   `json:"inverter_id"`
	TimeoutSeconds  int      `json:"timeout_seconds"`
	MaxRetries      int      `json:"max_retries"`
	BackoffMS       int      `json:"backoff_ms"`
	LegacyCID       string   `json:"legacy_cid"`
	SlotCIDs        []string `json:"slot_cids"`
	WriteIntervalMS int      `json:"write_interval_ms"`
}

// SetDefaults fills in zero values.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 500
	}
	if c.LegacyCID == "" {
		c.LegacyCID = DefaultLegacyCID
	}
	if len(c.SlotCIDs) == 0 {
		c.SlotCIDs = append([]string(nil), DefaultSlotCIDs...)
	}
	if c.WriteIntervalMS < 0 {
		c.WriteIntervalMS = 0
	}
}

// Validate checks that the credentials needed to sign requests are present.
func (c Config) Validate() error {
	switch {
	case c.KeyID == "":
		return fmt.Errorf("solis: key_id required")
	case c.Secret == "":
		return fmt.Errorf("solis: secret required")
	case c.Username == "" || c.Password == "":
		return fmt.Errorf("solis: username and password required")
	case c.StationID == "" && c.InverterID == "":
		return fmt.Errorf("solis: station_id or inverter_id required")
	}
	return nil
}

func (c Config) timeout() time.Duration { return time.Duration(c.TimeoutSeconds) * time.Second }
func (c Config) backoff() time.Duration { return time.Duration(c.BackoffMS) * time.Millisecond }
func (c Config) writeInterval() time.Duration {
	return time.Duration(c.WriteIntervalMS) * time.Millisecond
}
