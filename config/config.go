// Package config loads the service configuration from a YAML or JSON file
// with K_ prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/solischarge/core/metrics"
	"github.com/kilianp07/solischarge/core/scheduler"
	"github.com/kilianp07/solischarge/infra/mqtt"
	"github.com/kilianp07/solischarge/infra/solis"
)

type Config struct {
	Scheduler scheduler.Config `json:"scheduler"`
	Transport TransportConfig  `json:"transport"`
	Solis     solis.Config     `json:"solis"`
	MQTT      mqtt.Config      `json:"mqtt"`
	Source    SourceConfig     `json:"source"`
	Planner   PlannerConfig    `json:"planner"`
	Metrics   metrics.Config   `json:"metrics"`
	History   HistoryConfig    `json:"history"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides: K_SOLIS__KEY_ID sets solis.key_id.
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Scheduler.SetDefaults()
	c.Transport.SetDefaults()
	c.Source.SetDefaults()
	c.Planner.SetDefaults()
	switch c.Transport.Type {
	case TransportSolis:
		c.Solis.SetDefaults()
	}
	if c.Transport.Type == TransportMQTT || c.Source.Type == SourceMQTT {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section in use. Sections for unused adapters are
// not validated.
func (c Config) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Planner.Validate(); err != nil {
		return err
	}
	if err := c.History.Validate(); err != nil {
		return err
	}
	if c.Transport.Type == TransportSolis {
		if err := c.Solis.Validate(); err != nil {
			return err
		}
	}
	if c.Transport.Type == TransportMQTT || c.Source.Type == SourceMQTT {
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	}
	if c.Transport.Type == TransportMQTT && c.MQTT.EntityPrefix == "" && c.Scheduler.Device == "" {
		return fmt.Errorf("mqtt transport requires mqtt.entity_prefix or scheduler.device")
	}
	return nil
}
