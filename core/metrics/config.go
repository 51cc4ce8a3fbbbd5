package metrics

import "github.com/kilianp07/solischarge/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is the listen address of the /metrics endpoint. Empty
	// disables the server.
	PrometheusAddr string `json:"prometheus_addr"`
}
