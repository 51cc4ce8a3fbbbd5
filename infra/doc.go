// Package infra holds the adapters behind the core interfaces: the
// SolisCloud and MQTT transports, dispatch sources, history storage and
// metrics sinks. Nothing under core imports these packages.
package infra
