package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
)

const (
	// DefaultCommandTopicFormat maps an entity id to its command topic.
	DefaultCommandTopicFormat = "solis/%s/set"
	// DefaultStateTopic receives the last published schedule.
	DefaultStateTopic = "solis/schedule/state"
	// DefaultDispatchTopic carries the dispatch sensor attributes.
	DefaultDispatchTopic = "solis/dispatches"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string          `json:"broker"`
	ClientID   string          `json:"client_id"`
	Username   string          `json:"username"`
	Password   string          `json:"password"`
	UseTLS     bool            `json:"use_tls"`
	ClientCert string          `json:"client_cert"`
	ClientKey  string          `json:"client_key"`
	CABundle   string          `json:"ca_bundle"`
	AuthMethod string          `json:"auth_method"`
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`
	MaxRetries int             `json:"max_retries"`
	BackoffMS  int             `json:"backoff_ms"`

	// EntityPrefix is prepended to the inverter time entities, for example
	// "time.solis" gives "time.solis_time_charging_charge_start_slot_1".
	EntityPrefix       string `json:"entity_prefix"`
	CommandTopicFormat string `json:"command_topic_format"`
	StateTopic         string `json:"state_topic"`
	DispatchTopic      string `json:"dispatch_topic"`
	// WriteIntervalMS paces consecutive entity writes.
	WriteIntervalMS int `json:"write_interval_ms"`

	TLSConfig *tls.Config `json:"-"`
}

// SetDefaults fills in zero values.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "solischarge"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
	if c.CommandTopicFormat == "" {
		c.CommandTopicFormat = DefaultCommandTopicFormat
	}
	if c.StateTopic == "" {
		c.StateTopic = DefaultStateTopic
	}
	if c.DispatchTopic == "" {
		c.DispatchTopic = DefaultDispatchTopic
	}
	if c.WriteIntervalMS == 0 {
		c.WriteIntervalMS = 500
	}
}

// Validate checks the broker address and topic format.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt: broker required")
	}
	if strings.Count(c.CommandTopicFormat, "%s") != 1 {
		return fmt.Errorf("mqtt: command_topic_format must contain exactly one %%s")
	}
	if c.WriteIntervalMS < 0 {
		return fmt.Errorf("mqtt: write_interval_ms must not be negative")
	}
	return nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("ca bundle %s holds no certificates", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (c Config) qos(kind string) byte {
	if q, ok := c.QoS[kind]; ok {
		return q
	}
	return 0
}
