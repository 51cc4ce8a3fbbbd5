// Package mqtt connects the scheduler to an MQTT broker. It reads dispatch
// updates, writes charge slot entities and publishes the last schedule.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/solischarge/infra/logger"
)

// ErrNotConnected is returned when publishing without a client.
var ErrNotConnected = errors.New("mqtt: not connected")

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

type subscription struct {
	qos     byte
	handler paho.MessageHandler
}

// Client wraps a paho connection. Subscriptions are restored on reconnect.
type Client struct {
	cli        pahoClient
	cfg        Config
	log        logger.Logger
	maxRetries int
	backoff    time.Duration

	mu   sync.Mutex
	subs map[string]subscription
}

// NewClient connects to the broker described by cfg.
func NewClient(cfg Config) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_client")
	c := &Client{
		cfg:        cfg,
		log:        log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		subs:       make(map[string]subscription),
	}
	opts.OnConnect = func(pc paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
		c.resubscribe(pc)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	cli := newMQTTClient(opts)
	c.cli = cli
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return c, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }

// Subscribe registers handler for topic and subscribes immediately when
// connected. kind selects the QoS entry from the configuration.
func (c *Client) Subscribe(topic, kind string, handler paho.MessageHandler) error {
	sub := subscription{qos: c.cfg.qos(kind), handler: handler}
	c.mu.Lock()
	c.subs[topic] = sub
	c.mu.Unlock()
	if !c.cli.IsConnected() {
		return nil
	}
	if token := c.cli.Subscribe(topic, sub.qos, handler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	c.log.Infof("subscribed to %s", topic)
	return nil
}

func (c *Client) resubscribe(pc paho.Client) {
	c.mu.Lock()
	subs := make(map[string]subscription, len(c.subs))
	for t, s := range c.subs {
		subs[t] = s
	}
	c.mu.Unlock()
	for topic, s := range subs {
		if token := pc.Subscribe(topic, s.qos, s.handler); token.Wait() && token.Error() != nil {
			c.log.Errorf("subscribe error on %s: %v", topic, token.Error())
		}
	}
}

// Publish sends payload, retrying with exponential backoff. kind selects the
// QoS entry from the configuration.
func (c *Client) Publish(ctx context.Context, topic, kind string, retained bool, payload []byte) error {
	if c.cli == nil {
		return ErrNotConnected
	}
	qos := c.cfg.qos(kind)
	var publishErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		token := c.cli.Publish(topic, qos, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			c.log.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		c.log.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt == c.maxRetries {
			break
		}
		select {
		case <-time.After(c.backoff * time.Duration(1<<attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Disconnect gracefully closes the MQTT connection.
func (c *Client) Disconnect() {
	if c.cli != nil && c.cli.IsConnected() {
		c.cli.Disconnect(250)
	}
}
