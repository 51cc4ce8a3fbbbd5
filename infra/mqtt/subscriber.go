package mqtt

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/solischarge/core/model"
	"github.com/kilianp07/solischarge/core/source"
	"github.com/kilianp07/solischarge/infra/logger"
)

type subscriber interface {
	Subscribe(topic, kind string, handler paho.MessageHandler) error
}

// DispatchSubscriber turns messages on the dispatch topic into dispatch
// states. Payloads are the sensor attributes, a JSON object holding
// "planned_dispatches".
type DispatchSubscriber struct {
	sub   subscriber
	topic string
	log   logger.Logger
	now   func() time.Time
}

var _ source.Source = (*DispatchSubscriber)(nil)

// NewDispatchSubscriber returns a source reading the configured dispatch topic.
func NewDispatchSubscriber(c *Client) *DispatchSubscriber {
	return &DispatchSubscriber{sub: c, topic: c.Config().DispatchTopic, log: logger.New("mqtt_dispatch"), now: time.Now}
}

// Run subscribes and forwards decoded states until ctx ends. Undecodable
// payloads are logged and skipped.
func (d *DispatchSubscriber) Run(ctx context.Context, out chan<- model.DispatchState) error {
	msgs := make(chan []byte, 8)
	err := d.sub.Subscribe(d.topic, "dispatch", func(_ paho.Client, m paho.Message) {
		select {
		case msgs <- m.Payload():
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-msgs:
			st, err := model.DecodeDispatchState(b)
			if err != nil {
				d.log.Errorf("failed to decode dispatches on %s: %v", d.topic, err)
				continue
			}
			st.ReceivedAt = d.now()
			d.log.Debugf("received %d planned dispatches", len(st.PlannedDispatches))
			if !source.Deliver(ctx, out, st) {
				return nil
			}
		}
	}
}
