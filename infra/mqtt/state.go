package mqtt

import (
	"context"
	"encoding/json"

	"github.com/kilianp07/solischarge/core/model"
)

// StatePublisher publishes the latest schedule as a retained message so new
// subscribers see it immediately.
type StatePublisher struct {
	pub   publisher
	topic string
}

// NewStatePublisher returns a publisher for the configured state topic.
func NewStatePublisher(c *Client) *StatePublisher {
	return &StatePublisher{pub: c, topic: c.Config().StateTopic}
}

// Publish sends s as JSON.
func (p *StatePublisher) Publish(ctx context.Context, s model.Schedule) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.pub.Publish(ctx, p.topic, "state", true, b)
}
