package mqtt

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/kilianp07/solischarge/core/window"
)

// publisher is the part of Client used by the adapters in this package.
type publisher interface {
	Publish(ctx context.Context, topic, kind string, retained bool, payload []byte) error
}

// EntityWriter programs charge slots by setting the inverter's Modbus time
// entities one at a time.
type EntityWriter struct {
	pub     publisher
	prefix  string
	format  string
	limiter *rate.Limiter
}

// NewEntityWriter returns a writer publishing through c.
func NewEntityWriter(c *Client) *EntityWriter {
	cfg := c.Config()
	return newEntityWriter(c, cfg.EntityPrefix, cfg.CommandTopicFormat, time.Duration(cfg.WriteIntervalMS)*time.Millisecond)
}

func newEntityWriter(pub publisher, prefix, format string, interval time.Duration) *EntityWriter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &EntityWriter{pub: pub, prefix: prefix, format: format, limiter: rate.NewLimiter(limit, 1)}
}

// WriteSchedule sets the start then end entity of every slot in order. A
// non-empty device replaces the configured entity prefix.
func (w *EntityWriter) WriteSchedule(ctx context.Context, device string, layout window.Layout, slots []window.Slot) error {
	if len(slots) != layout.Slots() {
		return fmt.Errorf("%w: expected %d slots, got %d", window.ErrSlotCount, layout.Slots(), len(slots))
	}
	prefix := w.prefix
	if device != "" {
		prefix = device
	}
	if prefix == "" {
		return fmt.Errorf("mqtt: entity prefix required")
	}
	for i, s := range slots {
		n := i + 1
		for _, e := range []struct{ kind, value string }{
			{EntityStart, s.ChargeStartTime},
			{EntityEnd, s.ChargeEndTime},
		} {
			if err := w.limiter.Wait(ctx); err != nil {
				return err
			}
			topic := CommandTopic(w.format, EntityID(prefix, e.kind, n))
			if err := w.pub.Publish(ctx, topic, "command", false, []byte(e.value)); err != nil {
				return fmt.Errorf("slot %d %s: %w", n, e.kind, err)
			}
		}
	}
	return nil
}
