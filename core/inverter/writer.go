// Package inverter defines how rendered charge slots reach an inverter.
package inverter

import (
	"context"
	"sync"

	"github.com/kilianp07/solischarge/core/window"
)

// ScheduleWriter programs the charge slots of one inverter.
type ScheduleWriter interface {
	WriteSchedule(ctx context.Context, device string, layout window.Layout, slots []window.Slot) error
}

// WriterFunc adapts a function to ScheduleWriter.
type WriterFunc func(ctx context.Context, device string, layout window.Layout, slots []window.Slot) error

func (f WriterFunc) WriteSchedule(ctx context.Context, device string, layout window.Layout, slots []window.Slot) error {
	return f(ctx, device, layout, slots)
}

// SerializedWriter allows at most one in-flight write per device. Writes to
// different devices proceed in parallel.
type SerializedWriter struct {
	next  ScheduleWriter
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewSerializedWriter wraps next.
func NewSerializedWriter(next ScheduleWriter) *SerializedWriter {
	return &SerializedWriter{next: next, locks: make(map[string]chan struct{})}
}

func (w *SerializedWriter) lock(device string) chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch, ok := w.locks[device]
	if !ok {
		ch = make(chan struct{}, 1)
		w.locks[device] = ch
	}
	return ch
}

// WriteSchedule waits for the device to be free, then delegates. It gives up
// with ctx.Err() if the context ends while waiting.
func (w *SerializedWriter) WriteSchedule(ctx context.Context, device string, layout window.Layout, slots []window.Slot) error {
	sem := w.lock(device)
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sem }()
	return w.next.WriteSchedule(ctx, device, layout, slots)
}

// ValidatingWriter rejects malformed slot sets before they reach next.
type ValidatingWriter struct {
	Next ScheduleWriter
}

func (v ValidatingWriter) WriteSchedule(ctx context.Context, device string, layout window.Layout, slots []window.Slot) error {
	if err := window.ValidateSlots(slots, layout); err != nil {
		return err
	}
	return v.Next.WriteSchedule(ctx, device, layout, slots)
}
