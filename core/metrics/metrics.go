package metrics

import (
	"time"

	"github.com/kilianp07/solischarge/core/model"
)

// ScheduleEvent describes one scheduling run.
type ScheduleEvent struct {
	RunID        string
	Device       string
	Layout       string
	Dispatches   int
	Rejected     int
	Absorbed     int
	Extras       int
	Dropped      int
	CoreMinutes  float64
	ExtraMinutes float64
	Time         time.Time
}

// NewScheduleEvent builds the event for a published schedule.
func NewScheduleEvent(s model.Schedule) ScheduleEvent {
	return ScheduleEvent{
		RunID:        s.RunID,
		Device:       s.Device,
		Layout:       s.Layout,
		Dispatches:   s.Dispatches,
		Rejected:     s.Rejected,
		Absorbed:     s.Absorbed,
		Extras:       s.Extras,
		Dropped:      s.Dropped,
		CoreMinutes:  s.CoreMinutes(),
		ExtraMinutes: s.ExtraMinutes(),
		Time:         s.CreatedAt,
	}
}

// MetricsSink records scheduling runs for observability purposes.
type MetricsSink interface {
	RecordSchedule(ev ScheduleEvent) error
}

// ApplyEvent captures the result of writing a schedule to an inverter.
type ApplyEvent struct {
	RunID     string
	Device    string
	Transport string
	Success   bool
	Error     string
	Latency   time.Duration
	Time      time.Time
}

// ApplyRecorder records schedule writes.
type ApplyRecorder interface {
	RecordApply(ev ApplyEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSchedule(ScheduleEvent) error { return nil }
func (NopSink) RecordApply(ApplyEvent) error       { return nil }

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSchedule forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordSchedule(ev ScheduleEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSchedule(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordApply forwards apply events to the sinks supporting them.
func (m *MultiSink) RecordApply(ev ApplyEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ApplyRecorder); ok {
			if err := rec.RecordApply(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every member sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		Close(s)
	}
}
