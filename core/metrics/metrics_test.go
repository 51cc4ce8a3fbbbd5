package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solischarge/core/factory"
	"github.com/kilianp07/solischarge/core/model"
	"github.com/kilianp07/solischarge/core/window"
)

type recordingSink struct {
	schedules []ScheduleEvent
	applies   []ApplyEvent
	err       error
}

func (r *recordingSink) RecordSchedule(ev ScheduleEvent) error {
	r.schedules = append(r.schedules, ev)
	return r.err
}

func (r *recordingSink) RecordApply(ev ApplyEvent) error {
	r.applies = append(r.applies, ev)
	return r.err
}

type scheduleOnly struct{ n int }

func (s *scheduleOnly) RecordSchedule(ScheduleEvent) error { s.n++; return nil }

func TestMultiSinkForwards(t *testing.T) {
	a := &recordingSink{}
	b := &scheduleOnly{}
	m := NewMultiSink(a, b)
	require.NoError(t, m.RecordSchedule(ScheduleEvent{RunID: "r1"}))
	require.NoError(t, m.RecordApply(ApplyEvent{RunID: "r1", Success: true}))
	assert.Len(t, a.schedules, 1)
	assert.Len(t, a.applies, 1)
	assert.Equal(t, 1, b.n)
}

func TestMultiSinkReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	m := NewMultiSink(&recordingSink{err: boom}, &recordingSink{})
	assert.ErrorIs(t, m.RecordSchedule(ScheduleEvent{}), boom)
}

func TestNewMetricsSink(t *testing.T) {
	s, err := NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, s)

	rec := &recordingSink{}
	require.NoError(t, RegisterMetricsSink("recording-test", func(map[string]any) (MetricsSink, error) {
		return rec, nil
	}))
	s, err = NewMetricsSink([]factory.ModuleConfig{{Type: "recording-test"}, {Type: "recording-test"}})
	require.NoError(t, err)
	assert.IsType(t, &MultiSink{}, s)

	_, err = NewMetricsSink([]factory.ModuleConfig{{Type: "unknown"}})
	assert.ErrorContains(t, err, "metrics sink 0 (unknown)")
}

type closingSink struct {
	NopSink
	closed bool
}

func (c *closingSink) Close() { c.closed = true }

func TestNewMetricsSinkDropsNopAndClosesOnError(t *testing.T) {
	require.NoError(t, RegisterMetricsSink("nop-test", func(map[string]any) (MetricsSink, error) {
		return NopSink{}, nil
	}))
	built := &closingSink{}
	require.NoError(t, RegisterMetricsSink("closing-test", func(map[string]any) (MetricsSink, error) {
		return built, nil
	}))

	s, err := NewMetricsSink([]factory.ModuleConfig{{Type: "nop-test"}, {Type: "closing-test"}})
	require.NoError(t, err)
	assert.Same(t, built, s)

	_, err = NewMetricsSink([]factory.ModuleConfig{{Type: "closing-test"}, {Type: "missing"}})
	assert.Error(t, err)
	assert.True(t, built.closed)
}

func TestNewScheduleEvent(t *testing.T) {
	start := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	ev := NewScheduleEvent(model.Schedule{
		RunID:     "r1",
		Layout:    "legacy",
		CoreStart: start,
		CoreEnd:   start.Add(6 * time.Hour),
		Extras:    1,
		Slots: []window.Slot{
			{ChargeStartTime: "23:30", ChargeEndTime: "05:30"},
			{ChargeStartTime: "13:00", ChargeEndTime: "14:00"},
			window.SentinelSlot(),
		},
		CreatedAt: start,
	})
	assert.Equal(t, 360.0, ev.CoreMinutes)
	assert.Equal(t, 60.0, ev.ExtraMinutes)
	assert.Equal(t, 1, ev.Extras)
	assert.Equal(t, start, ev.Time)
}
