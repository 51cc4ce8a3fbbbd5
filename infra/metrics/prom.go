package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/solischarge/core/metrics"
)

// PromSink records scheduling runs in Prometheus metrics.
type PromSink struct {
	runs       *prometheus.CounterVec
	dispatches *prometheus.CounterVec
	windows    *prometheus.GaugeVec
	minutes    *prometheus.GaugeVec
	applies    *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewPromSink registers schedule metrics on the default Prometheus registerer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_runs_total",
		Help: "Total number of scheduling runs",
	}, []string{"device", "layout"})); err != nil {
		return nil, err
	}
	if s.dispatches, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_dispatches_total",
		Help: "Planned dispatches seen by the scheduler, by outcome",
	}, []string{"device", "outcome"})); err != nil {
		return nil, err
	}
	if s.windows, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_extra_windows",
		Help: "Extra charge windows in the last schedule",
	}, []string{"device"})); err != nil {
		return nil, err
	}
	if s.minutes, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_charge_minutes",
		Help: "Charge minutes in the last schedule",
	}, []string{"device", "window"})); err != nil {
		return nil, err
	}
	if s.applies, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_applies_total",
		Help: "Schedule writes to the inverter",
	}, []string{"device", "transport", "success"})); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedule_apply_latency_seconds",
		Help:    "Time spent writing a schedule to the inverter",
		Buckets: prometheus.DefBuckets,
	}, []string{"device", "transport"})); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordSchedule updates counters and gauges for one run.
func (s *PromSink) RecordSchedule(ev coremetrics.ScheduleEvent) error {
	s.runs.WithLabelValues(ev.Device, ev.Layout).Inc()
	s.dispatches.WithLabelValues(ev.Device, "accepted").Add(float64(ev.Dispatches - ev.Rejected))
	s.dispatches.WithLabelValues(ev.Device, "rejected").Add(float64(ev.Rejected))
	s.dispatches.WithLabelValues(ev.Device, "absorbed").Add(float64(ev.Absorbed))
	s.dispatches.WithLabelValues(ev.Device, "dropped").Add(float64(ev.Dropped))
	s.windows.WithLabelValues(ev.Device).Set(float64(ev.Extras))
	s.minutes.WithLabelValues(ev.Device, "core").Set(ev.CoreMinutes)
	s.minutes.WithLabelValues(ev.Device, "extra").Set(ev.ExtraMinutes)
	return nil
}

// RecordApply counts the write and observes its latency.
func (s *PromSink) RecordApply(ev coremetrics.ApplyEvent) error {
	s.applies.WithLabelValues(ev.Device, ev.Transport, strconv.FormatBool(ev.Success)).Inc()
	s.latency.WithLabelValues(ev.Device, ev.Transport).Observe(ev.Latency.Seconds())
	return nil
}
