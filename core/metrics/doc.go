// Package metrics defines the observability sinks for scheduling runs.
// A sink records ScheduleEvent values and may also implement ApplyRecorder
// to track writes to the inverter. Sinks are built from configuration
// through RegisterMetricsSink and combined with NewMultiSink.
package metrics
