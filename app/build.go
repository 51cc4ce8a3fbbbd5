package app

import (
	"fmt"

	"github.com/kilianp07/solischarge/config"
	"github.com/kilianp07/solischarge/core/inverter"
	coremetrics "github.com/kilianp07/solischarge/core/metrics"
	"github.com/kilianp07/solischarge/core/scheduler"
	coresource "github.com/kilianp07/solischarge/core/source"
	"github.com/kilianp07/solischarge/infra/history"
	"github.com/kilianp07/solischarge/infra/logger"
	"github.com/kilianp07/solischarge/infra/mqtt"
	"github.com/kilianp07/solischarge/infra/solis"
	"github.com/kilianp07/solischarge/infra/source"
)

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	sched, err := scheduler.New(cfg.Scheduler, scheduler.WithLogger(logger.New("scheduler")))
	if err != nil {
		return nil, err
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	d := Deps{
		Scheduler: sched,
		Transport: cfg.Transport.Type,
		Sink:      sink,
		PromAddr:  cfg.Metrics.PrometheusAddr,
		Logger:    logg,
		Closers:   []func() error{func() error { coremetrics.Close(sink); return nil }},
	}
	if cfg.Planner.Enabled() {
		loc, err := cfg.Planner.Location()
		if err != nil {
			coremetrics.Close(sink)
			return nil, err
		}
		d.Cron, d.Location = cfg.Planner.Cron, loc
	}

	fail := func(err error) (*Service, error) {
		for _, c := range d.Closers {
			_ = c()
		}
		return nil, err
	}

	var client *mqtt.Client
	if cfg.Transport.Type == config.TransportMQTT || cfg.Source.Type == config.SourceMQTT {
		client, err = mqtt.NewClient(cfg.MQTT)
		if err != nil {
			return fail(fmt.Errorf("mqtt client: %w", err))
		}
		d.Closers = append(d.Closers, func() error { client.Disconnect(); return nil })
		d.State = mqtt.NewStatePublisher(client)
	}

	d.Writer, err = newWriter(cfg, client)
	if err != nil {
		return fail(err)
	}
	d.Source = newSource(cfg, client)

	if cfg.History.Enabled() {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return fail(fmt.Errorf("history: %w", err))
		}
		d.History = store
		d.Closers = append(d.Closers, store.Close)
	}
	return NewWithDeps(d)
}

func newWriter(cfg *config.Config, client *mqtt.Client) (inverter.ScheduleWriter, error) {
	switch cfg.Transport.Type {
	case config.TransportSolis:
		c, err := solis.New(cfg.Solis)
		if err != nil {
			return nil, fmt.Errorf("solis client: %w", err)
		}
		return c, nil
	case config.TransportMQTT:
		return mqtt.NewEntityWriter(client), nil
	}
	return nil, fmt.Errorf("unknown transport %s", cfg.Transport.Type)
}

func newSource(cfg *config.Config, client *mqtt.Client) coresource.Source {
	if cfg.Source.Type == config.SourceFile {
		return source.NewFile(cfg.Source.Path, cfg.Source.Debounce())
	}
	return mqtt.NewDispatchSubscriber(client)
}
