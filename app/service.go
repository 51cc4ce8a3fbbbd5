// Package app wires dispatch sources, the scheduler and the inverter
// transport into a long running service.
package app

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/solischarge/core/inverter"
	coremetrics "github.com/kilianp07/solischarge/core/metrics"
	"github.com/kilianp07/solischarge/core/model"
	"github.com/kilianp07/solischarge/core/scheduler"
	"github.com/kilianp07/solischarge/core/source"
	"github.com/kilianp07/solischarge/core/window"
	"github.com/kilianp07/solischarge/infra/logger"
	"github.com/kilianp07/solischarge/infra/metrics"
	"github.com/kilianp07/solischarge/internal/eventbus"
)

// HistoryStore records published schedules.
type HistoryStore interface {
	Append(ctx context.Context, s model.Schedule) error
}

// StatePublisher announces the latest schedule.
type StatePublisher interface {
	Publish(ctx context.Context, s model.Schedule) error
}

// Deps are the collaborators of a Service. Only Scheduler and Writer are
// required.
type Deps struct {
	Scheduler *scheduler.Scheduler
	Writer    inverter.ScheduleWriter
	Transport string
	Source    source.Source
	Sink      coremetrics.MetricsSink
	History   HistoryStore
	State     StatePublisher
	// Cron replans from the last dispatch state. Empty disables it.
	Cron     string
	Location *time.Location
	// PromAddr serves /metrics when set.
	PromAddr string
	Logger   logger.Logger
	Now      func() time.Time
	Closers  []func() error
}

// Service orchestrates planning and writing schedules.
type Service struct {
	sched     *scheduler.Scheduler
	writer    inverter.ScheduleWriter
	transport string
	src       source.Source
	sink      coremetrics.MetricsSink
	history   HistoryStore
	state     StatePublisher
	bus       *eventbus.Bus[model.Schedule]
	cronSpec  string
	loc       *time.Location
	promAddr  string
	log       logger.Logger
	now       func() time.Time
	closers   []func() error

	mu      sync.Mutex
	last    model.DispatchState
	applied []window.Slot
}

// NewWithDeps builds a Service from explicit collaborators.
func NewWithDeps(d Deps) (*Service, error) {
	if d.Scheduler == nil || d.Writer == nil {
		return nil, fmt.Errorf("app: scheduler and writer are required")
	}
	s := &Service{
		sched:     d.Scheduler,
		writer:    inverter.NewSerializedWriter(inverter.ValidatingWriter{Next: d.Writer}),
		transport: d.Transport,
		src:       d.Source,
		sink:      d.Sink,
		history:   d.History,
		state:     d.State,
		bus:       eventbus.New[model.Schedule](0),
		cronSpec:  d.Cron,
		loc:       d.Location,
		promAddr:  d.PromAddr,
		log:       d.Logger,
		now:       d.Now,
		closers:   d.Closers,
	}
	if s.sink == nil {
		s.sink = coremetrics.NopSink{}
	}
	if s.log == nil {
		s.log = logger.New("service")
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s, nil
}

// Bus exposes published schedules.
func (s *Service) Bus() *eventbus.Bus[model.Schedule] { return s.bus }

// PlanSchedule runs the scheduler on st. A run that panics or renders
// invalid slots falls back to the default core window.
func (s *Service) PlanSchedule(st model.DispatchState) (sch model.Schedule) {
	at := s.now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("scheduling failed, falling back to core hours: %v", r)
			sch = s.sched.CoreOnly().Schedule(s.sched.Device(), at)
		}
	}()
	plan := s.sched.Plan(st.PlannedDispatches)
	if err := window.ValidateSlots(plan.Slots, plan.Layout); err != nil {
		s.log.Errorf("invalid slots %s, falling back to core hours: %v", plan.Summary, err)
		plan = s.sched.CoreOnly()
	}
	return plan.Schedule(s.sched.Device(), at)
}

// Apply plans st and writes the result to the inverter. The schedule is
// published only when the write succeeds.
func (s *Service) Apply(ctx context.Context, st model.DispatchState) (model.Schedule, error) {
	sch := s.PlanSchedule(st)
	return sch, s.write(ctx, sch)
}

func (s *Service) write(ctx context.Context, sch model.Schedule) error {
	start := s.now()
	err := s.writer.WriteSchedule(ctx, sch.Device, s.sched.Layout(), sch.Slots)
	s.recordApply(sch, err, s.now().Sub(start))
	if err != nil {
		s.log.Errorf("write schedule %s: %v", sch.RunID, err)
		return fmt.Errorf("write schedule: %w", err)
	}
	s.mu.Lock()
	s.applied = slices.Clone(sch.Slots)
	s.mu.Unlock()
	s.log.Infof("applied schedule %s: %s", sch.RunID, sch.Summary)
	s.bus.Publish(sch)
	return nil
}

func (s *Service) recordApply(sch model.Schedule, err error, latency time.Duration) {
	rec, ok := s.sink.(coremetrics.ApplyRecorder)
	if !ok {
		return
	}
	ev := coremetrics.ApplyEvent{
		RunID:     sch.RunID,
		Device:    sch.Device,
		Transport: s.transport,
		Success:   err == nil,
		Latency:   latency,
		Time:      s.now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if rerr := rec.RecordApply(ev); rerr != nil {
		s.log.Warnf("record apply: %v", rerr)
	}
}

// update applies st unless the inverter already holds the same slots.
func (s *Service) update(ctx context.Context, st model.DispatchState) {
	s.mu.Lock()
	s.last = st
	s.mu.Unlock()
	sch := s.PlanSchedule(st)
	s.mu.Lock()
	unchanged := s.applied != nil && slices.Equal(s.applied, sch.Slots)
	s.mu.Unlock()
	if unchanged {
		s.log.Debugf("schedule unchanged (%s), skipping write", sch.Summary)
		return
	}
	_ = s.write(ctx, sch)
}

func (s *Service) replan(ctx context.Context) {
	s.mu.Lock()
	st := s.last
	s.mu.Unlock()
	s.log.Debugf("periodic replan with %d dispatches", len(st.PlannedDispatches))
	s.update(ctx, st)
}

func (s *Service) startHandlers(ctx context.Context) []<-chan struct{} {
	done := []<-chan struct{}{metrics.StartScheduleCollector(ctx, s.bus, s.sink)}
	if s.history != nil {
		done = append(done, s.bus.Handle(ctx, func(ctx context.Context, sch model.Schedule) {
			if err := s.history.Append(ctx, sch); err != nil {
				s.log.Errorf("history append %s: %v", sch.RunID, err)
			}
		}))
	}
	if s.state != nil {
		done = append(done, s.bus.Handle(ctx, func(ctx context.Context, sch model.Schedule) {
			if err := s.state.Publish(ctx, sch); err != nil {
				s.log.Errorf("publish state %s: %v", sch.RunID, err)
			}
		}))
	}
	return done
}

// Run consumes the dispatch source and the replan schedule until ctx is
// cancelled or the source fails.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	handlers := s.startHandlers(ctx)
	defer func() {
		cancel()
		for _, d := range handlers {
			<-d
		}
	}()

	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	if s.cronSpec != "" {
		c := cron.New(cron.WithLocation(s.loc))
		if _, err := c.AddFunc(s.cronSpec, func() { s.replan(ctx) }); err != nil {
			return fmt.Errorf("planner cron: %w", err)
		}
		c.Start()
		defer func() {
			cancel()
			<-c.Stop().Done()
		}()
		s.log.Infof("replanning on %q", s.cronSpec)
	}

	updates := make(chan model.DispatchState, 1)
	srcErr := make(chan error, 1)
	if s.src != nil {
		go func() { srcErr <- s.src.Run(ctx, updates) }()
	}
	s.log.Infof("service started with %s layout over %s", s.sched.Layout(), s.transport)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-srcErr:
			if err != nil {
				return fmt.Errorf("dispatch source: %w", err)
			}
			return nil
		case st := <-updates:
			s.update(ctx, st)
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
