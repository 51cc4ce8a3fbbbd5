package scheduler

import (
	"time"

	"github.com/kilianp07/solischarge/core/logger"
	"github.com/kilianp07/solischarge/core/model"
	"github.com/kilianp07/solischarge/core/window"
)

// Rejection records a dispatch dropped at the input boundary.
type Rejection struct {
	Index    int                   `json:"index"`
	Dispatch model.PlannedDispatch `json:"dispatch"`
	Reason   string                `json:"reason"`
}

// Plan is the full outcome of one scheduling run.
type Plan struct {
	Layout      window.Layout
	InitialCore window.Core
	Core        window.Core
	Accepted    int
	Rejected    []Rejection
	Normalized  []window.Interval
	Merged      []window.Interval
	Absorbed    []window.Interval
	Selection   window.Selection
	Slots       []window.Slot
	Summary     string
}

// Schedule converts the plan into a publishable record.
func (p Plan) Schedule(device string, at time.Time) model.Schedule {
	return model.Schedule{
		RunID:      model.NewRunID(),
		Device:     device,
		Layout:     p.Layout.String(),
		Slots:      p.Slots,
		Summary:    p.Summary,
		CoreStart:  p.Core.Start,
		CoreEnd:    p.Core.End,
		Dispatches: p.Accepted + len(p.Rejected),
		Rejected:   len(p.Rejected),
		Absorbed:   len(p.Absorbed),
		Extras:     len(p.Selection.Chosen),
		Dropped:    len(p.Selection.Dropped),
		CreatedAt:  at,
	}
}

// Scheduler computes charge schedules from dispatch states.
type Scheduler struct {
	layout   window.Layout
	bounds   window.Bounds
	mergeTol time.Duration
	abutTol  time.Duration
	device   string
	log      logger.Logger
	now      func() time.Time
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for pipeline tracing.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the wall clock used to anchor a core window when no
// dispatch is available.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New validates cfg and returns a Scheduler. It fails with ErrInvalidConfig
// instead of producing partial output.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	st, err := cfg.parse()
	if err != nil {
		return nil, err
	}
	s := &Scheduler{
		layout:   st.layout,
		bounds:   st.bounds,
		mergeTol: st.mergeTol,
		abutTol:  st.abutTol,
		device:   cfg.Device,
		log:      logger.NopLogger{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Layout returns the configured firmware layout.
func (s *Scheduler) Layout() window.Layout { return s.layout }

// Device returns the configured device selector, possibly empty.
func (s *Scheduler) Device() string { return s.device }

// Bounds returns the default core window bounds.
func (s *Scheduler) Bounds() window.Bounds { return s.bounds }

// CoreOnly renders the default core window without dispatches.
func (s *Scheduler) CoreOnly() Plan { return s.Plan(nil) }

// Plan runs the pipeline. Malformed dispatches are rejected individually and
// the run always yields exactly Layout().Slots() slots.
func (s *Scheduler) Plan(dispatches []model.PlannedDispatch) Plan {
	p := Plan{Layout: s.layout}
	renderer := window.Renderer{Bounds: s.bounds, Now: s.now}

	accepted := make([]window.Interval, 0, len(dispatches))
	for i, d := range dispatches {
		if reason := s.check(d); reason != "" {
			p.Rejected = append(p.Rejected, Rejection{Index: i, Dispatch: d, Reason: reason})
			s.log.Warnf("rejecting dispatch %d (%s - %s): %s", i, d.Start, d.End, reason)
			continue
		}
		accepted = append(accepted, window.Interval{Start: d.Start, End: d.End, Attributes: d.Attributes()})
	}
	p.Accepted = len(accepted)

	if len(accepted) == 0 {
		p.InitialCore = renderer.Resolve(window.Core{})
		p.Core = p.InitialCore
		s.log.Debugf("no usable dispatches, core window %s only", p.Core)
		return s.render(p, renderer)
	}

	// the first dispatch fixes the zone and the core anchor of the run
	loc := accepted[0].Start.Location()
	p.InitialCore = window.NewCore(accepted[0].Start, s.bounds)
	p.Normalized = window.NormalizeAll(accepted, loc)
	s.logIntervals("normalized", p.Normalized)

	p.Merged = window.Merge(p.Normalized, s.mergeTol)
	s.logIntervals("merged", p.Merged)

	rec := window.Reconcile(p.InitialCore, p.Merged, s.abutTol)
	p.Core = rec.Core
	p.Absorbed = rec.Absorbed
	s.log.Debugw("core reconciled", map[string]any{
		"initial":   p.InitialCore.String(),
		"final":     p.Core.String(),
		"absorbed":  len(rec.Absorbed),
		"remaining": len(rec.Remaining),
		"passes":    rec.Passes,
	})

	p.Selection = window.Select(rec.Remaining, p.Core, s.layout.Extras())
	for _, c := range p.Selection.Chosen {
		s.log.Debugf("selected %s score=%.3f duration=%.3f proximity=%.3f", c.Interval, c.Score, c.DurationScore, c.ProximityScore)
	}
	for _, c := range p.Selection.Dropped {
		s.log.Debugf("dropped %s score=%.3f", c.Interval, c.Score)
	}
	return s.render(p, renderer)
}

func (s *Scheduler) render(p Plan, r window.Renderer) Plan {
	p.Slots = r.Render(p.Core, p.Selection.Intervals(), s.layout)
	p.Summary = window.Summary(p.Slots)
	s.log.Infof("charge windows (%s): %s", s.layout, p.Summary)
	return p
}

func (s *Scheduler) check(d model.PlannedDispatch) string {
	switch {
	case d.Start.IsZero() && d.End.IsZero():
		return "missing start and end"
	case d.Start.IsZero():
		return "missing start"
	case d.End.IsZero():
		return "missing end"
	case !d.Start.Before(d.End):
		return "start is not before end"
	}
	return ""
}

func (s *Scheduler) logIntervals(stage string, ivs []window.Interval) {
	windows := make([]string, len(ivs))
	for i, iv := range ivs {
		windows[i] = iv.String()
	}
	s.log.Debugw(stage, map[string]any{"windows": windows})
}
