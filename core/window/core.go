package window

import "time"

// Core is the always-charge overnight window. It only ever grows during a
// scheduling run.
type Core struct {
	Start time.Time
	End   time.Time
}

// NewCore anchors bounds to the calendar day of anchor, in anchor's location.
// An anchor before noon means tonight's schedule is already past midnight, so
// the core starts on the previous day. The end moves to the next day when it
// is not after the start.
func NewCore(anchor time.Time, b Bounds) Core {
	day := anchor
	if anchor.Hour() < 12 {
		day = anchor.AddDate(0, 0, -1)
	}
	start := b.Start.On(day)
	end := b.End.On(day)
	if !end.After(start) {
		end = b.End.On(day.AddDate(0, 0, 1))
	}
	return Core{Start: start, End: end}
}

// IsZero reports whether the core was never initialized.
func (c Core) IsZero() bool { return c.Start.IsZero() && c.End.IsZero() }

// Interval returns the core as a plain interval.
func (c Core) Interval() Interval { return Interval{Start: c.Start, End: c.End} }

// Duration returns the length of the core window.
func (c Core) Duration() time.Duration { return c.End.Sub(c.Start) }

// Covers reports whether c contains o.
func (c Core) Covers(o Core) bool { return c.Interval().Contains(o.Interval()) }

func (c Core) String() string { return c.Interval().String() }
