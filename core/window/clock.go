package window

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBadClock is returned when a time of day cannot be parsed.
var ErrBadClock = errors.New("invalid clock time")

const (
	minutesPerDay = 24 * 60
	clockLayout   = "15:04"
)

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" string.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return Clock{}, fmt.Errorf("%w %q", ErrBadClock, s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ClockOf returns the wall-clock time of t in its own location.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes returns the number of minutes since midnight.
func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

// On places the clock on the calendar day of day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Bounds are the default wall-clock limits of the core window.
type Bounds struct {
	Start Clock
	End   Clock
}

// Default core window limits.
const (
	DefaultCoreStart = "23:30"
	DefaultCoreEnd   = "05:30"
)

// DefaultBounds returns the 23:30-05:30 overnight window.
func DefaultBounds() Bounds {
	return Bounds{Start: Clock{Hour: 23, Minute: 30}, End: Clock{Hour: 5, Minute: 30}}
}

// ParseBounds parses start and end "HH:MM" strings.
func ParseBounds(start, end string) (Bounds, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Bounds{}, fmt.Errorf("core start: %w", err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return Bounds{}, fmt.Errorf("core end: %w", err)
	}
	if s == e {
		return Bounds{}, fmt.Errorf("%w: core window %s-%s is empty", ErrBadClock, s, e)
	}
	return Bounds{Start: s, End: e}, nil
}

func (b Bounds) String() string { return b.Start.String() + "-" + b.End.String() }
