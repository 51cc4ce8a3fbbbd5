package window

import "time"

// Interval is a charge period with opaque passthrough attributes such as the
// expected charge energy of a dispatch.
type Interval struct {
	Start      time.Time
	End        time.Time
	Attributes map[string]any
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration { return iv.End.Sub(iv.Start) }

// DurationMinutes returns the duration in minutes.
func (iv Interval) DurationMinutes() float64 { return iv.Duration().Minutes() }

// Overlaps reports whether iv intersects o, counting shared endpoints.
func (iv Interval) Overlaps(o Interval) bool {
	return !iv.Start.After(o.End) && !iv.End.Before(o.Start)
}

// Contains reports whether iv fully covers o.
func (iv Interval) Contains(o Interval) bool {
	return !iv.Start.After(o.Start) && !iv.End.Before(o.End)
}

func (iv Interval) String() string {
	return iv.Start.Format(clockLayout) + "-" + iv.End.Format(clockLayout)
}

func copyAttributes(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
