package window

import "time"

// SlotSize is the schedule grid accepted by the inverter.
const SlotSize = 30 * time.Minute

// Floor truncates t to the previous half-hour wall-clock boundary.
func Floor(t time.Time) time.Time {
	y, mo, d := t.Date()
	f := time.Date(y, mo, d, t.Hour(), t.Minute()-t.Minute()%30, 0, 0, t.Location())
	// a DST fold can map the wall time after t
	if f.After(t) {
		f = f.Add(-SlotSize)
	}
	return f
}

// Ceil rounds t up to the next half-hour boundary. Boundaries are kept as is.
func Ceil(t time.Time) time.Time {
	f := Floor(t)
	if f.Equal(t) {
		return f
	}
	return f.Add(SlotSize)
}

// Normalize aligns iv to the slot grid in loc. The start is floored and the
// end ceiled so the result always contains the input. A nil loc keeps the
// interval's own locations.
func Normalize(iv Interval, loc *time.Location) Interval {
	start, end := iv.Start, iv.End
	if loc != nil {
		start, end = start.In(loc), end.In(loc)
	}
	return Interval{
		Start:      Floor(start),
		End:        Ceil(end),
		Attributes: copyAttributes(iv.Attributes),
	}
}

// NormalizeAll normalizes every interval in ivs.
func NormalizeAll(ivs []Interval, loc *time.Location) []Interval {
	out := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		out = append(out, Normalize(iv, loc))
	}
	return out
}
