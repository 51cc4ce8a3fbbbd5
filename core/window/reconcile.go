package window

import "time"

// Reconciliation is the outcome of absorbing intervals into the core.
type Reconciliation struct {
	// Core is the grown core window.
	Core Core
	// Remaining holds the intervals independent of the core, in input order.
	Remaining []Interval
	// Absorbed holds the intervals merged into the core, in absorption order.
	Absorbed []Interval
	// Passes counts the scans needed to reach the fixed point.
	Passes int
}

// Reconcile absorbs every interval that overlaps or abuts core, extending it
// as needed. Extending the core can make a previously independent interval
// overlap, so the scan repeats until a pass makes no extension. Each pass
// either grows the core or terminates, which bounds the loop by len(ivs)+1.
func Reconcile(core Core, ivs []Interval, tolerance time.Duration) Reconciliation {
	res := Reconciliation{Core: core}
	remaining := make([]Interval, len(ivs))
	copy(remaining, ivs)

	for {
		res.Passes++
		extended := false
		kept := remaining[:0]
		for _, iv := range remaining {
			if !touches(res.Core, iv, tolerance) {
				kept = append(kept, iv)
				continue
			}
			if iv.Start.Before(res.Core.Start) {
				res.Core.Start = iv.Start
				extended = true
			}
			if iv.End.After(res.Core.End) {
				res.Core.End = iv.End
				extended = true
			}
			res.Absorbed = append(res.Absorbed, iv)
		}
		remaining = kept
		if !extended || len(remaining) == 0 {
			break
		}
	}
	res.Remaining = remaining
	return res
}

func touches(c Core, iv Interval, tolerance time.Duration) bool {
	return !iv.Start.After(c.End.Add(tolerance)) && !iv.End.Before(c.Start.Add(-tolerance))
}
