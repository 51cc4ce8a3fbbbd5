package window

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Score weights.
const (
	DurationWeight  = 0.7
	ProximityWeight = 0.3
)

// Candidate is an independent window with its selection score.
type Candidate struct {
	Interval       Interval
	DurationScore  float64
	ProximityScore float64
	Score          float64
}

// Selection splits the candidates into chosen and dropped windows.
type Selection struct {
	// Chosen is sorted by ascending start time.
	Chosen []Candidate
	// Dropped is sorted by descending score.
	Dropped []Candidate
}

// Intervals returns the chosen intervals.
func (s Selection) Intervals() []Interval {
	out := make([]Interval, 0, len(s.Chosen))
	for _, c := range s.Chosen {
		out = append(out, c.Interval)
	}
	return out
}

// Score rates every candidate with a positive duration. Longer windows and
// windows that end shortly before the core starts score higher. The result
// keeps the input order.
func Score(candidates []Interval, core Core) []Candidate {
	usable := make([]Interval, 0, len(candidates))
	for _, iv := range candidates {
		if iv.Duration() > 0 {
			usable = append(usable, iv)
		}
	}
	if len(usable) == 0 {
		return nil
	}
	durations := make([]float64, len(usable))
	for i, iv := range usable {
		durations[i] = iv.DurationMinutes()
	}
	longest := floats.Max(durations)

	out := make([]Candidate, len(usable))
	for i, iv := range usable {
		c := Candidate{Interval: iv, ProximityScore: proximity(iv.End, core.Start)}
		if longest > 0 {
			c.DurationScore = durations[i] / longest
		}
		c.Score = DurationWeight*c.DurationScore + ProximityWeight*c.ProximityScore
		out[i] = c
	}
	return out
}

// Select keeps at most limit candidates by descending score, ties going to
// the earlier candidate, and returns them ordered by start time.
func Select(candidates []Interval, core Core, limit int) Selection {
	ranked := Score(candidates, core)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if limit < 0 {
		limit = 0
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	chosen := make([]Candidate, limit)
	copy(chosen, ranked[:limit])
	sort.SliceStable(chosen, func(i, j int) bool {
		return chosen[i].Interval.Start.Before(chosen[j].Interval.Start)
	})
	return Selection{Chosen: chosen, Dropped: ranked[limit:]}
}

// proximity is 1 when end meets the core start and decays linearly over the
// following day, measured forward on the wall clock.
func proximity(end, coreStart time.Time) float64 {
	cs := coreStart.In(end.Location())
	target := time.Duration(ClockOf(cs).Minutes()) * time.Minute
	at := time.Duration(end.Hour())*time.Hour + time.Duration(end.Minute())*time.Minute + time.Duration(end.Second())*time.Second
	gap := (target - at).Minutes()
	if gap < 0 {
		gap += minutesPerDay
	}
	return 1 - math.Min(gap, minutesPerDay)/minutesPerDay
}
