package window

import (
	"sort"
	"time"
)

// DefaultMergeTolerance absorbs rounding slack between contiguous intervals.
const DefaultMergeTolerance = time.Second

// Merge sorts ivs by start and coalesces intervals whose gap is at most
// tolerance. The sort is stable and the earlier interval keeps its
// attributes. The input slice is not modified.
func Merge(ivs []Interval, tolerance time.Duration) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Interval{sorted[0]}
	for _, next := range sorted[1:] {
		cur := &merged[len(merged)-1]
		if next.Start.Sub(cur.End) <= tolerance {
			if next.End.After(cur.End) {
				cur.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}
