package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/solischarge/core/window"
)

// Schedule is the published record of one scheduling run.
type Schedule struct {
	RunID      string        `json:"run_id"`
	Device     string        `json:"device,omitempty"`
	Layout     string        `json:"layout"`
	Slots      []window.Slot `json:"slots"`
	Summary    string        `json:"summary"`
	CoreStart  time.Time     `json:"core_start"`
	CoreEnd    time.Time     `json:"core_end"`
	Dispatches int           `json:"dispatches"`
	Rejected   int           `json:"rejected"`
	Absorbed   int           `json:"absorbed"`
	Extras     int           `json:"extras"`
	Dropped    int           `json:"dropped"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewRunID returns a unique identifier for a scheduling run.
func NewRunID() string { return uuid.NewString() }

// ExtraMinutes sums the length of the non-core windows.
func (s Schedule) ExtraMinutes() float64 {
	total := 0.0
	for i, slot := range s.Slots {
		if i == 0 || slot.IsSentinel() {
			continue
		}
		start, err1 := window.ParseClock(slot.ChargeStartTime)
		end, err2 := window.ParseClock(slot.ChargeEndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		d := end.Minutes() - start.Minutes()
		if d <= 0 {
			d += 24 * 60
		}
		total += float64(d)
	}
	return total
}

// CoreMinutes returns the length of the core window.
func (s Schedule) CoreMinutes() float64 { return s.CoreEnd.Sub(s.CoreStart).Minutes() }
