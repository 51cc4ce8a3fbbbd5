package window

import (
	"strings"
	"time"
)

// Fixed slot values. Discharge scheduling is always disabled.
const (
	ChargeCurrent    = "60"
	DischargeCurrent = "100"
	ZeroTime         = "00:00"
)

// Slot is one charge/discharge time pair of the inverter schedule.
type Slot struct {
	ChargeCurrent      string `json:"chargeCurrent"`
	DischargeCurrent   string `json:"dischargeCurrent"`
	ChargeStartTime    string `json:"chargeStartTime"`
	DischargeStartTime string `json:"dischargeStartTime"`
	ChargeEndTime      string `json:"chargeEndTime"`
	DischargeEndTime   string `json:"dischargeEndTime"`
}

// SentinelSlot returns the placeholder for an unused slot.
func SentinelSlot() Slot { return chargeSlot(ZeroTime, ZeroTime) }

// IsSentinel reports whether the slot carries no charge window.
func (s Slot) IsSentinel() bool {
	return s.ChargeStartTime == ZeroTime && s.ChargeEndTime == ZeroTime
}

// Window formats the charge window as "HH:MM-HH:MM".
func (s Slot) Window() string { return s.ChargeStartTime + "-" + s.ChargeEndTime }

func chargeSlot(start, end string) Slot {
	return Slot{
		ChargeCurrent:      ChargeCurrent,
		DischargeCurrent:   DischargeCurrent,
		ChargeStartTime:    start,
		DischargeStartTime: ZeroTime,
		ChargeEndTime:      end,
		DischargeEndTime:   ZeroTime,
	}
}

func intervalSlot(iv Interval) Slot {
	return chargeSlot(iv.Start.Format(clockLayout), iv.End.Format(clockLayout))
}

// Renderer turns a reconciled core and its extra windows into slots.
type Renderer struct {
	Bounds Bounds
	// Now anchors a core that was never initialized. Defaults to time.Now.
	Now func() time.Time
}

// Resolve returns core, or a core anchored to the current time when core was
// never initialized.
func (r Renderer) Resolve(core Core) Core {
	if !core.IsZero() {
		return core
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	b := r.Bounds
	if b == (Bounds{}) {
		b = DefaultBounds()
	}
	return NewCore(now(), b)
}

// Render returns exactly layout.Slots() slots: the core window first, then
// the extras by ascending start, then sentinels. Extras beyond the layout
// capacity are ignored.
func (r Renderer) Render(core Core, extras []Interval, layout Layout) []Slot {
	n := layout.Slots()
	if n <= 0 {
		return nil
	}
	slots := make([]Slot, 0, n)
	slots = append(slots, intervalSlot(r.Resolve(core).Interval()))
	for _, iv := range extras {
		if len(slots) == n {
			break
		}
		slots = append(slots, intervalSlot(iv))
	}
	for len(slots) < n {
		slots = append(slots, SentinelSlot())
	}
	return slots
}

// Summary joins the non-sentinel windows as "HH:MM-HH:MM, HH:MM-HH:MM".
func Summary(slots []Slot) string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		if s.IsSentinel() {
			continue
		}
		parts = append(parts, s.Window())
	}
	return strings.Join(parts, ", ")
}
