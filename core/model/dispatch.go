package model

import (
	"encoding/json"
	"strings"
	"time"
)

// PlannedDispatch is one utility dispatch period. Start or End are zero when
// the source omitted them or carried an unparseable timestamp.
type PlannedDispatch struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	ChargeKWh *float64  `json:"charge_in_kwh,omitempty"`
	Source    string    `json:"source,omitempty"`
	Location  string    `json:"location,omitempty"`
}

// DispatchState is the dispatch sensor payload.
type DispatchState struct {
	PlannedDispatches []PlannedDispatch `json:"planned_dispatches"`
	ReceivedAt        time.Time         `json:"-"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// UnmarshalJSON decodes a dispatch leniently so one bad entry does not fail
// the whole payload.
func (d *PlannedDispatch) UnmarshalJSON(b []byte) error {
	var raw struct {
		Start     *string         `json:"start"`
		End       *string         `json:"end"`
		ChargeKWh *float64        `json:"charge_in_kwh"`
		Source    *string         `json:"source"`
		Location  json.RawMessage `json:"location"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = PlannedDispatch{ChargeKWh: raw.ChargeKWh}
	if raw.Start != nil {
		d.Start = parseTimestamp(*raw.Start)
	}
	if raw.End != nil {
		d.End = parseTimestamp(*raw.End)
	}
	if raw.Source != nil {
		d.Source = *raw.Source
	}
	var loc string
	if json.Unmarshal(raw.Location, &loc) == nil {
		d.Location = loc
	}
	return nil
}

// DecodeDispatchState parses a dispatch sensor payload. An empty payload is a
// valid state without dispatches.
func DecodeDispatchState(b []byte) (DispatchState, error) {
	var st DispatchState
	if len(strings.TrimSpace(string(b))) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return DispatchState{}, err
	}
	return st, nil
}

// Attributes returns the passthrough attributes carried by the dispatch.
func (d PlannedDispatch) Attributes() map[string]any {
	attrs := map[string]any{}
	if d.ChargeKWh != nil {
		attrs["charge_in_kwh"] = *d.ChargeKWh
	}
	if d.Source != "" {
		attrs["source"] = d.Source
	}
	if d.Location != "" {
		attrs["location"] = d.Location
	}
	return attrs
}
