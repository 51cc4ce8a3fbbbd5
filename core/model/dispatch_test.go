package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solischarge/core/window"
)

func TestDecodeDispatchState(t *testing.T) {
	payload := `{"planned_dispatches":[
		{"start":"2024-03-10T22:00:00+00:00","end":"2024-03-10T23:45:00+00:00","charge_in_kwh":-1.25,"source":"smart-charge","location":null},
		{"start":"2024-03-11 01:00:00+01:00","end":"not a time"},
		{"end":"2024-03-11T03:00:00Z"}
	]}`
	st, err := DecodeDispatchState([]byte(payload))
	require.NoError(t, err)
	require.Len(t, st.PlannedDispatches, 3)

	first := st.PlannedDispatches[0]
	assert.True(t, first.Start.Equal(time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)))
	require.NotNil(t, first.ChargeKWh)
	assert.Equal(t, -1.25, *first.ChargeKWh)
	assert.Equal(t, "smart-charge", first.Source)
	assert.Empty(t, first.Location)
	assert.Equal(t, map[string]any{"charge_in_kwh": -1.25, "source": "smart-charge"}, first.Attributes())

	second := st.PlannedDispatches[1]
	_, offset := second.Start.Zone()
	assert.Equal(t, 3600, offset)
	assert.True(t, second.End.IsZero())

	assert.True(t, st.PlannedDispatches[2].Start.IsZero())
}

func TestDecodeDispatchStateEmpty(t *testing.T) {
	st, err := DecodeDispatchState(nil)
	require.NoError(t, err)
	assert.Empty(t, st.PlannedDispatches)

	st, err = DecodeDispatchState([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, st.PlannedDispatches)

	_, err = DecodeDispatchState([]byte(`{"planned_dispatches":`))
	assert.Error(t, err)
}

func TestScheduleMinutes(t *testing.T) {
	start := time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)
	s := Schedule{
		CoreStart: start,
		CoreEnd:   start.Add(7*time.Hour + 30*time.Minute),
		Slots: []window.Slot{
			{ChargeStartTime: "22:00", ChargeEndTime: "05:30"},
			{ChargeStartTime: "13:00", ChargeEndTime: "14:30"},
			window.SentinelSlot(),
		},
	}
	assert.Equal(t, 450.0, s.CoreMinutes())
	assert.Equal(t, 90.0, s.ExtraMinutes())
	assert.NotEqual(t, NewRunID(), NewRunID())
}
