package mqtt

import "fmt"

// Entity kinds for the charge slot time entities.
const (
	EntityStart = "start"
	EntityEnd   = "end"
)

// EntityID names the time entity for one edge of a charge slot. Slots are
// numbered from 1.
func EntityID(prefix, kind string, slot int) string {
	return fmt.Sprintf("%s_time_charging_charge_%s_slot_%d", prefix, kind, slot)
}

// CommandTopic returns the topic used to set entity.
func CommandTopic(format, entity string) string {
	return fmt.Sprintf(format, entity)
}
