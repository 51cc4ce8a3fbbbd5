package window

import (
	"errors"
	"fmt"
)

// ErrMisaligned is returned for slot times off the half-hour grid.
var ErrMisaligned = errors.New("slot time not aligned to 30 minutes")

// ValidateSlots checks the slot count and that every charge time of a used
// slot is a valid "HH:MM" on the half-hour grid.
func ValidateSlots(slots []Slot, layout Layout) error {
	if len(slots) != layout.Slots() {
		return fmt.Errorf("%w: expected %d slots, got %d", ErrSlotCount, layout.Slots(), len(slots))
	}
	for i, s := range slots {
		if s.IsSentinel() {
			continue
		}
		for _, v := range []string{s.ChargeStartTime, s.ChargeEndTime} {
			c, err := ParseClock(v)
			if err != nil {
				return fmt.Errorf("slot %d: %w", i+1, err)
			}
			if c.Minute%30 != 0 {
				return fmt.Errorf("slot %d time %s: %w", i+1, v, ErrMisaligned)
			}
		}
	}
	return nil
}
