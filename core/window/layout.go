package window

import (
	"errors"
	"fmt"
)

// ErrSlotCount is returned for slot counts other than the supported layouts.
var ErrSlotCount = errors.New("unsupported slot count")

// Layout is the number of charge slots exposed by the inverter firmware.
type Layout int

const (
	// LayoutLegacy is the three slot firmware layout.
	LayoutLegacy Layout = 3
	// LayoutExtended is the six slot firmware layout.
	LayoutExtended Layout = 6
)

// ParseLayout maps a slot count to its layout.
func ParseLayout(n int) (Layout, error) {
	switch Layout(n) {
	case LayoutLegacy, LayoutExtended:
		return Layout(n), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrSlotCount, n)
}

// Slots returns the number of slots of the layout.
func (l Layout) Slots() int { return int(l) }

// Extras returns how many windows fit besides the core window.
func (l Layout) Extras() int {
	if l <= 0 {
		return 0
	}
	return int(l) - 1
}

func (l Layout) String() string {
	switch l {
	case LayoutLegacy:
		return "legacy"
	case LayoutExtended:
		return "extended"
	}
	return fmt.Sprintf("layout(%d)", int(l))
}
