package domain

import "fmt"

// Slot is a one-hour teaching position, 1..13, mapped to clock times 09:00..21:00.
type Slot int

const (
	MinSlot Slot = 1
	MaxSlot Slot = 13
)

// Valid reports whether the slot falls in the protocol's 1..13 range.
func (s Slot) Valid() bool {
	return s >= MinSlot && s <= MaxSlot
}

// Shift is the half-day window a stream may occupy.
type Shift int

const (
	ShiftFirst Shift = iota
	ShiftSecond
)

func (s Shift) String() string {
	switch s {
	case ShiftFirst:
		return "first"
	case ShiftSecond:
		return "second"
	default:
		return fmt.Sprintf("Shift(%d)", int(s))
	}
}

// FirstShiftSlots are the five first-shift positions.
var FirstShiftSlots = []Slot{1, 2, 3, 4, 5}

// SecondShiftSlots are the eight second-shift positions.
var SecondShiftSlots = []Slot{6, 7, 8, 9, 10, 11, 12, 13}

// ExtendedFirstShiftSlots additionally admit the overflow pair 6,7, used only by
// first-shift streams once the strict first-shift slots are exhausted.
var ExtendedFirstShiftSlots = []Slot{1, 2, 3, 4, 5, 6, 7}

// AllowedSlots returns the slots a stream of the given shift may occupy.
// extended enables the Extended First overflow view for first-shift streams.
func AllowedSlots(shift Shift, extended bool) []Slot {
	switch shift {
	case ShiftFirst:
		if extended {
			return ExtendedFirstShiftSlots
		}
		return FirstShiftSlots
	case ShiftSecond:
		return SecondShiftSlots
	default:
		return nil
	}
}

var slotClockTimes = map[Slot]string{
	1: "09:00", 2: "10:00", 3: "11:00", 4: "12:00", 5: "13:00",
	6: "14:00", 7: "15:00", 8: "16:00", 9: "17:00", 10: "18:00",
	11: "19:00", 12: "20:00", 13: "21:00",
}

// ClockTime returns the bit-exact clock-time string the protocol associates with slot s.
func ClockTime(s Slot) (string, bool) {
	v, ok := slotClockTimes[s]
	return v, ok
}

// SlotForClockTime is the inverse of ClockTime, used when parsing instructor
// weekly-unavailable configuration.
func SlotForClockTime(clock string) (Slot, bool) {
	for slot, t := range slotClockTimes {
		if t == clock {
			return slot, true
		}
	}
	return 0, false
}
