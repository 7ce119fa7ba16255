// Package schedule holds the pure parsing and time primitives behind
// timetable generation. Availability strings come straight from the admin
// front-end, so parsing is deliberately permissive: anything that does not
// match the grammar is rejected with ok=false rather than an error, and
// callers drop the entry.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AvailabilitySlot is one normalized weekly slot: a weekday plus minutes
// since midnight (0-1439).
type AvailabilitySlot struct {
	Weekday      time.Weekday
	ClockMinutes int
}

// Weekdays lists the grid ordering used for weekly views, Monday first.
var Weekdays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Parse normalizes a raw availability string of the form
// "Monday-04:00pm". The legacy compact form without minutes ("Monday-4pm")
// is accepted and implies :00. Weekday and meridiem are case-insensitive.
// ok is false for any deviation from the grammar.
func Parse(raw string) (AvailabilitySlot, bool) {
	day, clock, found := strings.Cut(strings.TrimSpace(raw), "-")
	if !found {
		return AvailabilitySlot{}, false
	}
	weekday, ok := weekdayNames[strings.ToLower(strings.TrimSpace(day))]
	if !ok {
		return AvailabilitySlot{}, false
	}
	minutes, ok := parseClock(strings.TrimSpace(clock))
	if !ok {
		return AvailabilitySlot{}, false
	}
	return AvailabilitySlot{Weekday: weekday, ClockMinutes: minutes}, true
}

// Minutes returns the slot's minute-of-day for ordering comparisons.
func (s AvailabilitySlot) Minutes() int {
	return s.ClockMinutes
}

// Format renders the slot's time for display, always zero-padded: "04:00 pm".
func (s AvailabilitySlot) Format() string {
	hour24 := s.ClockMinutes / 60
	minute := s.ClockMinutes % 60
	meridiem := "am"
	if hour24 >= 12 {
		meridiem = "pm"
	}
	hour := hour24 % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%02d:%02d %s", hour, minute, meridiem)
}

// String renders the canonical raw form, e.g. "Monday-04:00pm".
func (s AvailabilitySlot) String() string {
	hour24 := s.ClockMinutes / 60
	minute := s.ClockMinutes % 60
	meridiem := "am"
	if hour24 >= 12 {
		meridiem = "pm"
	}
	hour := hour24 % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%s-%02d:%02d%s", s.Weekday, hour, minute, meridiem)
}

// At pins the slot onto a concrete calendar date in UTC. The caller is
// responsible for passing a date whose weekday matches the slot.
func (s AvailabilitySlot) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), s.ClockMinutes/60, s.ClockMinutes%60, 0, 0, time.UTC)
}

// parseClock converts "HH:MMam", "HH:MMpm" or the minute-less legacy "HHam"
// into minutes since midnight. Hour 12am maps to 0, 12pm to 720.
func parseClock(raw string) (int, bool) {
	lower := strings.ToLower(raw)
	var pm bool
	switch {
	case strings.HasSuffix(lower, "am"):
	case strings.HasSuffix(lower, "pm"):
		pm = true
	default:
		return 0, false
	}
	body := strings.TrimSpace(lower[:len(lower)-2])
	if body == "" {
		return 0, false
	}

	hourPart, minutePart, hasMinutes := strings.Cut(body, ":")
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}
	minute := 0
	if hasMinutes {
		minute, err = strconv.Atoi(minutePart)
		if err != nil || minutePart == "" || minute < 0 || minute > 59 {
			return 0, false
		}
	}

	minutes := hour % 12 * 60
	minutes += minute
	if pm {
		minutes += 720
	}
	return minutes, true
}
