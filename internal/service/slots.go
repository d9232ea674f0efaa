package service

import (
	"time"
)

// SlotLength is the granularity of the operating window.
const SlotLength = 30 * time.Minute

// Interval is the half-open span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect.  Touching
// endpoints do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// OperatingWindow bounds the bookable day: slots start from OpenHour
// and the last one ends at CloseHour.
type OperatingWindow struct {
	OpenHour  int
	CloseHour int
}

// DefaultWindow is 10:00 to 23:00.
var DefaultWindow = OperatingWindow{OpenHour: 10, CloseHour: 23}

// TimeSlot is a free half-hour slot, rendered as wall-clock "HH:MM".
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AvailableSlots lists the half-hour slots of day within w that intersect
// none of busy.  day only contributes its date and location.
func AvailableSlots(day time.Time, busy []Interval, w OperatingWindow) []TimeSlot {
	y, m, d := day.Date()
	loc := day.Location()
	first := time.Date(y, m, d, w.OpenHour, 0, 0, 0, loc)
	last := time.Date(y, m, d, w.CloseHour, 0, 0, 0, loc)

	out := []TimeSlot{}
	for start := first; start.Before(last); start = start.Add(SlotLength) {
		slot := Interval{Start: start, End: start.Add(SlotLength)}
		free := true
		for _, b := range busy {
			if slot.Overlaps(b) {
				free = false
				break
			}
		}
		if free {
			out = append(out, TimeSlot{Start: slot.Start.Format("15:04"), End: slot.End.Format("15:04")})
		}
	}
	return out
}
