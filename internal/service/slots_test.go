package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time { return time.Date(2030, 1, 2, h, m, 0, 0, time.UTC) }

func TestIntervalOverlapIsHalfOpen(t *testing.T) {
	a := Interval{Start: at(10, 0), End: at(12, 0)}
	assert.True(t, a.Overlaps(Interval{Start: at(11, 30), End: at(13, 0)}))
	assert.False(t, a.Overlaps(Interval{Start: at(12, 0), End: at(13, 30)}))
	assert.False(t, a.Overlaps(Interval{Start: at(8, 0), End: at(10, 0)}))
	assert.True(t, a.Overlaps(Interval{Start: at(10, 30), End: at(11, 0)}))
}

func TestAvailableSlotsEmptyDay(t *testing.T) {
	slots := AvailableSlots(at(0, 0), nil, DefaultWindow)
	assert.Len(t, slots, 26)
	assert.Equal(t, TimeSlot{Start: "10:00", End: "10:30"}, slots[0])
	assert.Equal(t, TimeSlot{Start: "22:30", End: "23:00"}, slots[len(slots)-1])
}

func TestAvailableSlotsSkipsBusyIntervals(t *testing.T) {
	busy := []Interval{{Start: at(10, 0), End: at(12, 0)}, {Start: at(20, 15), End: at(21, 0)}}
	slots := AvailableSlots(at(0, 0), busy, OperatingWindow{OpenHour: 10, CloseHour: 13})

	var got []string
	for _, s := range slots {
		got = append(got, s.Start)
	}
	assert.Equal(t, []string{"12:00", "12:30"}, got)

	evening := AvailableSlots(at(0, 0), busy, OperatingWindow{OpenHour: 20, CloseHour: 22})
	var starts []string
	for _, s := range evening {
		starts = append(starts, s.Start)
	}
	assert.Equal(t, []string{"21:00", "21:30"}, starts)
}
