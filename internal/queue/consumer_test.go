package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLine(t *testing.T) {
	line := FormatLine(ReservationEvent{
		Type:           EventReservationModified,
		ReservationIDs: []string{"r-1"},
		UserID:         4,
		ShowingID:      9,
		FilmTitle:      "Dune",
		Date:           "2030-01-02",
		Time:           "20:00",
		Seats:          []string{"B3"},
		PreviousSeat:   "A1",
		PriceCents:     950,
		OccurredAt:     "2030-01-01T10:00:00Z",
	})
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "reservation.modified")
	assert.Contains(t, line, `film="Dune"`)
	assert.Contains(t, line, "seats=[B3]")
	assert.Contains(t, line, "from=A1")
}

func TestBookingLogHandleAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	sink := BookingLog{Dir: dir}

	for _, seat := range []string{"A1", "A2"} {
		body, err := json.Marshal(ReservationEvent{Type: EventReservationCreated, Seats: []string{seat}})
		require.NoError(t, err)
		require.NoError(t, sink.Handle(body))
	}

	data, err := os.ReadFile(filepath.Join(dir, "booking.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "seats=[A2]")
}

func TestBookingLogHandleRejectsGarbage(t *testing.T) {
	sink := BookingLog{Dir: t.TempDir()}
	assert.Error(t, sink.Handle([]byte("{not json")))
	assert.Error(t, sink.Handle([]byte(`{"seats":["A1"]}`)))
}
