package model

import (
    "fmt"
    "time"
)

// Layouts of the Date and Time fields of a showing.
const (
    DateLayout = "2006-01-02"
    TimeLayout = "15:04"
)

// Showing is a scheduled screening of a film in a room.  It embeds its
// own seat grid, cloned from the room template at creation, and the log
// of reservations made against that grid.  Both are persisted in the
// same row and always written together, guarded by Version.
//
// Fields:
//  ID           – primary key identifier.
//  FilmID       – film being screened.
//  RoomID       – room template the seats were cloned from.
//  Date, Time   – local start, "YYYY-MM-DD" and "HH:MM".
//  PriceCents   – ticket price in cents.
//  Seats        – availability grid.
//  Reservations – active reservations, one per unavailable seat.
//  Version      – incremented by every ledger write.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Showing struct {
    ID           uint64        `json:"id"`            // showings.id
    FilmID       uint64        `json:"film_id"`       // showings.film_id
    RoomID       uint64        `json:"room_id"`       // showings.room_id
    Date         string        `json:"date"`          // showings.date
    Time         string        `json:"time"`          // showings.time
    PriceCents   uint32        `json:"price_cents"`   // showings.price_cents
    Seats        []Seat        `json:"seats"`         // showings.seats (JSON)
    Reservations []Reservation `json:"reservations"`  // showings.reservations (JSON)
    Version      uint64        `json:"version"`       // showings.version
    CreatedAt    time.Time     `json:"created_at"`    // showings.created_at
    UpdatedAt    time.Time     `json:"updated_at"`    // showings.updated_at
}

// ParseStart combines a date and a wall-clock time into one instant in loc.
func ParseStart(date, clock string, loc *time.Location) (time.Time, error) {
    if loc == nil {
        loc = time.UTC
    }
    return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
}

// Start returns the start instant of the showing in loc.
func (s *Showing) Start(loc *time.Location) (time.Time, error) {
    return ParseStart(s.Date, s.Time, loc)
}

// SeatIndex returns the position of seat (row, number) in Seats or -1.
func (s *Showing) SeatIndex(row string, number uint32) int {
    for i := range s.Seats {
        if s.Seats[i].Row == row && s.Seats[i].Number == number {
            return i
        }
    }
    return -1
}

// ReservationIndex returns the position of reservation id or -1.
func (s *Showing) ReservationIndex(id string) int {
    for i := range s.Reservations {
        if s.Reservations[i].ID == id {
            return i
        }
    }
    return -1
}

// RemoveReservation drops the reservation at index i, keeping order.
func (s *Showing) RemoveReservation(i int) {
    s.Reservations = append(s.Reservations[:i], s.Reservations[i+1:]...)
}

// HasReservationsBy reports whether userID holds at least one seat.
func (s *Showing) HasReservationsBy(userID uint64) bool {
    for _, r := range s.Reservations {
        if r.UserID == userID {
            return true
        }
    }
    return false
}

// CheckLedger verifies that the seat grid and the reservation log agree:
// every unavailable seat is held by exactly one reservation, every
// reservation points at an existing unavailable seat, and the seat's
// ReservedBy/ReservedAt mirror the reservation.
func (s *Showing) CheckLedger() error {
    held := make(map[string]Reservation, len(s.Reservations))
    for _, r := range s.Reservations {
        key := r.SeatLabel()
        if _, dup := held[key]; dup {
            return fmt.Errorf("seat %s referenced by more than one reservation", key)
        }
        held[key] = r
    }
    taken := 0
    for _, seat := range s.Seats {
        r, ok := held[seat.Label()]
        if seat.Available {
            if ok {
                return fmt.Errorf("seat %s is available but reserved by %s", seat.Label(), r.ID)
            }
            continue
        }
        taken++
        if !ok {
            return fmt.Errorf("seat %s is unavailable without a reservation", seat.Label())
        }
        if seat.ReservedBy == nil || *seat.ReservedBy != r.UserID {
            return fmt.Errorf("seat %s reserved_by does not match reservation %s", seat.Label(), r.ID)
        }
        if seat.ReservedAt == nil || !seat.ReservedAt.Equal(r.ReservationDate) {
            return fmt.Errorf("seat %s reserved_at does not match reservation %s", seat.Label(), r.ID)
        }
    }
    if taken != len(s.Reservations) {
        return fmt.Errorf("%d reservations for %d unavailable seats", len(s.Reservations), taken)
    }
    return nil
}

// AvailableCount returns the number of free seats.
func (s *Showing) AvailableCount() int {
    n := 0
    for _, seat := range s.Seats {
        if seat.Available {
            n++
        }
    }
    return n
}
