package model

import (
    "fmt"
    "strings"
    "time"
)

// Seat is one physical position inside a showing's copied grid.  A seat
// is uniquely identified by (Row, Number) within its showing.  When
// Available is false, ReservedBy and ReservedAt mirror the user and
// reservation date of the single reservation that holds it.
type Seat struct {
    Row        string     `json:"row"`         // row label (A, B, ...)
    Number     uint32     `json:"number"`      // 1-based position in the row
    Available  bool       `json:"available"`   // false while a reservation holds the seat
    ReservedBy *uint64    `json:"reserved_by"` // holder's user id, nil when free
    ReservedAt *time.Time `json:"reserved_at"` // reservation date, nil when free
}

// Label renders the seat the way it is printed on a ticket, e.g. "A5".
func (s Seat) Label() string { return SeatLabel(s.Row, s.Number) }

// Free clears the reservation state.
func (s *Seat) Free() {
    s.Available = true
    s.ReservedBy = nil
    s.ReservedAt = nil
}

// Hold marks the seat as taken by userID at the given instant.
func (s *Seat) Hold(userID uint64, at time.Time) {
    uid := userID
    ts := at
    s.Available = false
    s.ReservedBy = &uid
    s.ReservedAt = &ts
}

// SeatRef addresses a seat by coordinates in requests.
type SeatRef struct {
    Row    string `json:"row" validate:"required,alpha,max=3"`
    Number uint32 `json:"number" validate:"required,min=1"`
}

// Normalize upper-cases and trims the row label.
func (r SeatRef) Normalize() SeatRef {
    return SeatRef{Row: strings.ToUpper(strings.TrimSpace(r.Row)), Number: r.Number}
}

// Label renders the coordinates, e.g. "B12".
func (r SeatRef) Label() string { return SeatLabel(r.Row, r.Number) }

// SeatLabel joins a row label and a seat number.
func SeatLabel(row string, number uint32) string {
    return fmt.Sprintf("%s%d", row, number)
}
