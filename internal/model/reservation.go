package model

import "time"

// Reservation is an entry of a showing's reservation log.  It binds one
// user to one seat of that showing.  Its ID is a generated UUID and stays
// the same when the reservation is moved to another seat.
//
// Fields:
//  ID              – UUID string.
//  UserID          – owner of the reservation.
//  Row, Number     – coordinates of the held seat.
//  ReservationDate – when the seat was booked; mirrored on the seat.
type Reservation struct {
    ID              string    `json:"id"`
    UserID          uint64    `json:"user_id"`
    Row             string    `json:"row"`
    Number          uint32    `json:"number"`
    ReservationDate time.Time `json:"reservation_date"`
}

// SeatLabel renders the held seat, e.g. "C7".
func (r Reservation) SeatLabel() string { return SeatLabel(r.Row, r.Number) }

// ReservationView is the flattened, denormalized form of a reservation
// used by listings: the client's "my reservations" page and the admin
// overview.
type ReservationView struct {
    ID              string    `json:"id"`
    ShowingID       uint64    `json:"showing_id"`
    FilmID          uint64    `json:"film_id"`
    FilmTitle       string    `json:"film_title"`
    Date            string    `json:"date"`
    Time            string    `json:"time"`
    Row             string    `json:"row"`
    Number          uint32    `json:"number"`
    PriceCents      uint32    `json:"price_cents"`
    UserID          uint64    `json:"user_id"`
    ReservationDate time.Time `json:"reservation_date"`
}
