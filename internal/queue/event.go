// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher and consumer that carry them.
package queue

// Reservation event types.
const (
    EventReservationCreated   = "reservation.created"
    EventReservationCancelled = "reservation.cancelled"
    EventReservationModified  = "reservation.modified"
)

// ReservationEvent is published after a ledger write commits.  It holds
// enough information for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type ReservationEvent struct {
    Type           string   `json:"type"`
    ReservationIDs []string `json:"reservation_ids"`
    UserID         uint64   `json:"user_id"`
    ShowingID      uint64   `json:"showing_id"`
    FilmID         uint64   `json:"film_id"`
    FilmTitle      string   `json:"film_title"`
    Date           string   `json:"date"`
    Time           string   `json:"time"`
    Seats          []string `json:"seats"`
    PreviousSeat   string   `json:"previous_seat,omitempty"`
    PriceCents     uint32   `json:"price_cents"`
    OccurredAt     string   `json:"occurred_at"`
}
