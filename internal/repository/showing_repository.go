// Package repository contains data access logic.  This file stores
// showings as single rows: the schedule columns plus the seat grid and
// the reservation log encoded as JSON and guarded by a version counter.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"encoding/json"
	"errors" // errors for sentinel comparisons
	"fmt"
	"strconv"
	"time"

	"github.com/iliyamo/cinema-seance-booking/internal/model"
)

// ShowingRepo manages persistence for showings and their embedded ledger.
type ShowingRepo struct {
	db *sql.DB
}

// NewShowingRepo constructs a ShowingRepo with the given DB handle.
func NewShowingRepo(db *sql.DB) *ShowingRepo {
	return &ShowingRepo{db: db}
}

// ShowingFilter narrows List.  Zero values mean "any".
type ShowingFilter struct {
	FilmID uint64
	RoomID uint64
	Date   string
}

const showingColumns = `id, film_id, room_id, date, time, price_cents, seats, reservations, version, created_at, updated_at`

func scanShowing(row interface{ Scan(...any) error }) (*model.Showing, error) {
	var (
		s                   model.Showing
		seats, reservations string
		created, updated    string
	)
	if err := row.Scan(&s.ID, &s.FilmID, &s.RoomID, &s.Date, &s.Time, &s.PriceCents,
		&seats, &reservations, &s.Version, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(seats), &s.Seats); err != nil {
		return nil, fmt.Errorf("decode showing %d seats: %w", s.ID, err)
	}
	if err := json.Unmarshal([]byte(reservations), &s.Reservations); err != nil {
		return nil, fmt.Errorf("decode showing %d reservations: %w", s.ID, err)
	}
	s.CreatedAt = parseTime(created)
	s.UpdatedAt = parseTime(updated)
	return &s, nil
}

// encodeLedger marshals the two embedded views.  Nil slices are written
// as empty arrays so LIKE prefilters see a stable shape.
func encodeLedger(s *model.Showing) (string, string, error) {
	seats := s.Seats
	if seats == nil {
		seats = []model.Seat{}
	}
	res := s.Reservations
	if res == nil {
		res = []model.Reservation{}
	}
	sb, err := json.Marshal(seats)
	if err != nil {
		return "", "", fmt.Errorf("encode seats: %w", err)
	}
	rb, err := json.Marshal(res)
	if err != nil {
		return "", "", fmt.Errorf("encode reservations: %w", err)
	}
	return string(sb), string(rb), nil
}

func (r *ShowingRepo) queryShowings(ctx context.Context, q string, args ...any) ([]model.Showing, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Showing
	for rows.Next() {
		s, err := scanShowing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new showing with version 0 and assigns the generated
// ID and timestamps back to s.
func (r *ShowingRepo) Create(ctx context.Context, s *model.Showing) error {
	seats, reservations, err := encodeLedger(s)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	const q = `INSERT INTO showings (film_id, room_id, date, time, price_cents, seats, reservations, version, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.FilmID, s.RoomID, s.Date, s.Time, s.PriceCents,
		seats, reservations, formatTime(now), formatTime(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.Version = 0
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

// GetByID retrieves a showing with its seats and reservations.  It
// returns ErrShowingNotFound if there is no matching row.
func (r *ShowingRepo) GetByID(ctx context.Context, id uint64) (*model.Showing, error) {
	s, err := scanShowing(r.db.QueryRowContext(ctx, `SELECT `+showingColumns+` FROM showings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowingNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns showings matching f ordered by date and time.
func (r *ShowingRepo) List(ctx context.Context, f ShowingFilter) ([]model.Showing, error) {
	q := `SELECT ` + showingColumns + ` FROM showings WHERE 1=1`
	var args []any
	if f.FilmID != 0 {
		q += ` AND film_id = ?`
		args = append(args, f.FilmID)
	}
	if f.RoomID != 0 {
		q += ` AND room_id = ?`
		args = append(args, f.RoomID)
	}
	if f.Date != "" {
		q += ` AND date = ?`
		args = append(args, f.Date)
	}
	q += ` ORDER BY date ASC, time ASC, id ASC`
	return r.queryShowings(ctx, q, args...)
}

// ListByRoomAndDate returns the schedule of one room on one date.  Only
// the schedule columns are loaded; Seats and Reservations stay nil.
func (r *ShowingRepo) ListByRoomAndDate(ctx context.Context, roomID uint64, date string) ([]model.Showing, error) {
	const q = `SELECT id, film_id, room_id, date, time, price_cents, version
	           FROM showings WHERE room_id = ? AND date = ? ORDER BY time ASC`
	rows, err := r.db.QueryContext(ctx, q, roomID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Showing
	for rows.Next() {
		var s model.Showing
		if err := rows.Scan(&s.ID, &s.FilmID, &s.RoomID, &s.Date, &s.Time, &s.PriceCents, &s.Version); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSchedule rewrites film, date, time and price of a showing.  The
// seat grid and reservation log are not touched, so this never races
// with ledger writes.
func (r *ShowingRepo) UpdateSchedule(ctx context.Context, s *model.Showing) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE showings SET film_id = ?, date = ?, time = ?, price_cents = ?, updated_at = ? WHERE id = ?`,
		s.FilmID, s.Date, s.Time, s.PriceCents, formatTime(now), s.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrShowingNotFound
	}
	s.UpdatedAt = now
	return nil
}

// Delete removes a showing; its embedded reservations go with it.
func (r *ShowingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM showings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrShowingNotFound
	}
	return nil
}

// SaveLedger writes the seat grid and reservation log of s in one
// statement, provided the stored version still equals s.Version.  On
// success s.Version is incremented.  A stale version yields
// ErrVersionConflict; a vanished row yields ErrShowingNotFound.
func (r *ShowingRepo) SaveLedger(ctx context.Context, s *model.Showing) error {
	seats, reservations, err := encodeLedger(s)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE showings SET seats = ?, reservations = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		seats, reservations, formatTime(now), s.ID, s.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM showings WHERE id = ?`, s.ID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrShowingNotFound
		}
		if err != nil {
			return err
		}
		return ErrVersionConflict
	}
	s.Version++
	s.UpdatedAt = now
	return nil
}

// FindByReservationID returns the showing whose log contains the
// reservation.  The LIKE clause is a coarse prefilter on the JSON text;
// the match is confirmed on the decoded log.  The id must be a
// canonical UUID so it cannot carry LIKE wildcards.
func (r *ShowingRepo) FindByReservationID(ctx context.Context, reservationID string) (*model.Showing, error) {
	pattern := `%"id":"` + reservationID + `"%`
	list, err := r.queryShowings(ctx, `SELECT `+showingColumns+` FROM showings WHERE reservations LIKE ?`, pattern)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ReservationIndex(reservationID) >= 0 {
			return &list[i], nil
		}
	}
	return nil, ErrShowingNotFound
}

// ListWithReservationsBy returns every showing where userID holds at
// least one seat, ordered by date and time.
func (r *ShowingRepo) ListWithReservationsBy(ctx context.Context, userID uint64) ([]model.Showing, error) {
	pattern := `%"user_id":` + strconv.FormatUint(userID, 10) + `,%`
	list, err := r.queryShowings(ctx,
		`SELECT `+showingColumns+` FROM showings WHERE reservations LIKE ? ORDER BY date ASC, time ASC, id ASC`, pattern)
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for _, s := range list {
		if s.HasReservationsBy(userID) {
			out = append(out, s)
		}
	}
	return out, nil
}

// ListWithReservations returns showings that have at least one
// reservation, restricted to showingID when it is non-zero.
func (r *ShowingRepo) ListWithReservations(ctx context.Context, showingID uint64) ([]model.Showing, error) {
	q := `SELECT ` + showingColumns + ` FROM showings WHERE reservations <> '[]'`
	var args []any
	if showingID != 0 {
		q += ` AND id = ?`
		args = append(args, showingID)
	}
	q += ` ORDER BY date ASC, time ASC, id ASC`
	return r.queryShowings(ctx, q, args...)
}
