package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-seance-booking/internal/model"
	"github.com/iliyamo/cinema-seance-booking/internal/queue"
	"github.com/iliyamo/cinema-seance-booking/internal/repository"
)

// DefaultMaxRetries bounds the reload-and-retry loop of a ledger write.
const DefaultMaxRetries = 5

// DefaultRetryBackoff is the base pause before reloading a showing after
// a version conflict.  Attempt n waits a random duration in
// [0, n*backoff).
const DefaultRetryBackoff = 5 * time.Millisecond

// errNoop aborts a mutation that would not change anything.
var errNoop = errors.New("no change")

// Ledger mutates the seat grid and reservation log of showings.  Every
// operation loads one showing, applies the change in memory and writes
// both views back with a version check; when another writer got there
// first the showing is reloaded and the change re-validated, so a seat can
// never be handed to two reservations.
type Ledger struct {
	showings   ShowingStore
	films      FilmStore
	events     EventPublisher
	maxRetries int
	backoff    time.Duration
	now        func() time.Time
	newID      func() string
}

// LedgerOption customises a Ledger.
type LedgerOption func(*Ledger)

// WithEvents publishes reservation events through p.  A nil publisher
// disables events.
func WithEvents(p EventPublisher) LedgerOption {
	return func(l *Ledger) { l.events = p }
}

// WithMaxRetries sets how many times a write is attempted on version
// conflicts.
func WithMaxRetries(n int) LedgerOption {
	return func(l *Ledger) {
		if n > 0 {
			l.maxRetries = n
		}
	}
}

// WithRetryBackoff sets the base pause between version-conflict retries.
// Zero retries immediately.
func WithRetryBackoff(d time.Duration) LedgerOption {
	return func(l *Ledger) {
		if d >= 0 {
			l.backoff = d
		}
	}
}

// WithLedgerClock replaces time.Now for reservation dates.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// NewLedger wires a Ledger over its stores.
func NewLedger(showings ShowingStore, films FilmStore, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		showings:   showings,
		films:      films,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultRetryBackoff,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// mutate runs apply against a freshly loaded showing and persists the
// result, retrying on version conflicts.  apply must only touch the
// showing it is given; returning errNoop skips the write.
func (l *Ledger) mutate(ctx context.Context, load func(context.Context) (*model.Showing, error), apply func(*model.Showing) error) (*model.Showing, error) {
	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		sh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := apply(sh); err != nil {
			if errors.Is(err, errNoop) {
				return sh, nil
			}
			return nil, err
		}
		err = l.showings.SaveLedger(ctx, sh)
		switch {
		case err == nil:
			return sh, nil
		case errors.Is(err, repository.ErrVersionConflict):
			logrus.WithFields(logrus.Fields{"showing_id": sh.ID, "attempt": attempt}).Debug("ledger version conflict, retrying")
			if attempt < l.maxRetries {
				if err := l.pause(ctx, attempt); err != nil {
					return nil, err
				}
			}
			continue
		case errors.Is(err, repository.ErrShowingNotFound):
			return nil, notFound("showing %d not found", sh.ID)
		default:
			return nil, fmt.Errorf("save ledger: %w", err)
		}
	}
	return nil, conflict(ReasonConcurrency, "showing is being modified concurrently, please retry")
}

// pause waits a jittered delay that grows with attempt, or until ctx ends.
func (l *Ledger) pause(ctx context.Context, attempt int) error {
	if l.backoff <= 0 {
		return nil
	}
	t := time.NewTimer(rand.N(time.Duration(attempt) * l.backoff))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (l *Ledger) byShowingID(id uint64) func(context.Context) (*model.Showing, error) {
	return func(ctx context.Context) (*model.Showing, error) {
		sh, err := l.showings.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrShowingNotFound) {
				return nil, notFound("showing %d not found", id)
			}
			return nil, fmt.Errorf("load showing: %w", err)
		}
		return sh, nil
	}
}

func (l *Ledger) byReservationID(id string) func(context.Context) (*model.Showing, error) {
	return func(ctx context.Context) (*model.Showing, error) {
		sh, err := l.showings.FindByReservationID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrShowingNotFound) {
				return nil, notFound("reservation %s not found", id)
			}
			return nil, fmt.Errorf("find reservation: %w", err)
		}
		return sh, nil
	}
}

// canonicalReservationID rejects anything that is not a UUID; such ids
// cannot exist and must not reach the store's text prefilter.
func canonicalReservationID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", notFound("reservation %s not found", id)
	}
	return u.String(), nil
}

// Reserve books every seat of refs for userID in one write and returns
// the new reservation ids in request order.  If any seat is missing or
// taken nothing is booked and the error names that seat.
func (l *Ledger) Reserve(ctx context.Context, showingID, userID uint64, refs []model.SeatRef) ([]string, error) {
	if len(refs) == 0 {
		return nil, invalid("at least one seat is required")
	}
	wanted := make([]model.SeatRef, 0, len(refs))
	seen := make(map[model.SeatRef]struct{}, len(refs))
	for _, r := range refs {
		r = r.Normalize()
		if r.Row == "" || r.Number == 0 {
			return nil, invalid("seat row and number are required")
		}
		if _, dup := seen[r]; dup {
			e := invalid("seat %s requested twice", r.Label())
			e.Seat = r.Label()
			return nil, e
		}
		seen[r] = struct{}{}
		wanted = append(wanted, r)
	}

	var ids []string
	sh, err := l.mutate(ctx, l.byShowingID(showingID), func(sh *model.Showing) error {
		idx := make([]int, len(wanted))
		for i, r := range wanted {
			j := sh.SeatIndex(r.Row, r.Number)
			if j < 0 {
				e := notFound("seat %s does not exist", r.Label())
				e.Seat = r.Label()
				return e
			}
			if !sh.Seats[j].Available {
				e := conflict(ReasonSeatTaken, "seat %s is already reserved", r.Label())
				e.Seat = r.Label()
				return e
			}
			idx[i] = j
		}

		at := l.now().UTC()
		ids = make([]string, len(wanted))
		for i, r := range wanted {
			ids[i] = l.newID()
			sh.Seats[idx[i]].Hold(userID, at)
			sh.Reservations = append(sh.Reservations, model.Reservation{
				ID: ids[i], UserID: userID, Row: r.Row, Number: r.Number, ReservationDate: at,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	seats := make([]string, len(wanted))
	for i, r := range wanted {
		seats[i] = r.Label()
	}
	l.publish(ctx, sh, queue.ReservationEvent{Type: queue.EventReservationCreated, ReservationIDs: ids, UserID: userID, Seats: seats})
	return ids, nil
}

// Cancel removes reservation id owned by userID and frees its seat.
func (l *Ledger) Cancel(ctx context.Context, id string, userID uint64) error {
	id, err := canonicalReservationID(id)
	if err != nil {
		return err
	}
	var seat string
	sh, err := l.mutate(ctx, l.byReservationID(id), func(sh *model.Showing) error {
		i := sh.ReservationIndex(id)
		if i < 0 {
			return notFound("reservation %s not found", id)
		}
		r := sh.Reservations[i]
		if r.UserID != userID {
			return forbidden("reservation %s belongs to another user", id)
		}
		seat = r.SeatLabel()
		release(sh, i)
		return nil
	})
	if err != nil {
		return err
	}
	l.publish(ctx, sh, queue.ReservationEvent{Type: queue.EventReservationCancelled, ReservationIDs: []string{id}, UserID: userID, Seats: []string{seat}})
	return nil
}

// CancelBySeat removes the reservation userID holds on seat ref of a
// showing.  A seat held by someone else is Forbidden; a free seat is
// NotFound.
func (l *Ledger) CancelBySeat(ctx context.Context, showingID, userID uint64, ref model.SeatRef) error {
	ref = ref.Normalize()
	if ref.Row == "" || ref.Number == 0 {
		return invalid("seat row and number are required")
	}
	var resID string
	sh, err := l.mutate(ctx, l.byShowingID(showingID), func(sh *model.Showing) error {
		held := -1
		for i, r := range sh.Reservations {
			if r.Row != ref.Row || r.Number != ref.Number {
				continue
			}
			if r.UserID == userID {
				held = i
				break
			}
			e := forbidden("seat %s is reserved by another user", ref.Label())
			e.Seat = ref.Label()
			return e
		}
		if held < 0 {
			e := notFound("no reservation for seat %s", ref.Label())
			e.Seat = ref.Label()
			return e
		}
		resID = sh.Reservations[held].ID
		release(sh, held)
		return nil
	})
	if err != nil {
		return err
	}
	l.publish(ctx, sh, queue.ReservationEvent{Type: queue.EventReservationCancelled, ReservationIDs: []string{resID}, UserID: userID, Seats: []string{ref.Label()}})
	return nil
}

// Modify moves reservation id to the first seat of newSeats, keeping the
// reservation id and date.  The target seat is checked before the old
// one is released, so a failed move leaves the reservation where it was.
func (l *Ledger) Modify(ctx context.Context, id string, userID uint64, newSeats []model.SeatRef) error {
	if len(newSeats) == 0 {
		return invalid("a new seat is required")
	}
	target := newSeats[0].Normalize()
	if target.Row == "" || target.Number == 0 {
		return invalid("seat row and number are required")
	}
	id, err := canonicalReservationID(id)
	if err != nil {
		return err
	}

	var from string
	sh, err := l.mutate(ctx, l.byReservationID(id), func(sh *model.Showing) error {
		i := sh.ReservationIndex(id)
		if i < 0 {
			return notFound("reservation %s not found", id)
		}
		r := &sh.Reservations[i]
		if r.UserID != userID {
			return forbidden("reservation %s belongs to another user", id)
		}
		if r.Row == target.Row && r.Number == target.Number {
			return errNoop
		}
		to := sh.SeatIndex(target.Row, target.Number)
		if to < 0 {
			e := notFound("seat %s does not exist", target.Label())
			e.Seat = target.Label()
			return e
		}
		if !sh.Seats[to].Available {
			e := conflict(ReasonSeatTaken, "seat %s is already reserved", target.Label())
			e.Seat = target.Label()
			return e
		}

		from = r.SeatLabel()
		if old := sh.SeatIndex(r.Row, r.Number); old >= 0 {
			sh.Seats[old].Free()
		}
		sh.Seats[to].Hold(userID, r.ReservationDate)
		r.Row, r.Number = target.Row, target.Number
		return nil
	})
	if err != nil {
		return err
	}
	if from != "" {
		l.publish(ctx, sh, queue.ReservationEvent{
			Type: queue.EventReservationModified, ReservationIDs: []string{id}, UserID: userID,
			Seats: []string{target.Label()}, PreviousSeat: from,
		})
	}
	return nil
}

// Get returns a reservation and the showing holding it.
func (l *Ledger) Get(ctx context.Context, id string) (*model.Showing, model.Reservation, error) {
	id, err := canonicalReservationID(id)
	if err != nil {
		return nil, model.Reservation{}, err
	}
	sh, err := l.byReservationID(id)(ctx)
	if err != nil {
		return nil, model.Reservation{}, err
	}
	i := sh.ReservationIndex(id)
	if i < 0 {
		return nil, model.Reservation{}, notFound("reservation %s not found", id)
	}
	return sh, sh.Reservations[i], nil
}

// ListForUser flattens every reservation of userID, newest first.
func (l *Ledger) ListForUser(ctx context.Context, userID uint64) ([]model.ReservationView, error) {
	list, err := l.showings.ListWithReservationsBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return l.views(ctx, list, func(r model.Reservation) bool { return r.UserID == userID })
}

// ListAll flattens every reservation, restricted to one showing when
// showingID is non-zero, newest first.
func (l *Ledger) ListAll(ctx context.Context, showingID uint64) ([]model.ReservationView, error) {
	list, err := l.showings.ListWithReservations(ctx, showingID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return l.views(ctx, list, func(model.Reservation) bool { return true })
}

func (l *Ledger) views(ctx context.Context, list []model.Showing, keep func(model.Reservation) bool) ([]model.ReservationView, error) {
	filmIDs := make([]uint64, 0, len(list))
	seen := map[uint64]bool{}
	for _, sh := range list {
		if !seen[sh.FilmID] {
			seen[sh.FilmID] = true
			filmIDs = append(filmIDs, sh.FilmID)
		}
	}
	titles, err := l.films.TitlesByID(ctx, filmIDs)
	if err != nil {
		return nil, fmt.Errorf("load film titles: %w", err)
	}

	out := []model.ReservationView{}
	for _, sh := range list {
		for _, r := range sh.Reservations {
			if !keep(r) {
				continue
			}
			out = append(out, model.ReservationView{
				ID: r.ID, ShowingID: sh.ID, FilmID: sh.FilmID, FilmTitle: titles[sh.FilmID],
				Date: sh.Date, Time: sh.Time, Row: r.Row, Number: r.Number,
				PriceCents: sh.PriceCents, UserID: r.UserID, ReservationDate: r.ReservationDate,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReservationDate.After(out[j].ReservationDate) })
	return out, nil
}

// release frees the seat of reservation i and drops the reservation.
func release(sh *model.Showing, i int) {
	r := sh.Reservations[i]
	if j := sh.SeatIndex(r.Row, r.Number); j >= 0 {
		sh.Seats[j].Free()
	}
	sh.RemoveReservation(i)
}

// publish fills the showing fields of ev and hands it to the publisher.
// Failures are logged; the ledger write has already committed.
func (l *Ledger) publish(ctx context.Context, sh *model.Showing, ev queue.ReservationEvent) {
	if l.events == nil || sh == nil {
		return
	}
	ev.ShowingID = sh.ID
	ev.FilmID = sh.FilmID
	ev.Date = sh.Date
	ev.Time = sh.Time
	ev.PriceCents = sh.PriceCents
	ev.OccurredAt = l.now().UTC().Format(time.RFC3339)
	if f, err := l.films.GetByID(ctx, sh.FilmID); err == nil {
		ev.FilmTitle = f.Title
	}
	if err := l.events.Publish(ctx, ev); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"showing_id": sh.ID, "event": ev.Type, "reservation_ids": ev.ReservationIDs,
		}).Warn("publish reservation event failed")
	}
}
