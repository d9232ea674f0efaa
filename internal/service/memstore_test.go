package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/iliyamo/cinema-seance-booking/internal/model"
	"github.com/iliyamo/cinema-seance-booking/internal/queue"
	"github.com/iliyamo/cinema-seance-booking/internal/repository"
)

// memFilms is an in-memory FilmStore.
type memFilms map[uint64]*model.Film

func (m memFilms) GetByID(_ context.Context, id uint64) (*model.Film, error) {
	f, ok := m[id]
	if !ok {
		return nil, repository.ErrFilmNotFound
	}
	cp := *f
	return &cp, nil
}

func (m memFilms) TitlesByID(_ context.Context, ids []uint64) (map[uint64]string, error) {
	out := map[uint64]string{}
	for _, id := range ids {
		if f, ok := m[id]; ok {
			out[id] = f.Title
		}
	}
	return out, nil
}

// memRooms is an in-memory RoomStore; the first entry is the default.
type memRooms []*model.RoomTemplate

func (m memRooms) GetDefault(context.Context) (*model.RoomTemplate, error) {
	if len(m) == 0 {
		return nil, repository.ErrRoomNotFound
	}
	return m[0], nil
}

func (m memRooms) GetByID(_ context.Context, id uint64) (*model.RoomTemplate, error) {
	for _, r := range m {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, repository.ErrRoomNotFound
}

// memShowings is an in-memory ShowingStore with the same version
// compare-and-set semantics as the SQL repository.  Rows are stored as
// deep copies so callers never share slices with the store.
type memShowings struct {
	mu     sync.Mutex
	rows   map[uint64]*model.Showing
	nextID uint64

	// beforeSave runs at the start of every SaveLedger call, outside the
	// lock, to simulate writers racing the caller.
	beforeSave func(id uint64)
	saves      int
}

func newMemShowings() *memShowings {
	return &memShowings{rows: map[uint64]*model.Showing{}}
}

func clone(s *model.Showing) *model.Showing {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	var out model.Showing
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return &out
}

func (m *memShowings) Create(_ context.Context, s *model.Showing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	s.Version = 0
	m.rows[s.ID] = clone(s)
	return nil
}

func (m *memShowings) GetByID(_ context.Context, id uint64) (*model.Showing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrShowingNotFound
	}
	return clone(s), nil
}

func (m *memShowings) sorted(keep func(*model.Showing) bool) []model.Showing {
	var out []model.Showing
	for _, s := range m.rows {
		if keep(s) {
			out = append(out, *clone(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date+out[i].Time != out[j].Date+out[j].Time {
			return out[i].Date+out[i].Time < out[j].Date+out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memShowings) List(_ context.Context, f repository.ShowingFilter) ([]model.Showing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(s *model.Showing) bool {
		return (f.FilmID == 0 || s.FilmID == f.FilmID) &&
			(f.RoomID == 0 || s.RoomID == f.RoomID) &&
			(f.Date == "" || s.Date == f.Date)
	}), nil
}

func (m *memShowings) ListByRoomAndDate(_ context.Context, roomID uint64, date string) ([]model.Showing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(s *model.Showing) bool { return s.RoomID == roomID && s.Date == date }), nil
}

func (m *memShowings) UpdateSchedule(_ context.Context, s *model.Showing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[s.ID]
	if !ok {
		return repository.ErrShowingNotFound
	}
	row.FilmID, row.Date, row.Time, row.PriceCents = s.FilmID, s.Date, s.Time, s.PriceCents
	return nil
}

func (m *memShowings) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrShowingNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memShowings) SaveLedger(_ context.Context, s *model.Showing) error {
	if m.beforeSave != nil {
		m.beforeSave(s.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	row, ok := m.rows[s.ID]
	if !ok {
		return repository.ErrShowingNotFound
	}
	if row.Version != s.Version {
		return repository.ErrVersionConflict
	}
	s.Version++
	m.rows[s.ID] = clone(s)
	return nil
}

func (m *memShowings) FindByReservationID(_ context.Context, id string) (*model.Showing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.ReservationIndex(id) >= 0 {
			return clone(s), nil
		}
	}
	return nil, repository.ErrShowingNotFound
}

func (m *memShowings) ListWithReservationsBy(_ context.Context, userID uint64) ([]model.Showing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(s *model.Showing) bool { return s.HasReservationsBy(userID) }), nil
}

func (m *memShowings) ListWithReservations(_ context.Context, showingID uint64) ([]model.Showing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(s *model.Showing) bool {
		return len(s.Reservations) > 0 && (showingID == 0 || s.ID == showingID)
	}), nil
}

// bumpVersion simulates a foreign ledger write that changes nothing but
// the version.
func (m *memShowings) bumpVersion(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[id]; ok {
		row.Version++
	}
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}
