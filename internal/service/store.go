package service

import (
	"context"

	"github.com/iliyamo/cinema-seance-booking/internal/model"
	"github.com/iliyamo/cinema-seance-booking/internal/queue"
	"github.com/iliyamo/cinema-seance-booking/internal/repository"
)

// FilmStore is the part of the film repository the services read.
type FilmStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Film, error)
	TitlesByID(ctx context.Context, ids []uint64) (map[uint64]string, error)
}

// RoomStore is the room template store.
type RoomStore interface {
	GetDefault(ctx context.Context) (*model.RoomTemplate, error)
	GetByID(ctx context.Context, id uint64) (*model.RoomTemplate, error)
}

// ShowingStore persists showings.  SaveLedger must be a compare-and-set
// on Version returning repository.ErrVersionConflict when the stored
// version moved, and repository.ErrShowingNotFound when the row is gone.
type ShowingStore interface {
	Create(ctx context.Context, s *model.Showing) error
	GetByID(ctx context.Context, id uint64) (*model.Showing, error)
	List(ctx context.Context, f repository.ShowingFilter) ([]model.Showing, error)
	ListByRoomAndDate(ctx context.Context, roomID uint64, date string) ([]model.Showing, error)
	UpdateSchedule(ctx context.Context, s *model.Showing) error
	Delete(ctx context.Context, id uint64) error
	SaveLedger(ctx context.Context, s *model.Showing) error
	FindByReservationID(ctx context.Context, reservationID string) (*model.Showing, error)
	ListWithReservationsBy(ctx context.Context, userID uint64) ([]model.Showing, error)
	ListWithReservations(ctx context.Context, showingID uint64) ([]model.Showing, error)
}

// EventPublisher receives reservation events after a ledger write commits.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}
