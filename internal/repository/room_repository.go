package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-seance-booking/internal/model"
)

// RoomRepo is the room template store.  Templates are written once by
// the seed command and only read afterwards.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// Create persists a template and assigns its ID.  A name already in use
// yields ErrConflict.
func (r *RoomRepo) Create(ctx context.Context, rt *model.RoomTemplate) error {
	seats, err := json.Marshal(rt.Seats)
	if err != nil {
		return fmt.Errorf("encode seats: %w", err)
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO room_templates (name, total_rows, seats_per_row, seats, created_at) VALUES (?, ?, ?, ?, ?)`,
		rt.Name, rt.TotalRows, rt.SeatsPerRow, string(seats), formatTime(now))
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	rt.CreatedAt = now
	return nil
}

// GetDefault returns the oldest template, the one new showings use
// unless a room is named explicitly.
func (r *RoomRepo) GetDefault(ctx context.Context) (*model.RoomTemplate, error) {
	return r.getOne(ctx, `SELECT id, name, total_rows, seats_per_row, seats, created_at FROM room_templates ORDER BY id ASC LIMIT 1`)
}

// GetByID returns one template or ErrRoomNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.RoomTemplate, error) {
	return r.getOne(ctx, `SELECT id, name, total_rows, seats_per_row, seats, created_at FROM room_templates WHERE id = ?`, id)
}

// List returns every template without seat lists.
func (r *RoomRepo) List(ctx context.Context) ([]model.RoomTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, total_rows, seats_per_row, created_at FROM room_templates ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RoomTemplate
	for rows.Next() {
		var (
			rt      model.RoomTemplate
			created string
		)
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.TotalRows, &rt.SeatsPerRow, &created); err != nil {
			return nil, err
		}
		rt.CreatedAt = parseTime(created)
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *RoomRepo) getOne(ctx context.Context, q string, args ...any) (*model.RoomTemplate, error) {
	var (
		rt             model.RoomTemplate
		seats, created string
	)
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&rt.ID, &rt.Name, &rt.TotalRows, &rt.SeatsPerRow, &seats, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(seats), &rt.Seats); err != nil {
		return nil, fmt.Errorf("decode room %d seats: %w", rt.ID, err)
	}
	rt.CreatedAt = parseTime(created)
	return &rt, nil
}
