package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-seance-booking/internal/model"
)

// FavoriteRepo stores the films a user marked as favorite.
type FavoriteRepo struct {
	db *sql.DB
}

// NewFavoriteRepo constructs a FavoriteRepo with the given DB handle.
func NewFavoriteRepo(db *sql.DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

// Add marks filmID as favorite for userID.  Adding twice is a no-op.
func (r *FavoriteRepo) Add(ctx context.Context, userID, filmID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, film_id, created_at) VALUES (?, ?, ?)`,
		userID, filmID, formatTime(time.Now()))
	if isDuplicate(err) {
		return nil
	}
	return err
}

// Remove deletes the favorite or returns ErrFavoriteNotFound.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, filmID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND film_id = ?`, userID, filmID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// Exists reports whether filmID is a favorite of userID.
func (r *FavoriteRepo) Exists(ctx context.Context, userID, filmID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM favorites WHERE user_id = ? AND film_id = ?`, userID, filmID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Toggle flips the favorite state and returns the new state.
func (r *FavoriteRepo) Toggle(ctx context.Context, userID, filmID uint64) (bool, error) {
	err := r.Remove(ctx, userID, filmID)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, ErrFavoriteNotFound):
		return true, r.Add(ctx, userID, filmID)
	default:
		return false, err
	}
}

// ListFilms returns the user's favorite films, most recently added first.
func (r *FavoriteRepo) ListFilms(ctx context.Context, userID uint64) ([]model.Film, error) {
	const q = `SELECT f.id, f.title, f.description, f.duration_min, f.language, f.genre, f.image_url, f.trailer,
	                  f.director, f.release_year, f.created_at, f.updated_at
	           FROM favorites fav
	           JOIN films f ON f.id = fav.film_id
	           WHERE fav.user_id = ?
	           ORDER BY fav.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Film{}
	for rows.Next() {
		f, err := scanFilm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}
