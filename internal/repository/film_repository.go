package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel comparisons
	"time"         // timestamps

	"github.com/iliyamo/cinema-seance-booking/internal/model"
)

// FilmRepo manages persistence for the film catalog.
type FilmRepo struct {
	db *sql.DB
}

// NewFilmRepo constructs a FilmRepo with the given DB handle.
func NewFilmRepo(db *sql.DB) *FilmRepo {
	return &FilmRepo{db: db}
}

const filmColumns = `id, title, description, duration_min, language, genre, image_url, trailer, director, release_year, created_at, updated_at`

// scanFilm reads one row selected with filmColumns.
func scanFilm(row interface{ Scan(...any) error }) (*model.Film, error) {
	var (
		f                  model.Film
		created, updated string
	)
	if err := row.Scan(&f.ID, &f.Title, &f.Description, &f.DurationMin, &f.Language, &f.Genre,
		&f.ImageURL, &f.Trailer, &f.Director, &f.ReleaseYear, &created, &updated); err != nil {
		return nil, err
	}
	f.CreatedAt = parseTime(created)
	f.UpdatedAt = parseTime(updated)
	return &f, nil
}

// Create inserts a new film and assigns the generated ID and timestamps
// back to f.
func (r *FilmRepo) Create(ctx context.Context, f *model.Film) error {
	now := time.Now().UTC()
	const q = `INSERT INTO films (title, description, duration_min, language, genre, image_url, trailer, director, release_year, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, f.Title, f.Description, f.DurationMin, f.Language, f.Genre,
		f.ImageURL, f.Trailer, f.Director, f.ReleaseYear, formatTime(now), formatTime(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	f.CreatedAt, f.UpdatedAt = now, now
	return nil
}

// GetByID retrieves a film by its ID.  It returns ErrFilmNotFound if
// there is no matching row.
func (r *FilmRepo) GetByID(ctx context.Context, id uint64) (*model.Film, error) {
	f, err := scanFilm(r.db.QueryRowContext(ctx, `SELECT `+filmColumns+` FROM films WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFilmNotFound
		}
		return nil, err
	}
	return f, nil
}

// Update overwrites the editable fields of a film.  It returns
// ErrFilmNotFound when the row does not exist.
func (r *FilmRepo) Update(ctx context.Context, f *model.Film) error {
	now := time.Now().UTC()
	const q = `UPDATE films SET title = ?, description = ?, duration_min = ?, language = ?, genre = ?,
	           image_url = ?, trailer = ?, director = ?, release_year = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, f.Title, f.Description, f.DurationMin, f.Language, f.Genre,
		f.ImageURL, f.Trailer, f.Director, f.ReleaseYear, formatTime(now), f.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrFilmNotFound
	}
	f.UpdatedAt = now
	return nil
}

// Delete removes a film and the favorites pointing at it.  A film that
// is still scheduled cannot be removed and yields ErrConflict.
func (r *FilmRepo) Delete(ctx context.Context, id uint64) error {
	var scheduled int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM showings WHERE film_id = ?`, id).Scan(&scheduled); err != nil {
		return err
	}
	if scheduled > 0 {
		return ErrConflict
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx, `DELETE FROM films WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrFilmNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE film_id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// TitlesByID loads the titles of the given films in one query.  Missing
// ids are simply absent from the map.
func (r *FilmRepo) TitlesByID(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	out := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := `SELECT id, title FROM films WHERE id IN (?` + repeatPlaceholders(len(ids)-1) + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    uint64
			title string
		)
		if err := rows.Scan(&id, &title); err != nil {
			return nil, err
		}
		out[id] = title
	}
	return out, rows.Err()
}

func repeatPlaceholders(n int) string {
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		b = append(b, ", ?"...)
	}
	return string(b)
}
