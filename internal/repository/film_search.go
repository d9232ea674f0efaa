package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/cinema-seance-booking/internal/model"
)

// FilmQuery defines filters & pagination for listing the catalog.
type FilmQuery struct {
	Title    string
	Genre    string
	Page     int
	PageSize int
}

// Search lists films matching the query ordered by title, together with
// the total number of matches for pagination.
func (r *FilmRepo) Search(ctx context.Context, q FilmQuery) ([]model.Film, int64, error) {
	where := []string{}
	args := []any{}

	if q.Title != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Title)+"%")
	}
	if q.Genre != "" {
		where = append(where, "LOWER(genre) = ?")
		args = append(args, strings.ToLower(q.Genre))
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM films WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT ` + filmColumns + ` FROM films WHERE ` + cond + ` ORDER BY title ASC, id ASC LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Film, 0, limit)
	for rows.Next() {
		f, err := scanFilm(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
