package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cinema-seance-booking/internal/model"
	"github.com/iliyamo/cinema-seance-booking/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes the password, inserts the user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, username, email, password string, role model.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role, created_at) VALUES (?,?,?,?,?)",
		strings.TrimSpace(username), email, hash, role.String(), formatTime(time.Now()))
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var (
		u             model.User
		role, created string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, ErrUserNotFound
		}
		return u, err
	}
	parsed, err := model.ParseRole(role)
	if err != nil {
		return u, err
	}
	u.Role = parsed
	u.CreatedAt = parseTime(created)
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,role,created_at FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,role,created_at FROM users WHERE id=? LIMIT 1", id))
}

// List returns the users holding role, newest first.  The zero role
// lists every account.
func (r *UserRepo) List(ctx context.Context, role model.Role) ([]model.User, error) {
	q := "SELECT id,username,email,password_hash,role,created_at FROM users"
	var args []any
	if role.Valid() {
		q += " WHERE role IN (?,?)"
		// legacy operator accounts may carry the "operateur" spelling
		alt := role.String()
		if role == model.RoleOperator {
			alt = "operateur"
		}
		args = append(args, role.String(), alt)
	}
	rows, err := r.DB.QueryContext(ctx, q+" ORDER BY id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserChanges lists the account fields to overwrite.  Nil fields are
// left untouched.
type UserChanges struct {
	Username *string
	Email    *string
	Password *string
}

// Update applies ch to the user id and returns the stored row.  A taken
// email yields ErrEmailExists, a missing user ErrUserNotFound.
func (r *UserRepo) Update(ctx context.Context, id uint64, ch UserChanges, cost int) (model.User, error) {
	var (
		sets []string
		args []any
	)
	if ch.Username != nil {
		sets = append(sets, "username=?")
		args = append(args, strings.TrimSpace(*ch.Username))
	}
	if ch.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*ch.Email)))
	}
	if ch.Password != nil {
		hash, err := utils.HashPassword(*ch.Password, cost)
		if err != nil {
			return model.User{}, err
		}
		sets = append(sets, "password_hash=?")
		args = append(args, hash)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", append(args, id)...)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	// MySQL reports zero affected rows for unchanged values, so the
	// reload decides between found and missing.
	return r.GetByID(ctx, id)
}

// Delete removes a user with its refresh tokens and favorites.
// Reservations stay in the showings' ledgers.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM favorites WHERE user_id=?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
