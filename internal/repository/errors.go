// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// scheduling and ledger services to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"strings"
	"time"
)

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a film that still has showings. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrVersionConflict is returned by version-guarded writes when the row
// changed since it was read.  Callers reload and retry.
var ErrVersionConflict = errors.New("version conflict")

var (
	ErrFilmNotFound     = errors.New("film not found")
	ErrRoomNotFound     = errors.New("room template not found")
	ErrShowingNotFound  = errors.New("showing not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrFavoriteNotFound = errors.New("favorite not found")
	ErrEmailExists      = errors.New("email already exists")
	ErrTokenInvalid     = errors.New("refresh token invalid")
)

// isDuplicate recognises unique-key violations of both drivers.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint failed")
}

// timestamps travel as RFC3339 text so MySQL and SQLite behave alike.
func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
