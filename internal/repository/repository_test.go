package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-seance-booking/internal/database/dbtest"
	"github.com/iliyamo/cinema-seance-booking/internal/model"
	"github.com/iliyamo/cinema-seance-booking/internal/utils"
)

func TestFilmRepoCRUDAndSearch(t *testing.T) {
	db := dbtest.New(t)
	films := NewFilmRepo(db)
	ctx := context.Background()

	dune := &model.Film{Title: "Dune", DurationMin: 155, Genre: "SF"}
	amelie := &model.Film{Title: "Amélie", DurationMin: 122, Genre: "Comedy"}
	require.NoError(t, films.Create(ctx, dune))
	require.NoError(t, films.Create(ctx, amelie))

	got, err := films.GetByID(ctx, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.False(t, got.CreatedAt.IsZero())

	list, total, err := films.Search(ctx, FilmQuery{Genre: "sf"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, dune.ID, list[0].ID)

	list, total, err = films.Search(ctx, FilmQuery{PageSize: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 1)
	assert.Equal(t, "Dune", list[0].Title)

	dune.DurationMin = 166
	require.NoError(t, films.Update(ctx, dune))
	got, err = films.GetByID(ctx, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(166), got.DurationMin)

	titles, err := films.TitlesByID(ctx, []uint64{dune.ID, amelie.ID, 404})
	require.NoError(t, err)
	assert.Equal(t, map[uint64]string{dune.ID: "Dune", amelie.ID: "Amélie"}, titles)

	_, err = films.GetByID(ctx, 404)
	assert.ErrorIs(t, err, ErrFilmNotFound)
}

func TestFilmRepoDeleteScheduledFilmConflicts(t *testing.T) {
	db := dbtest.New(t)
	films := NewFilmRepo(db)
	showings := NewShowingRepo(db)
	favorites := NewFavoriteRepo(db)
	ctx := context.Background()

	f := &model.Film{Title: "Heat", DurationMin: 170}
	require.NoError(t, films.Create(ctx, f))
	s := &model.Showing{FilmID: f.ID, RoomID: 1, Date: "2030-01-01", Time: "20:00"}
	require.NoError(t, showings.Create(ctx, s))
	require.NoError(t, favorites.Add(ctx, 5, f.ID))

	assert.ErrorIs(t, films.Delete(ctx, f.ID), ErrConflict)

	require.NoError(t, showings.Delete(ctx, s.ID))
	require.NoError(t, films.Delete(ctx, f.ID))
	ok, err := favorites.Exists(ctx, 5, f.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, films.Delete(ctx, f.ID), ErrFilmNotFound)
}

func TestRoomRepoDefaultIsOldest(t *testing.T) {
	rooms := NewRoomRepo(dbtest.New(t))
	ctx := context.Background()

	_, err := rooms.GetDefault(ctx)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	salle1 := model.NewRoomTemplate("Salle 1", 15, 23)
	salle2 := model.NewRoomTemplate("Salle 2", 2, 2)
	require.NoError(t, rooms.Create(ctx, &salle1))
	require.NoError(t, rooms.Create(ctx, &salle2))
	dup := model.NewRoomTemplate("Salle 1", 1, 1)
	assert.ErrorIs(t, rooms.Create(ctx, &dup), ErrConflict)

	def, err := rooms.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, salle1.ID, def.ID)
	assert.Len(t, def.Seats, 345)

	byID, err := rooms.GetByID(ctx, salle2.ID)
	require.NoError(t, err)
	assert.Len(t, byID.Seats, 4)

	all, err := rooms.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUserAndTokenRepos(t *testing.T) {
	db := dbtest.New(t)
	users := NewUserRepo(db)
	tokens := NewTokenRepo(db)
	ctx := context.Background()

	id, err := users.Create(ctx, "ana", " Ana@Example.com ", "pw123456", model.RoleOperator, 4)
	require.NoError(t, err)
	_, err = users.Create(ctx, "ana2", "ana@example.com", "pw", model.RoleClient, 4)
	assert.ErrorIs(t, err, ErrEmailExists)

	u, err := users.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, model.RoleOperator, u.Role)
	assert.NotEqual(t, "pw123456", u.PasswordHash)

	_, err = users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, tokens.StoreRefresh(ctx, id, "h1", time.Now().Add(time.Hour)))
	require.NoError(t, tokens.StoreRefresh(ctx, id, "h2", time.Now().Add(-time.Hour)))

	got, err := tokens.ValidateRefresh(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, id, got)
	_, err = tokens.ValidateRefresh(ctx, "h2")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	require.NoError(t, tokens.RevokeAllForUser(ctx, id))
	_, err = tokens.ValidateRefresh(ctx, "h1")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestUserRepoUpdateDeleteAndRoleFilter(t *testing.T) {
	db := dbtest.New(t)
	users := NewUserRepo(db)
	tokens := NewTokenRepo(db)
	favorites := NewFavoriteRepo(db)
	ctx := context.Background()

	ana, err := users.Create(ctx, "ana", "ana@example.com", "pw123456", model.RoleClient, 4)
	require.NoError(t, err)
	_, err = users.Create(ctx, "bob", "bob@example.com", "pw123456", model.RoleClient, 4)
	require.NoError(t, err)
	op, err := users.Create(ctx, "caisse", "caisse@example.com", "pw123456", model.RoleOperator, 4)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO users (username, email, password_hash, role, created_at) VALUES ('old','old@example.com','x','operateur',?)",
		formatTime(time.Now()))
	require.NoError(t, err)

	all, err := users.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	clients, err := users.List(ctx, model.RoleClient)
	require.NoError(t, err)
	assert.Len(t, clients, 2)
	operators, err := users.List(ctx, model.RoleOperator)
	require.NoError(t, err)
	require.Len(t, operators, 2)
	assert.Equal(t, op, operators[1].ID)

	name, email, pw := " Ana M. ", "ANA.M@example.com", "newsecret"
	u, err := users.Update(ctx, ana, UserChanges{Username: &name, Email: &email, Password: &pw}, 4)
	require.NoError(t, err)
	assert.Equal(t, "Ana M.", u.Username)
	assert.Equal(t, "ana.m@example.com", u.Email)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "newsecret"))

	same, err := users.Update(ctx, ana, UserChanges{}, 4)
	require.NoError(t, err)
	assert.Equal(t, u.Email, same.Email)

	taken := "bob@example.com"
	_, err = users.Update(ctx, ana, UserChanges{Email: &taken}, 4)
	assert.ErrorIs(t, err, ErrEmailExists)
	_, err = users.Update(ctx, 999, UserChanges{Username: &name}, 4)
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, tokens.StoreRefresh(ctx, ana, "h-ana", time.Now().Add(time.Hour)))
	require.NoError(t, favorites.Add(ctx, ana, 7))
	require.NoError(t, users.Delete(ctx, ana))
	_, err = users.GetByID(ctx, ana)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = tokens.ValidateRefresh(ctx, "h-ana")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	liked, err := favorites.Exists(ctx, ana, 7)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.ErrorIs(t, users.Delete(ctx, ana), ErrUserNotFound)
}

func TestFavoriteRepoToggle(t *testing.T) {
	db := dbtest.New(t)
	films := NewFilmRepo(db)
	favs := NewFavoriteRepo(db)
	ctx := context.Background()

	f := &model.Film{Title: "Alien", DurationMin: 117}
	require.NoError(t, films.Create(ctx, f))

	on, err := favs.Toggle(ctx, 3, f.ID)
	require.NoError(t, err)
	assert.True(t, on)
	require.NoError(t, favs.Add(ctx, 3, f.ID))

	list, err := favs.ListFilms(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Alien", list[0].Title)

	on, err = favs.Toggle(ctx, 3, f.ID)
	require.NoError(t, err)
	assert.False(t, on)
	assert.ErrorIs(t, favs.Remove(ctx, 3, f.ID), ErrFavoriteNotFound)
}
