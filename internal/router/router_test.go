package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-seance-booking/internal/config"
	"github.com/iliyamo/cinema-seance-booking/internal/database/dbtest"
	"github.com/iliyamo/cinema-seance-booking/internal/handler"
	"github.com/iliyamo/cinema-seance-booking/internal/model"
	"github.com/iliyamo/cinema-seance-booking/internal/repository"
	"github.com/iliyamo/cinema-seance-booking/internal/service"
	"github.com/iliyamo/cinema-seance-booking/internal/utils"
)

const secret = "router-test-secret"

type api struct {
	t     *testing.T
	e     *echo.Echo
	users *repository.UserRepo
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := dbtest.New(t)
	ctx := context.Background()

	rooms := repository.NewRoomRepo(db)
	room := model.NewRoomTemplate("Salle 1", 3, 5)
	require.NoError(t, rooms.Create(ctx, &room))

	films := repository.NewFilmRepo(db)
	showings := repository.NewShowingRepo(db)
	users := repository.NewUserRepo(db)
	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 15, RefreshTTLDays: 1, BcryptCost: 4}

	scheduler := service.NewScheduler(films, rooms, showings)

	e := echo.New()
	Setup(e, Deps{
		JWTSecret:    secret,
		DB:           db,
		Auth:         handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db)),
		Films:        handler.NewFilmHandler(films, scheduler),
		Showings:     handler.NewShowingHandler(scheduler, rooms),
		Reservations: handler.NewReservationHandler(service.NewLedger(showings, films)),
		Favorites:    handler.NewFavoriteHandler(repository.NewFavoriteRepo(db), films),
	})
	return &api{t: t, e: e, users: users}
}

// account inserts a user and returns a bearer header for it.
func (a *api) account(email string, role model.Role) string {
	a.t.Helper()
	id, err := a.users.Create(context.Background(), email, email, "secret123", role, 4)
	require.NoError(a.t, err)
	tok, err := utils.NewAccessToken(secret, id, role, 15)
	require.NoError(a.t, err)
	return "Bearer " + tok.Token
}

func (a *api) do(method, path, auth string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// schedule creates a film and a showing as staff and returns the
// showing id.
func (a *api) schedule(staff string) uint64 {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/v1/films", staff, echo.Map{"title": "Playtime", "duration_min": 120, "genre": "comedy"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	filmID := uint64(decode(a.t, rec)["id"].(float64))

	rec = a.do(http.MethodPost, "/v1/showings", staff, echo.Map{"film_id": filmID, "date": "2099-06-01", "time": "20:00", "price_cents": 900})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint64(decode(a.t, rec)["id"].(float64))
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/readyz", "", nil).Code)
}

func TestRegisterLoginMe(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/v1/auth/register", "", echo.Map{"username": "ana", "email": "Ana@Example.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "client", body["user"].(map[string]any)["role"])

	rec = a.do(http.MethodPost, "/v1/auth/register", "", echo.Map{"username": "ana", "email": "ana@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = a.do(http.MethodPost, "/v1/auth/register", "", echo.Map{"username": "x", "email": "not-an-email", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "ana@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = a.do(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "ana@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode(t, rec)
	access := login["access"].(map[string]any)["token"].(string)
	refresh := login["refresh"].(map[string]any)["token"].(string)

	rec = a.do(http.MethodGet, "/v1/me", "Bearer "+access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana@example.com", decode(t, rec)["email"])

	rec = a.do(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "rotated token is revoked")
}

func TestCatalogGuards(t *testing.T) {
	a := newAPI(t)
	client := a.account("client@example.com", model.RoleClient)
	operator := a.account("op@example.com", model.RoleOperator)

	film := echo.Map{"title": "Mon Oncle", "duration_min": 110}
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/v1/films", "", film).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/v1/films", client, film).Code)
	assert.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/v1/films", operator, film).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/v1/films", operator, echo.Map{"title": "No duration"}).Code)

	rec := a.do(http.MethodGet, "/v1/films?title=oncle", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["total"])
}

func TestShowingScheduling(t *testing.T) {
	a := newAPI(t)
	admin := a.account("admin@example.com", model.RoleAdmin)
	id := a.schedule(admin)

	rec := a.do(http.MethodGet, fmt.Sprintf("/v1/showings/%d", id), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(15), decode(t, rec)["available_seats"])

	rec = a.do(http.MethodPost, "/v1/showings", admin, echo.Map{"film_id": 1, "date": "2099-06-01", "time": "21:30"})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, service.ReasonOverlap, body["reason"])
	assert.Equal(t, float64(id), body["conflict_with"])

	rec = a.do(http.MethodPost, "/v1/showings", admin, echo.Map{"film_id": 1, "date": "2000-01-01", "time": "10:00"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, service.ReasonPastStart, decode(t, rec)["reason"])

	rec = a.do(http.MethodGet, "/v1/showings/available-times?date=2099-06-01", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	slots := decode(t, rec)["slots"].([]any)
	assert.Len(t, slots, 22)

	assert.Equal(t, http.StatusConflict, a.do(http.MethodDelete, "/v1/films/1", admin, nil).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, fmt.Sprintf("/v1/showings/%d", id), admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, fmt.Sprintf("/v1/showings/%d", id), "", nil).Code)
}

func TestReservationFlow(t *testing.T) {
	a := newAPI(t)
	admin := a.account("admin@example.com", model.RoleAdmin)
	ana := a.account("ana@example.com", model.RoleClient)
	bob := a.account("bob@example.com", model.RoleClient)
	id := a.schedule(admin)
	reservations := fmt.Sprintf("/v1/showings/%d/reservations", id)

	rec := a.do(http.MethodPost, reservations, ana, echo.Map{"seats": []echo.Map{{"row": "A", "number": 1}, {"row": "A", "number": 2}}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ids := decode(t, rec)["reservation_ids"].([]any)
	require.Len(t, ids, 2)
	first := ids[0].(string)

	rec = a.do(http.MethodPost, reservations, bob, echo.Map{"seats": []echo.Map{{"row": "B", "number": 1}, {"row": "A", "number": 2}}})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "A2", decode(t, rec)["seat"])

	rec = a.do(http.MethodPost, reservations, bob, echo.Map{"seats": []echo.Map{{"row": "Q", "number": 1}}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(http.MethodPost, reservations, bob, echo.Map{"seats": []echo.Map{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/v1/my-reservations", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode(t, rec)["items"].([]any)
	require.Len(t, mine, 2)
	assert.Equal(t, "Playtime", mine[0].(map[string]any)["film_title"])

	rec = a.do(http.MethodGet, "/v1/reservations/"+first+"/qrcode", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/v1/reservations/"+first+"/qrcode", bob, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/v1/reservations/"+first+"/qrcode", admin, nil).Code)

	rec = a.do(http.MethodPut, "/v1/reservations/"+first, ana, echo.Map{"seats": []echo.Map{{"row": "A", "number": 2}}})
	assert.Equal(t, http.StatusConflict, rec.Code, "own second seat is taken")
	rec = a.do(http.MethodPut, "/v1/reservations/"+first, ana, echo.Map{"seats": []echo.Map{{"row": "C", "number": 5}}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "C5", decode(t, rec)["seat"])

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodDelete, "/v1/reservations/"+first, bob, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodDelete, reservations+"?row=A&number=2", bob, nil).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, reservations+"?row=A&number=2", ana, nil).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/v1/reservations/"+first, ana, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/v1/reservations/"+first, ana, nil).Code)

	rec = a.do(http.MethodGet, fmt.Sprintf("/v1/showings/%d", id), "", nil)
	assert.Equal(t, float64(15), decode(t, rec)["available_seats"])

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/v1/admin/reservations", ana, nil).Code)
	rec = a.do(http.MethodPost, reservations, bob, echo.Map{"seats": []echo.Map{{"row": "B", "number": 3}}})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = a.do(http.MethodGet, fmt.Sprintf("/v1/admin/reservations?showing=%d", id), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"].([]any), 1)
}

func TestFavorites(t *testing.T) {
	a := newAPI(t)
	admin := a.account("admin@example.com", model.RoleAdmin)
	ana := a.account("ana@example.com", model.RoleClient)
	a.schedule(admin)

	rec := a.do(http.MethodPost, "/v1/favorites/1", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["favorite"])

	rec = a.do(http.MethodGet, "/v1/favorites", ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"].([]any), 1)

	rec = a.do(http.MethodPost, "/v1/favorites/1", ana, nil)
	assert.Equal(t, false, decode(t, rec)["favorite"])
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/v1/favorites/1", ana, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/v1/favorites/99", ana, nil).Code)
}

func TestAdminCreatesOperator(t *testing.T) {
	a := newAPI(t)
	admin := a.account("admin@example.com", model.RoleAdmin)
	client := a.account("ana@example.com", model.RoleClient)

	op := echo.Map{"username": "caisse", "email": "caisse@example.com", "password": "secret123"}
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/v1/admin/operators", client, op).Code)
	rec := a.do(http.MethodPost, "/v1/admin/operators", admin, op)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "operator", decode(t, rec)["role"])

	rec = a.do(http.MethodGet, "/v1/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"].([]any), 3)
}

func TestFilmLongerDurationMustKeepScheduleFree(t *testing.T) {
	a := newAPI(t)
	admin := a.account("admin@example.com", model.RoleAdmin)

	rec := a.do(http.MethodPost, "/v1/films", admin, echo.Map{"title": "Playtime", "duration_min": 120})
	require.Equal(t, http.StatusCreated, rec.Code)
	playtime := uint64(decode(t, rec)["id"].(float64))
	rec = a.do(http.MethodPost, "/v1/films", admin, echo.Map{"title": "Trafic", "duration_min": 90})
	require.Equal(t, http.StatusCreated, rec.Code)
	trafic := uint64(decode(t, rec)["id"].(float64))

	rec = a.do(http.MethodPost, "/v1/showings", admin, echo.Map{"film_id": playtime, "date": "2099-06-01", "time": "10:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(http.MethodPost, "/v1/showings", admin, echo.Map{"film_id": trafic, "date": "2099-06-01", "time": "12:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	second := uint64(decode(t, rec)["id"].(float64))

	filmPath := fmt.Sprintf("/v1/films/%d", playtime)
	rec = a.do(http.MethodPut, filmPath, admin, echo.Map{"title": "Playtime", "duration_min": 180})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, service.ReasonOverlap, body["reason"])
	assert.Equal(t, float64(second), body["conflict_with"])

	rec = a.do(http.MethodGet, filmPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(120), decode(t, rec)["duration_min"])

	rec = a.do(http.MethodPut, filmPath, admin, echo.Map{"title": "Playtime", "duration_min": 110})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(http.MethodPut, filmPath, admin, echo.Map{"title": "Playtime", "duration_min": 120})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPut, "/v1/films/99", admin, echo.Map{"title": "X", "duration_min": 90}).Code)
}

func TestProfileAndAdminAccountManagement(t *testing.T) {
	a := newAPI(t)
	admin := a.account("admin@example.com", model.RoleAdmin)
	ana := a.account("ana@example.com", model.RoleClient)
	a.account("bob@example.com", model.RoleClient)
	a.account("caisse@example.com", model.RoleOperator)

	rec := a.do(http.MethodPut, "/v1/me", ana, echo.Map{"username": "Ana M.", "password": "newsecret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Ana M.", decode(t, rec)["username"])
	rec = a.do(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "ana@example.com", "password": "newsecret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusConflict, a.do(http.MethodPut, "/v1/me", ana, echo.Map{"email": "bob@example.com"}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, "/v1/me", ana, echo.Map{"email": "nope"}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, "/v1/me", ana, echo.Map{"password": "123"}).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPut, "/v1/me", "", echo.Map{"username": "x"}).Code)

	rec = a.do(http.MethodGet, "/v1/admin/users?role=client", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"].([]any), 2)
	rec = a.do(http.MethodGet, "/v1/admin/users?role=operator", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"].([]any), 1)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/v1/admin/users?role=owner", admin, nil).Code)

	anaID := uint64(2)
	userPath := fmt.Sprintf("/v1/admin/users/%d", anaID)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPut, userPath, ana, echo.Map{"username": "x"}).Code)
	rec = a.do(http.MethodPut, userPath, admin, echo.Map{"email": "ana.m@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ana.m@example.com", decode(t, rec)["email"])
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPut, "/v1/admin/users/99", admin, echo.Map{"username": "x"}).Code)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodDelete, userPath, ana, nil).Code)
	assert.Equal(t, http.StatusConflict, a.do(http.MethodDelete, "/v1/admin/users/1", admin, nil).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, userPath, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, userPath, admin, nil).Code)

	rec = a.do(http.MethodGet, "/v1/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"].([]any), 3)
}
