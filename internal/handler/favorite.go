package handler

import (
	"errors"   // sentinel comparisons
	"net/http" // status codes

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/cinema-seance-booking/internal/repository" // favorites and films
)

// FavoriteHandler manages a user's favorite films.
type FavoriteHandler struct {
	Favorites *repository.FavoriteRepo
	Films     *repository.FilmRepo
}

func NewFavoriteHandler(favs *repository.FavoriteRepo, films *repository.FilmRepo) *FavoriteHandler {
	return &FavoriteHandler{Favorites: favs, Films: films}
}

// target resolves the caller and an existing :film_id.  handled is true
// when a response has already been written.
func (h *FavoriteHandler) target(c echo.Context) (userID, filmID uint64, handled bool, err error) {
	user, err := currentUser(c)
	if err != nil {
		return 0, 0, true, respondError(c, err)
	}
	filmID, ok := pathID(c, "film_id")
	if !ok {
		return 0, 0, true, badRequest(c, "invalid film id")
	}
	if _, err := h.Films.GetByID(c.Request().Context(), filmID); err != nil {
		if errors.Is(err, repository.ErrFilmNotFound) {
			return 0, 0, true, c.JSON(http.StatusNotFound, echo.Map{"error": "film not found"})
		}
		return 0, 0, true, respondError(c, err)
	}
	return user.ID, filmID, false, nil
}

// Toggle handles POST /v1/favorites/:film_id.
func (h *FavoriteHandler) Toggle(c echo.Context) error {
	userID, filmID, handled, err := h.target(c)
	if handled {
		return err
	}
	fav, err := h.Favorites.Toggle(c.Request().Context(), userID, filmID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"film_id": filmID, "favorite": fav})
}

// Check handles GET /v1/favorites/check/:film_id.
func (h *FavoriteHandler) Check(c echo.Context) error {
	userID, filmID, handled, err := h.target(c)
	if handled {
		return err
	}
	fav, err := h.Favorites.Exists(c.Request().Context(), userID, filmID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"film_id": filmID, "favorite": fav})
}

// Remove handles DELETE /v1/favorites/:film_id.
func (h *FavoriteHandler) Remove(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	filmID, ok := pathID(c, "film_id")
	if !ok {
		return badRequest(c, "invalid film id")
	}
	if err := h.Favorites.Remove(c.Request().Context(), user.ID, filmID); err != nil {
		if errors.Is(err, repository.ErrFavoriteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "favorite not found"})
		}
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/favorites.
func (h *FavoriteHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	films, err := h.Favorites.ListFilms(c.Request().Context(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": films})
}
