package handler

import (
	"errors"   // sentinel comparisons
	"net/http" // status codes
	"strconv"  // pagination parameters
	"strings"  // trimming of text fields
	"time"     // film durations

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/cinema-seance-booking/internal/model"      // Film
	"github.com/iliyamo/cinema-seance-booking/internal/repository" // film persistence
	"github.com/iliyamo/cinema-seance-booking/internal/service"    // schedule consistency
)

// FilmHandler serves the catalog.  Reads are public, writes are staff
// only (enforced by the router).
type FilmHandler struct {
	Films    *repository.FilmRepo
	Schedule *service.Scheduler
}

func NewFilmHandler(films *repository.FilmRepo, schedule *service.Scheduler) *FilmHandler {
	return &FilmHandler{Films: films, Schedule: schedule}
}

type filmReq struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	DurationMin uint32 `json:"duration_min" validate:"required,min=1,max=600"`
	Language    string `json:"language" validate:"max=50"`
	Genre       string `json:"genre" validate:"max=100"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Trailer     string `json:"trailer" validate:"omitempty,url"`
	Director    string `json:"director" validate:"max=255"`
	ReleaseYear uint32 `json:"release_year" validate:"omitempty,min=1888,max=2100"`
}

func (r filmReq) film() model.Film {
	return model.Film{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		DurationMin: r.DurationMin,
		Language:    strings.TrimSpace(r.Language),
		Genre:       strings.TrimSpace(r.Genre),
		ImageURL:    r.ImageURL,
		Trailer:     r.Trailer,
		Director:    strings.TrimSpace(r.Director),
		ReleaseYear: r.ReleaseYear,
	}
}

// List handles GET /v1/films?title=&genre=&page=&page_size=.
func (h *FilmHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 || ps > 100 {
		ps = 20
	}
	items, total, err := h.Films.Search(c.Request().Context(), repository.FilmQuery{
		Title:    strings.TrimSpace(c.QueryParam("title")),
		Genre:    strings.TrimSpace(c.QueryParam("genre")),
		Page:     page,
		PageSize: ps,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}

// Get handles GET /v1/films/:id.
func (h *FilmHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid film id")
	}
	f, err := h.Films.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// Create handles POST /v1/films.
func (h *FilmHandler) Create(c echo.Context) error {
	var req filmReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	f := req.film()
	if err := h.Films.Create(c.Request().Context(), &f); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

// Update handles PUT /v1/films/:id.  A longer duration is refused with 409
// when one of the film's showings would then overlap another showing of
// its room.
func (h *FilmHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid film id")
	}
	var req filmReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	ctx := c.Request().Context()
	current, err := h.Films.GetByID(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	if req.DurationMin > current.DurationMin {
		if err := h.Schedule.CheckFilmDuration(ctx, id, time.Duration(req.DurationMin)*time.Minute); err != nil {
			return respondError(c, err)
		}
	}
	f := req.film()
	f.ID = id
	if err := h.Films.Update(ctx, &f); err != nil {
		return h.fail(c, err)
	}
	updated, err := h.Films.GetByID(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/films/:id.  Scheduled films are refused.
func (h *FilmHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid film id")
	}
	if err := h.Films.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FilmHandler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrFilmNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "film not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "film still has showings"})
	}
	return respondError(c, err)
}
