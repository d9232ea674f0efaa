package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seance-booking/internal/middleware"
	"github.com/iliyamo/cinema-seance-booking/internal/model"
)

// RegisterCatalog registers the film catalog and the showing schedule.
// Reads are public and the film list and free slots are served from the
// Redis cache.  Writes require an admin or operator and drop the cache
// groups they affect.
func RegisterCatalog(e *echo.Echo, d Deps) {
	films := d.Films
	shows := d.Showings

	e.GET("/v1/films", films.List, middleware.NewRedisCache(d.Cache, d.Redis, groupFilms))
	e.GET("/v1/films/:id", films.Get, middleware.NewRedisCache(d.Cache, d.Redis, groupFilms))
	e.GET("/v1/rooms", shows.ListRooms)
	e.GET("/v1/showings", shows.List)
	// Registered before /:id; echo prefers static segments anyway.
	e.GET("/v1/showings/available-times", shows.AvailableTimes, middleware.NewRedisCache(d.Cache, d.Redis, groupSlots))
	e.GET("/v1/showings/:id", shows.Get)

	staff := e.Group("/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleOperator),
	)
	// A film's duration feeds the free slot computation.
	filmWrites := middleware.InvalidateCache(d.Cache, d.Redis, groupFilms, groupSlots)
	staff.POST("/films", films.Create, filmWrites)
	staff.PUT("/films/:id", films.Update, filmWrites)
	staff.DELETE("/films/:id", films.Delete, filmWrites)

	showWrites := middleware.InvalidateCache(d.Cache, d.Redis, groupSlots)
	staff.POST("/showings", shows.Create, showWrites)
	staff.PUT("/showings/:id", shows.Update, showWrites)
	staff.DELETE("/showings/:id", shows.Delete, showWrites)
}
