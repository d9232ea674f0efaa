package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seance-booking/internal/middleware"
)

// RegisterReservations registers the seat reservation and favorite
// endpoints under /v1.  Any authenticated role may use them; ownership
// is checked per reservation.  Reservation writes pass through the
// per-user booking rate limit.
func RegisterReservations(e *echo.Echo, d Deps) {
	h := d.Reservations
	g := e.Group("/v1", middleware.JWTAuth(d.JWTSecret))
	limit := middleware.NewTokenBucket(d.BookingLimit, d.Redis)

	g.POST("/showings/:id/reservations", h.Reserve, limit)
	g.DELETE("/showings/:id/reservations", h.CancelBySeat, limit)
	g.GET("/my-reservations", h.Mine)
	g.DELETE("/reservations/:id", h.Cancel, limit)
	g.PUT("/reservations/:id", h.Modify, limit)
	g.GET("/reservations/:id/qrcode", h.QRCode)

	f := d.Favorites
	g.GET("/favorites", f.List)
	g.GET("/favorites/check/:film_id", f.Check)
	g.POST("/favorites/:film_id", f.Toggle)
	g.DELETE("/favorites/:film_id", f.Remove)
}
