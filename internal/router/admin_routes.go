package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seance-booking/internal/middleware"
	"github.com/iliyamo/cinema-seance-booking/internal/model"
)

// RegisterAdmin registers the admin-only endpoints: the reservation
// overview and account management.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/v1/admin",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/reservations", d.Reservations.ListAll)
	g.POST("/operators", d.Auth.CreateOperator)
	g.GET("/users", d.Auth.ListUsers)
	g.PUT("/users/:id", d.Auth.UpdateUser)
	g.DELETE("/users/:id", d.Auth.DeleteUser)
}
