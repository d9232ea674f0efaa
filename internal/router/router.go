package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql" // readiness probe pings the database

	"github.com/labstack/echo/v4"  // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9" // cache and rate limit backend

	"github.com/iliyamo/cinema-seance-booking/internal/config"     // cache and rate limit settings
	"github.com/iliyamo/cinema-seance-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/cinema-seance-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// Cache groups.  Writes that change what a group renders drop it.
const (
	groupFilms = "films"
	groupSlots = "slots"
)

// Deps carries everything the routes need.  Redis may be nil, which
// disables caching and rate limiting.
type Deps struct {
	JWTSecret    string
	DB           *sql.DB
	Redis        *redis.Client
	Cache        config.CacheConfig
	BookingLimit config.RateLimitConfig

	Auth         *handler.AuthHandler
	Films        *handler.FilmHandler
	Showings     *handler.ShowingHandler
	Reservations *handler.ReservationHandler
	Favorites    *handler.FavoriteHandler
}

// Setup registers every route of the API on e.
func Setup(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, d.JWTSecret)
	RegisterCatalog(e, d)
	RegisterReservations(e, d)
	RegisterAdmin(e, d)
}

// RegisterRoutes registers the health probes.  /healthz is liveness,
// /readyz also pings the database.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterAuth registers all authentication-related routes.  Token
// issuance lives under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token and keeps the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a refresh token in the body or a bearer token, so it
	// is not behind JWTAuth.
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
	e.PUT("/v1/me", a.UpdateProfile, middleware.JWTAuth(jwtSecret))
}
