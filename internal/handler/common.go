package handler // handler defines http handlers

import (
	"errors"   // errors.As on domain failures
	"net/http" // status codes
	"strconv"  // path parameter parsing

	"github.com/go-playground/validator/v10" // struct tag validation of request bodies
	"github.com/labstack/echo/v4"            // echo defines request context types
	"github.com/sirupsen/logrus"             // logs unexpected failures

	"github.com/iliyamo/cinema-seance-booking/internal/middleware" // identity stored by JWTAuth
	"github.com/iliyamo/cinema-seance-booking/internal/model"      // Identity
	"github.com/iliyamo/cinema-seance-booking/internal/service"    // domain error taxonomy
)

// validate checks request bodies against their `validate` tags.
var validate = validator.New()

// errUnauthorized is returned by currentUser when no identity is attached.
var errUnauthorized = errors.New("unauthorized")

// currentUser returns the caller attached by JWTAuth.
func currentUser(c echo.Context) (model.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return model.Identity{}, errUnauthorized
	}
	return id, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// bindValid binds the body into v and runs the validator.  The returned
// error is already rendered as a 400 response message.
func bindValid(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New(verrs[0].Field() + " failed on " + verrs[0].Tag())
		}
		return err
	}
	return nil
}

// badRequest renders a 400 with msg.
func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// statusOf maps a domain failure kind to an HTTP status.
func statusOf(k service.Kind) int {
	switch k {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindConflict:
		return http.StatusConflict
	case service.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError renders err.  Domain failures keep their message, reason
// and seat; anything else is logged and hidden behind a generic 500.
func respondError(c echo.Context, err error) error {
	if errors.Is(err, errUnauthorized) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var de *service.Error
	if !errors.As(err, &de) {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method, "path": c.Path(),
		}).Error("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	body := echo.Map{"error": de.Message}
	if de.Reason != "" {
		body["reason"] = de.Reason
	}
	if de.Seat != "" {
		body["seat"] = de.Seat
	}
	if de.ConflictWith != 0 {
		body["conflict_with"] = de.ConflictWith
	}
	return c.JSON(statusOf(de.Kind), body)
}
