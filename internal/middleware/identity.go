package middleware

// identity.go holds the context plumbing shared by the auth, role and
// rate limit middleware.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-seance-booking/internal/model"
)

const identityKey = "identity"

// IdentityFrom returns the identity stored by JWTAuth.  ok is false on
// routes that are not behind JWTAuth.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
    id, ok := c.Get(identityKey).(model.Identity)
    if !ok || id.ID == 0 {
        return model.Identity{}, false
    }
    return id, true
}

// SetIdentity stores id the way JWTAuth does.  Tests use it to skip token
// issuance.
func SetIdentity(c echo.Context, id model.Identity) {
    c.Set(identityKey, id)
}

// userID renders the caller for rate limit keys, "anon" when
// unauthenticated.
func userID(c echo.Context) string {
    if id, ok := IdentityFrom(c); ok {
        return strconv.FormatUint(id.ID, 10)
    }
    return "anon"
}
