package model

import (
    "fmt"
    "strings"
    "time"
)

// Role is the closed set of account kinds.  The zero value is not a
// valid role so a missing claim can never pass a guard by accident.
type Role uint8

const (
    RoleClient Role = iota + 1
    RoleAdmin
    RoleOperator
)

// ParseRole maps the persisted/claimed role name to a Role.  "operateur"
// is accepted for accounts created by the legacy admin tooling.
func ParseRole(s string) (Role, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "client":
        return RoleClient, nil
    case "admin":
        return RoleAdmin, nil
    case "operator", "operateur":
        return RoleOperator, nil
    }
    return 0, fmt.Errorf("unknown role %q", s)
}

// String returns the canonical role name stored in users.role and in
// the JWT "role" claim.
func (r Role) String() string {
    switch r {
    case RoleClient:
        return "client"
    case RoleAdmin:
        return "admin"
    case RoleOperator:
        return "operator"
    }
    return "unknown"
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
    switch r {
    case RoleClient, RoleAdmin, RoleOperator:
        return true
    }
    return false
}

// IsStaff reports whether the role may manage the catalog and schedule.
func (r Role) IsStaff() bool {
    switch r {
    case RoleAdmin, RoleOperator:
        return true
    case RoleClient:
        return false
    }
    return false
}

// MarshalText lets Role travel as its name in JSON.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText parses a role name.
func (r *Role) UnmarshalText(b []byte) error {
    v, err := ParseRole(string(b))
    if err != nil {
        return err
    }
    *r = v
    return nil
}

// Identity is the authenticated caller attached to a request by the
// access guard.  Services trust it without re-verifying credentials.
type Identity struct {
    ID   uint64
    Role Role
}

// User represents an account as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – display name.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – account kind.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    `json:"id"`         // users.id
    Username     string    `json:"username"`   // users.username
    Email        string    `json:"email"`      // users.email
    PasswordHash string    `json:"-"`          // users.password_hash
    Role         Role      `json:"role"`       // users.role
    CreatedAt    time.Time `json:"created_at"` // users.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The
// plain token is not stored; only its SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (nil if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}

// Favorite marks a film as liked by a user.  (user, film) is unique.
type Favorite struct {
    ID        uint64    `json:"id"`         // favorites.id
    UserID    uint64    `json:"user_id"`    // favorites.user_id
    FilmID    uint64    `json:"film_id"`    // favorites.film_id
    CreatedAt time.Time `json:"created_at"` // favorites.created_at
}
