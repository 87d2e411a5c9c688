package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and a redacted user view.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}

// RegisterRequest is the self-registration payload. The created account
// starts PENDING and must be approved before it can sign in.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	RoleID    string  `json:"role_id" validate:"required"`
	VillageID *string `json:"village_id,omitempty"`
}

// UserInfo describes the authenticated user in responses, password excluded.
type UserInfo struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	RoleName  string     `json:"role_name"`
	Status    UserStatus `json:"status"`
}

// JWTClaims is the signed token payload. The permission list is a snapshot of
// the user's role flattened at issuance: role edits made afterwards do not
// affect an outstanding token until it expires and the user re-authenticates.
type JWTClaims struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	RoleName    string   `json:"role_name"`
	RoleTier    RoleTier `json:"role_tier"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the claim set carries the given capability.
func (c *JWTClaims) HasPermission(p Permission) bool {
	for _, held := range c.Permissions {
		if held == string(p) {
			return true
		}
	}
	return false
}
