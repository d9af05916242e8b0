package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the access token payload issued by the auth backend.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	FullName  string   `json:"full_name"`
	StudentID string   `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

// IsOfficer reports whether the caller may review payments and run cash confirmations.
func (c *JWTClaims) IsOfficer() bool {
	if c == nil {
		return false
	}
	return c.Role == RoleAdmin || c.Role == RoleTreasurer
}
