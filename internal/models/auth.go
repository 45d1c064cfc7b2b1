package models

import "github.com/golang-jwt/jwt/v5"

// Caller roles issued by the upstream identity provider.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// JWTClaims carries the caller identity established by the auth collaborator.
// This service only reads the claims; it never issues tokens.
type JWTClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IsStaff reports whether the caller may read other users' data.
func (c *JWTClaims) IsStaff() bool {
	return c != nil && (c.Role == RoleTeacher || c.Role == RoleAdmin)
}
